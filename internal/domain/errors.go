package domain

import (
	"errors"
	"fmt"
)

// ErrNoSnapshot is returned by checkpoint stores that hold nothing yet
var ErrNoSnapshot = errors.New("no checkpoint snapshot found")

// FetchError is a navigation or timeout failure for a URL
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractionError is a parse failure on an otherwise successful fetch
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// CheckpointError is a persistence failure while saving a snapshot
type CheckpointError struct {
	Err error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint: %v", e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}
