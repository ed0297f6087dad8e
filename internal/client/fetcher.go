package client

import (
	"context"
	"time"
)

// WaitStrategy tells a fetcher when a navigation is considered settled
type WaitStrategy int

const (
	// WaitNetworkIdle waits until in-flight requests settle after load
	WaitNetworkIdle WaitStrategy = iota
	// WaitLoad returns as soon as the load event fired
	WaitLoad
)

type FetchOptions struct {
	Wait    WaitStrategy
	Timeout time.Duration
}

// RenderedPage is the DOM content of a fetched page
type RenderedPage struct {
	URL  string // Final URL used to resolve relative links
	HTML string
}

// PageFetcher loads pages. Implementations hold a single session and are not
// safe for concurrent navigations.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*RenderedPage, error)
	Close() error
}
