package domain

import "time"

type CrawlStatus string

const (
	// CrawlCompleted means every visited category finished and records were found
	CrawlCompleted CrawlStatus = "completed"
	// CrawlCompletedWithFailures means records were found but some categories failed
	CrawlCompletedWithFailures CrawlStatus = "completed_with_failures"
	// CrawlEmpty means the queue was exhausted without failures and without records
	CrawlEmpty CrawlStatus = "empty"
	// CrawlFailed means no records were found and at least one category failed
	CrawlFailed CrawlStatus = "failed"
)

// CrawlResult is the ordered output of one traversal plus its bookkeeping
type CrawlResult struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Records    []ProductRecord   `json:"records"`
	Visited    int               `json:"visited"`
	Branches   int               `json:"branches"`
	Leaves     int               `json:"leaves"`
	PageErrors int               `json:"page_errors"`
	Failures   []CategoryFailure `json:"failures"`

	// States holds the last state of every enqueued category, keyed by URL
	States map[string]CategoryState `json:"-"`
}

func (r *CrawlResult) Status() CrawlStatus {
	switch {
	case len(r.Records) == 0 && len(r.Failures) == 0:
		return CrawlEmpty
	case len(r.Records) == 0:
		return CrawlFailed
	case len(r.Failures) > 0:
		return CrawlCompletedWithFailures
	default:
		return CrawlCompleted
	}
}

// Snapshot is the persisted checkpoint of a crawl in progress
type Snapshot struct {
	RunID   string          `json:"run_id"`
	SavedAt time.Time       `json:"saved_at"`
	Records []ProductRecord `json:"records"`
}
