package service

import (
	"time"

	"catalog/crawler/internal/domain"
)

// collector owns the accumulating result of a single crawl
type collector struct {
	runID      string
	startedAt  time.Time
	records    []domain.ProductRecord
	states     map[string]domain.CategoryState
	failures   []domain.CategoryFailure
	branches   int
	leaves     int
	pageErrors int
}

func newCollector(runID string) *collector {
	return &collector{
		runID:     runID,
		startedAt: time.Now().UTC(),
		records:   make([]domain.ProductRecord, 0),
		states:    make(map[string]domain.CategoryState),
	}
}

func (c *collector) add(records []domain.ProductRecord) {
	c.records = append(c.records, records...)
}

func (c *collector) transition(category domain.Category, state domain.CategoryState) {
	c.states[category.URL] = state
}

func (c *collector) fail(category domain.Category, err error) {
	c.transition(category, domain.CategoryFailed)
	c.failures = append(c.failures, domain.CategoryFailure{
		Category: category,
		Reason:   err.Error(),
	})
}

// unfinished counts enqueued categories that reached neither Done nor Failed
func (c *collector) unfinished() int {
	n := 0
	for _, state := range c.states {
		if !state.IsTerminal() {
			n++
		}
	}
	return n
}

func (c *collector) finish(visited int) *domain.CrawlResult {
	states := make(map[string]domain.CategoryState, len(c.states))
	for url, state := range c.states {
		states[url] = state
	}

	return &domain.CrawlResult{
		RunID:      c.runID,
		StartedAt:  c.startedAt,
		FinishedAt: time.Now().UTC(),
		Records:    c.records,
		Visited:    visited,
		Branches:   c.branches,
		Leaves:     c.leaves,
		PageErrors: c.pageErrors,
		Failures:   c.failures,
		States:     states,
	}
}
