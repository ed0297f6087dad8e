package queue

import (
	"context"
	"errors"

	"catalog/crawler/internal/domain"
	"catalog/crawler/internal/domain/task"

	log "github.com/sirupsen/logrus"
)

// StreamListener publishes crawl progress as tasks. Publishing is best-effort:
// failures are logged and never reach the crawl.
type StreamListener struct {
	queue Queue
	runID string
}

func NewStreamListener(queue Queue, runID string) *StreamListener {
	return &StreamListener{
		queue: queue,
		runID: runID,
	}
}

func (l *StreamListener) PageExtracted(ctx context.Context, category domain.Category, pageNumber int, records []domain.ProductRecord) {
	l.publish(ctx, &task.ListingPageTask{
		RunID:        l.runID,
		CategoryURL:  category.URL,
		CategoryPath: category.NormalizedPath,
		PageNumber:   pageNumber,
		Records:      records,
	})
}

func (l *StreamListener) CategoryFailed(ctx context.Context, category domain.Category, err error) {
	l.publish(ctx, &task.CategoryFailedTask{
		RunID:        l.runID,
		CategoryURL:  category.URL,
		CategoryPath: category.NormalizedPath,
		Depth:        category.Depth,
		Error:        err.Error(),
	})
}

func (l *StreamListener) publish(ctx context.Context, t task.Task) {
	if _, err := l.queue.AddTask(ctx, t); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.WithField("run_id", l.runID).Warnf("⚠️ Failed to publish %s: %v", t.TaskType(), err)
	}
}
