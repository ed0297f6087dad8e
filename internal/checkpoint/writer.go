// Package checkpoint persists best-effort snapshots of a running crawl.
package checkpoint

import (
	"context"
	"slices"
	"time"

	"catalog/crawler/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Writer decides when a snapshot is due and saves it through a Store.
// Save failures are logged and swallowed.
type Writer struct {
	store       Store
	runID       string
	interval    int
	perCategory bool

	lastSaved int
	saves     int
}

// NewWriter creates a Writer. interval 0 disables count based snapshots.
func NewWriter(store Store, runID string, interval int, perCategory bool) *Writer {
	return &Writer{
		store:       store,
		runID:       runID,
		interval:    max(interval, 0),
		perCategory: perCategory,
	}
}

// MaybeCheckpoint saves when the record count crossed an interval boundary since the last save
func (w *Writer) MaybeCheckpoint(ctx context.Context, records []domain.ProductRecord) {
	if w.interval == 0 {
		return
	}
	if len(records)/w.interval <= w.lastSaved/w.interval {
		return
	}
	w.save(ctx, records)
}

// CategoryCompleted saves after each finished leaf when per-category snapshots are enabled
func (w *Writer) CategoryCompleted(ctx context.Context, records []domain.ProductRecord) {
	if !w.perCategory || len(records) == w.lastSaved {
		return
	}
	w.save(ctx, records)
}

// Saves reports how many snapshots were written successfully
func (w *Writer) Saves() int {
	return w.saves
}

func (w *Writer) save(ctx context.Context, records []domain.ProductRecord) {
	snapshot := &domain.Snapshot{
		RunID:   w.runID,
		SavedAt: time.Now().UTC(),
		Records: slices.Clone(records),
	}

	if err := w.store.Save(ctx, snapshot); err != nil {
		log.WithField("run_id", w.runID).Warnf("⚠️ %v", &domain.CheckpointError{Err: err})
		return
	}

	w.lastSaved = len(records)
	w.saves++
	log.WithFields(log.Fields{
		"run_id":  w.runID,
		"records": len(records),
	}).Info("💾 Checkpoint saved")
}
