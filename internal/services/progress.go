package services

import (
	"time"

	"comment-digest/internal/models"
)

// ProgressTracker derives processed counts and an ETA from batch completions
type ProgressTracker struct {
	totalComments int
	totalBatches  int
	processed     int
	completed     int
	durations     []time.Duration
}

// NewProgressTracker creates a tracker for one run
func NewProgressTracker(totalComments, totalBatches int) *ProgressTracker {
	t := &ProgressTracker{}
	t.Reset(totalComments, totalBatches)
	return t
}

// Reset clears all progress for a new run
func (t *ProgressTracker) Reset(totalComments, totalBatches int) {
	t.totalComments = totalComments
	t.totalBatches = totalBatches
	t.processed = 0
	t.completed = 0
	t.durations = t.durations[:0]
}

// Record registers a completed batch, successful or not
func (t *ProgressTracker) Record(batchSize int, duration time.Duration) models.ProgressUpdate {
	t.processed += batchSize
	t.completed++
	t.durations = append(t.durations, duration)
	return t.Snapshot()
}

// Snapshot returns the current progress. ETASeconds is nil until a batch completes.
func (t *ProgressTracker) Snapshot() models.ProgressUpdate {
	update := models.ProgressUpdate{
		Processed:    t.processed,
		Total:        t.totalComments,
		CurrentBatch: t.completed,
		TotalBatches: t.totalBatches,
	}

	if len(t.durations) > 0 {
		var sum time.Duration
		for _, d := range t.durations {
			sum += d
		}
		remaining := t.totalBatches - t.completed
		if remaining < 0 {
			remaining = 0
		}
		eta := (sum.Seconds() / float64(len(t.durations))) * float64(remaining)
		update.ETASeconds = &eta
	}

	return update
}
