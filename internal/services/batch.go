package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"comment-digest/internal/models"
)

// BatchWorker categorizes a single batch
type BatchWorker func(ctx context.Context, batch models.Batch) ([]models.ProposedCategory, error)

// SplitBatches partitions comments into consecutive batches of batchSize,
// preserving order. The last batch may be smaller.
func SplitBatches(comments []models.Comment, batchSize int) ([]models.Batch, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	batches := make([]models.Batch, 0, (len(comments)+batchSize-1)/batchSize)
	for start := 0; start < len(comments); start += batchSize {
		end := start + batchSize
		if end > len(comments) {
			end = len(comments)
		}
		batches = append(batches, models.Batch{
			Index:    len(batches) + 1,
			Comments: comments[start:end],
		})
	}

	return batches, nil
}

// RunBatches runs worker over batches with at most limit calls in flight.
// Batches are dequeued in order; completions arrive in whatever order they
// finish. Exactly one result is emitted per batch, failed or not, and the
// channel is closed once every batch has resolved.
func RunBatches(ctx context.Context, batches []models.Batch, limit int, worker BatchWorker) <-chan models.BatchResult {
	results := make(chan models.BatchResult, len(batches))

	queue := make(chan models.Batch, len(batches))
	for _, batch := range batches {
		queue <- batch
	}
	close(queue)

	if limit < 1 {
		limit = 1
	}
	if limit > len(batches) {
		limit = len(batches)
	}

	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range queue {
				results <- runBatch(ctx, batch, worker)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func runBatch(ctx context.Context, batch models.Batch, worker BatchWorker) (result models.BatchResult) {
	result = models.BatchResult{Index: batch.Index, Size: len(batch.Comments)}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result.Categories = nil
			result.Err = fmt.Errorf("batch %d panicked: %v", batch.Index, r)
		}
		result.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	result.Categories, result.Err = worker(ctx, batch)
	return result
}
