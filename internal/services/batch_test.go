package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"comment-digest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBatches_PartitionsInOrder(t *testing.T) {
	comments := substantiveComments(11)

	batches, err := SplitBatches(comments, 4)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	var joined []models.Comment
	for i, batch := range batches {
		assert.Equal(t, i+1, batch.Index)
		if i < len(batches)-1 {
			assert.Len(t, batch.Comments, 4)
		}
		joined = append(joined, batch.Comments...)
	}
	assert.Len(t, batches[2].Comments, 3)
	assert.Equal(t, comments, joined)
}

func TestSplitBatches_ExactMultiple(t *testing.T) {
	batches, err := SplitBatches(substantiveComments(400), 200)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Comments, 200)
	assert.Len(t, batches[1].Comments, 200)
}

func TestSplitBatches_Empty(t *testing.T) {
	batches, err := SplitBatches(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestSplitBatches_RejectsNonPositiveSize(t *testing.T) {
	_, err := SplitBatches(substantiveComments(3), 0)
	assert.Error(t, err)

	_, err = SplitBatches(substantiveComments(3), -1)
	assert.Error(t, err)
}

func TestRunBatches_BoundedConcurrencyAndFailureTolerance(t *testing.T) {
	const total, limit = 25, 4
	batches, err := SplitBatches(substantiveComments(total*2), 2)
	require.NoError(t, err)
	require.Len(t, batches, total)

	var inFlight, maxInFlight, calls int32
	worker := func(ctx context.Context, batch models.Batch) ([]models.ProposedCategory, error) {
		atomic.AddInt32(&calls, 1)
		current := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			seen := atomic.LoadInt32(&maxInFlight)
			if current <= seen || atomic.CompareAndSwapInt32(&maxInFlight, seen, current) {
				break
			}
		}

		time.Sleep(time.Duration(batch.Index%3+1) * time.Millisecond)

		switch {
		case batch.Index%5 == 0:
			return nil, errors.New("oracle unavailable")
		case batch.Index == 7:
			panic("malformed response")
		}
		return []models.ProposedCategory{{CategoryTitle: "t"}}, nil
	}

	seen := make(map[int]bool)
	failures := 0
	for result := range RunBatches(context.Background(), batches, limit, worker) {
		assert.False(t, seen[result.Index], "batch %d reported twice", result.Index)
		seen[result.Index] = true
		assert.Equal(t, 2, result.Size)
		assert.Greater(t, result.Duration, time.Duration(0))
		if result.Err != nil {
			failures++
		}
	}

	assert.Len(t, seen, total)
	assert.Equal(t, int32(total), atomic.LoadInt32(&calls))
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(limit))
	assert.Equal(t, 6, failures)
}

func TestRunBatches_SlowBatchDoesNotBlockOthers(t *testing.T) {
	batches, err := SplitBatches(substantiveComments(5), 1)
	require.NoError(t, err)

	release := make(chan struct{})
	worker := func(ctx context.Context, batch models.Batch) ([]models.ProposedCategory, error) {
		if batch.Index == 1 {
			<-release
		}
		return nil, nil
	}

	results := RunBatches(context.Background(), batches, 2, worker)

	var order []int
	for i := 0; i < 4; i++ {
		order = append(order, (<-results).Index)
	}
	assert.ElementsMatch(t, []int{2, 3, 4, 5}, order)

	close(release)
	assert.Equal(t, 1, (<-results).Index)
	_, open := <-results
	assert.False(t, open)
}

func TestRunBatches_CancelledContextSkipsWorker(t *testing.T) {
	batches, err := SplitBatches(substantiveComments(6), 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var mu sync.Mutex
	called := 0
	worker := func(ctx context.Context, batch models.Batch) ([]models.ProposedCategory, error) {
		mu.Lock()
		called++
		mu.Unlock()
		return nil, nil
	}

	count := 0
	for result := range RunBatches(ctx, batches, 2, worker) {
		count++
		assert.ErrorIs(t, result.Err, context.Canceled)
	}
	assert.Equal(t, 3, count)
	assert.Zero(t, called)
}

func TestRunBatches_NoBatches(t *testing.T) {
	results := RunBatches(context.Background(), nil, 10, func(ctx context.Context, batch models.Batch) ([]models.ProposedCategory, error) {
		t.Fatal("worker must not be called")
		return nil, nil
	})
	_, open := <-results
	assert.False(t, open)
}
