package services

import (
	"context"
	"fmt"
	"sync"

	"comment-digest/internal/helpers"
	"comment-digest/internal/models"

	"github.com/robfig/cron/v3"
)

// ResultFunc receives the outcome of every scheduled run
type ResultFunc func(result *models.AnalysisResult, err error)

// WatchService re-runs an analysis on a cron schedule. A firing that starts
// while an earlier run is still in flight supersedes it: the earlier run keeps
// its network calls but its late batch results are discarded.
type WatchService struct {
	analysis *AnalysisService
	cron     *cron.Cron
	wg       sync.WaitGroup
}

// NewWatchService creates a watch service
func NewWatchService(analysis *AnalysisService) *WatchService {
	return &WatchService{
		analysis: analysis,
		cron:     cron.New(),
	}
}

// Watch runs req immediately and then on every schedule firing until ctx is
// done. It waits for in-flight runs before returning.
func (w *WatchService) Watch(ctx context.Context, schedule string, req models.AnalysisRequest, onResult ResultFunc) error {
	if _, err := w.cron.AddFunc(schedule, func() { w.trigger(ctx, req, onResult) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	helpers.PrintInfo("Watching video %s on schedule %q", req.VideoID, schedule)
	w.trigger(ctx, req, onResult)
	w.cron.Start()

	<-ctx.Done()
	<-w.cron.Stop().Done()
	w.wg.Wait()
	return nil
}

// trigger starts one run in the background
func (w *WatchService) trigger(ctx context.Context, req models.AnalysisRequest, onResult ResultFunc) {
	if ctx.Err() != nil {
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		result, err := w.analysis.Analyze(ctx, req, nil)
		if onResult != nil {
			onResult(result, err)
		}
	}()
}
