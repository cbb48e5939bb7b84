package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"comment-digest/internal/config"
	"comment-digest/internal/helpers"
	"comment-digest/internal/models"
)

// CommentFetcher fetches up to maxComments top-level comments for a video
type CommentFetcher interface {
	FetchComments(ctx context.Context, videoID, apiKey string, maxComments int) ([]models.Comment, error)
}

// errStaleRun fails batches that are dequeued after a newer run started
var errStaleRun = errors.New("run superseded before batch started")

// UpdateFunc receives run updates. It is only ever called from the goroutine
// running Analyze, never concurrently with itself.
type UpdateFunc func(update models.AnalysisUpdate)

// AnalysisService runs the fetch, filter, batch and categorize pipeline
type AnalysisService struct {
	config      *config.Config
	fetcher     CommentFetcher
	categorizer Categorizer
	filter      *SpamFilter
	sessions    sessionRegistry
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(config *config.Config) *AnalysisService {
	return NewAnalysisServiceWith(config, NewCommentService(&config.YouTube), NewAIService(&config.Anthropic))
}

// NewAnalysisServiceWith creates an analysis service over the given collaborators
func NewAnalysisServiceWith(config *config.Config, fetcher CommentFetcher, categorizer Categorizer) *AnalysisService {
	return &AnalysisService{
		config:      config,
		fetcher:     fetcher,
		categorizer: categorizer,
		filter:      NewSpamFilter(&config.SpamFilter),
	}
}

// Analyze runs one analysis. Updates are delivered through onUpdate after each
// state change and after every batch completion. Fatal failures are returned
// as *models.PipelineError; individual batch failures are logged and only
// reduce the categorized result.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest, onUpdate UpdateFunc) (*models.AnalysisResult, error) {
	if req.TargetLanguage == "" {
		req.TargetLanguage = s.config.Processing.TargetLanguage
	}

	session := s.sessions.begin(req, s.config.YouTube.APIKey)
	emit := func(categories []models.Category, stats *models.AnalysisStats) {
		if onUpdate == nil || !s.sessions.isCurrent(session) {
			return
		}
		onUpdate(models.AnalysisUpdate{
			RunID:      session.ID,
			State:      session.State(),
			Categories: categories,
			Progress:   session.tracker.Snapshot(),
			Stats:      stats,
		})
	}

	if strings.TrimSpace(session.APIKey) == "" {
		session.state = models.StateNeedsCredentials
		emit(nil, nil)
		return nil, models.NewPipelineError(models.ErrMissingAPIKey, nil)
	}

	session.state = models.StateFetching
	emit(nil, nil)
	helpers.PrintInfo("Fetching up to %d comments for video %s", req.MaxComments, req.VideoID)

	comments, err := s.fetcher.FetchComments(ctx, req.VideoID, session.APIKey, req.MaxComments)
	if err != nil {
		session.state = models.StateError
		emit(nil, nil)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("analysis cancelled: %w", ctxErr)
		}
		return nil, err
	}

	session.state = models.StateFiltering
	emit(nil, nil)

	survivors := s.filter.Filter(comments)
	stats := models.AnalysisStats{
		Total:    len(comments),
		Filtered: len(comments) - len(survivors),
		Analyzed: len(survivors),
	}
	helpers.PrintInfo("Filtered %d of %d comments, %d left to analyze", stats.Filtered, stats.Total, stats.Analyzed)

	batches, err := SplitBatches(survivors, s.config.Processing.BatchSize)
	if err != nil {
		session.state = models.StateError
		emit(nil, &stats)
		return nil, err
	}

	session.tracker.Reset(len(survivors), len(batches))
	session.state = models.StateAnalyzing
	emit(nil, &stats)

	failed, err := s.categorizeBatches(ctx, session, batches, survivors, emit)
	if err != nil {
		session.state = models.StateError
		emit(nil, &stats)
		return nil, err
	}

	result := &models.AnalysisResult{
		RunID:         session.ID,
		VideoID:       req.VideoID,
		Language:      req.TargetLanguage,
		Categories:    hydrate(session.merger.Categories(), survivors),
		Stats:         stats,
		TotalBatches:  len(batches),
		FailedBatches: failed,
		StartedAt:     session.StartedAt,
		FinishedAt:    time.Now(),
	}

	session.state = models.StateComplete
	emit(result.Categories, &stats)

	helpers.PrintSuccess("Analysis complete - %d batches processed (%d failed), %d categories found",
		len(batches), failed, session.merger.Len())
	return result, nil
}

// categorizeBatches schedules every batch and merges completions one at a
// time in arrival order. It returns the number of failed batches.
func (s *AnalysisService) categorizeBatches(
	ctx context.Context,
	session *Session,
	batches []models.Batch,
	survivors []models.Comment,
	emit func([]models.Category, *models.AnalysisStats),
) (int, error) {
	if len(batches) == 0 {
		return 0, nil
	}

	helpers.PrintInfo("Categorizing %d comments in %d batches (concurrency %d)...",
		len(survivors), len(batches), s.config.Processing.Concurrency)

	worker := func(ctx context.Context, batch models.Batch) ([]models.ProposedCategory, error) {
		if !s.sessions.isCurrent(session) {
			return nil, errStaleRun
		}
		proposals, err := s.categorizer.CategorizeBatch(ctx, models.CategorizationRequest{
			TargetLanguage: session.Request.TargetLanguage,
			ExistingTitles: session.Hints(),
			Batch:          batch,
			TotalBatches:   len(batches),
		})
		if err != nil {
			return nil, err
		}
		return reconcile(proposals, batch), nil
	}

	failed := 0
	superseded := false
	for result := range RunBatches(ctx, batches, s.config.Processing.Concurrency, worker) {
		if !s.sessions.isCurrent(session) {
			if !superseded {
				helpers.PrintWarning("Run %s was superseded, discarding late batch results", session.ID)
			}
			superseded = true
			continue
		}

		update := session.tracker.Record(result.Size, result.Duration)

		if result.Err != nil {
			failed++
			helpers.PrintWarning("Batch %d/%d failed: %v", result.Index, len(batches), result.Err)
		} else {
			session.merger.Merge(result.Categories)
			session.publishHints(session.merger.RecentTitles(s.config.Processing.HintCount))
			s.saveIntermediate(session, result)
		}

		helpers.PrintProgressETA(update.CurrentBatch, update.TotalBatches, update.Processed, update.Total, update.ETASeconds)
		emit(hydrate(session.merger.Categories(), survivors), nil)
	}

	if superseded {
		return failed, models.NewPipelineError(models.ErrRunSuperseded, nil)
	}
	if err := ctx.Err(); err != nil {
		return failed, fmt.Errorf("analysis cancelled: %w", err)
	}
	if failed == len(batches) {
		return failed, models.NewPipelineError(models.ErrAllBatchesFailed,
			fmt.Errorf("%d of %d batches failed", failed, len(batches)))
	}
	return failed, nil
}

func (s *AnalysisService) saveIntermediate(session *Session, result models.BatchResult) {
	if !s.config.Processing.SaveIntermediate {
		return
	}

	dir := s.config.Processing.OutputDir
	if err := helpers.EnsureDir(dir); err != nil {
		helpers.PrintWarning("Failed to save intermediate result: %v", err)
		return
	}

	filename := helpers.GenerateOutputFilename(fmt.Sprintf("%s-batch-%d", session.Request.VideoID, result.Index), "json")
	if err := helpers.SaveJSON(result.Categories, helpers.GetOutputPath(dir, filename)); err != nil {
		helpers.PrintWarning("Failed to save intermediate result: %v", err)
	}
}

// reconcile resolves proposed comments against the batch by id. Ids the batch
// does not contain are dropped, and author and text come from the original.
func reconcile(proposals []models.ProposedCategory, batch models.Batch) []models.ProposedCategory {
	originals := make(map[string]models.Comment, len(batch.Comments))
	for _, c := range batch.Comments {
		originals[c.ID] = c
	}

	reconciled := make([]models.ProposedCategory, 0, len(proposals))
	for _, p := range proposals {
		category := models.ProposedCategory{
			CategoryTitle: p.CategoryTitle,
			Summary:       p.Summary,
			Comments:      make([]models.ProposedComment, 0, len(p.Comments)),
		}
		for _, pc := range p.Comments {
			original, ok := originals[pc.ID]
			if !ok {
				continue
			}
			category.Comments = append(category.Comments, models.ProposedComment{
				ID:     original.ID,
				Author: original.Author,
				Text:   original.Text,
			})
		}
		reconciled = append(reconciled, category)
	}
	return reconciled
}

// hydrate restores replies on categorized comments from the fetched originals
func hydrate(categories []models.Category, originals []models.Comment) []models.Category {
	byID := make(map[string]models.Comment, len(originals))
	for _, c := range originals {
		byID[c.ID] = c
	}
	for i := range categories {
		for j, c := range categories[i].Comments {
			if original, ok := byID[c.ID]; ok {
				categories[i].Comments[j] = original
			}
		}
	}
	return categories
}

// DisplayResult displays the analysis result in a formatted way
func (s *AnalysisService) DisplayResult(result *models.AnalysisResult) {
	helpers.PrintTitle("Comment Threads for video %s", result.VideoID)
	helpers.PrintInfo("Comments: %d fetched, %d filtered out, %d analyzed",
		result.Stats.Total, result.Stats.Filtered, result.Stats.Analyzed)
	if result.FailedBatches > 0 {
		helpers.PrintWarning("%d of %d batches failed; results are partial", result.FailedBatches, result.TotalBatches)
	}
	helpers.PrintSeparator()

	for i, category := range result.Categories {
		helpers.PrintInfo("Thread %d: %s (%d comments)", i+1, category.CategoryTitle, len(category.Comments))
		helpers.PrintInfo("Summary: %s", category.Summary)

		for _, comment := range category.Comments {
			helpers.PrintDetail("%s: %s", comment.Author, truncate(comment.Text, 160))
			if len(comment.Replies) > 0 {
				helpers.PrintDetail("  (%d replies)", len(comment.Replies))
			}
		}
		helpers.PrintSeparator()
	}
}

// SaveAnalysisResult saves the analysis result as JSON and a markdown summary.
// It returns the path of the JSON file.
func (s *AnalysisService) SaveAnalysisResult(result *models.AnalysisResult, outputDir string) (string, error) {
	if err := helpers.EnsureDir(outputDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonPath := helpers.GetOutputPath(outputDir, helpers.GenerateOutputFilename(result.VideoID+"-analysis", "json"))
	if err := helpers.SaveJSON(result, jsonPath); err != nil {
		return "", fmt.Errorf("failed to save full analysis: %w", err)
	}
	helpers.PrintSuccess("Saved full analysis to: %s", jsonPath)

	summaryPath := helpers.GetOutputPath(outputDir, helpers.GenerateOutputFilename(result.VideoID+"-summary", "md"))
	if err := os.WriteFile(summaryPath, []byte(renderSummary(result)), 0644); err != nil {
		return "", fmt.Errorf("failed to save summary: %w", err)
	}
	helpers.PrintSuccess("Saved summary to: %s", summaryPath)

	return jsonPath, nil
}

// renderSummary renders a markdown summary of the analysis
func renderSummary(result *models.AnalysisResult) string {
	var summary strings.Builder

	summary.WriteString(fmt.Sprintf("# Comment threads for %s\n\n", result.VideoID))
	summary.WriteString(fmt.Sprintf("**Total comments:** %d\n", result.Stats.Total))
	summary.WriteString(fmt.Sprintf("**Filtered out:** %d\n", result.Stats.Filtered))
	summary.WriteString(fmt.Sprintf("**Analyzed:** %d\n", result.Stats.Analyzed))
	summary.WriteString(fmt.Sprintf("**Batches:** %d (%d failed)\n\n", result.TotalBatches, result.FailedBatches))

	for i, category := range result.Categories {
		summary.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, category.CategoryTitle))
		summary.WriteString(fmt.Sprintf("%s\n\n", category.Summary))
		for _, comment := range category.Comments {
			summary.WriteString(fmt.Sprintf("- **%s:** %s\n", comment.Author, strings.ReplaceAll(comment.Text, "\n", " ")))
		}
		summary.WriteString("\n")
	}

	return summary.String()
}

func truncate(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
