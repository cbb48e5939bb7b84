package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"comment-digest/internal/config"
	"comment-digest/internal/helpers"
	"comment-digest/internal/models"
	"comment-digest/internal/repositories"
	"comment-digest/internal/services"

	"github.com/spf13/cobra"
)

var (
	configFile string
	historyMax int
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "comment-digest",
		Short: "Comment Digest - AI-powered clustering of video comment sections",
		Long: `Comment Digest fetches the comments of a YouTube video, filters out spam and
low-effort content, and groups the remaining comments into summarized discussion threads.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")

	// Analyze command
	var analyzeCmd = &cobra.Command{
		Use:   "analyze <video-id>",
		Short: "Analyze the comment section of a video",
		Long:  "Fetch, filter and categorize the comments of a video into discussion threads",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	addRunFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)

	// Watch command
	var watchCmd = &cobra.Command{
		Use:   "watch <video-id>",
		Short: "Re-analyze a video on a schedule",
		Long:  "Run the analysis immediately and then on every cron schedule firing until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	addRunFlags(watchCmd)
	watchCmd.Flags().StringP("schedule", "s", "@every 1h", "Cron schedule for re-analysis")
	rootCmd.AddCommand(watchCmd)

	// Show command
	var showCmd = &cobra.Command{
		Use:   "show <analysis-file | run-id>",
		Short: "Display a saved analysis",
		Long:  "Load an analysis JSON file, or a run from history, and display its threads",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	rootCmd.AddCommand(showCmd)

	// History command
	var historyCmd = &cobra.Command{
		Use:   "history [video-id]",
		Short: "List stored analysis runs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVarP(&historyMax, "limit", "n", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		printPipelineError(err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("max-comments", "m", 0, "Maximum number of comments to fetch (default from config)")
	cmd.Flags().StringP("language", "l", "", "Language for thread titles and summaries (default from config)")
	cmd.Flags().Int("batch-size", 0, "Comments per categorization request (default from config)")
	cmd.Flags().Int("concurrency", 0, "Maximum concurrent categorization requests (default from config)")
}

// loadRunConfig loads configuration and applies per-run flag overrides
func loadRunConfig(cmd *cobra.Command, videoID string) (*config.Config, models.AnalysisRequest, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, models.AnalysisRequest{}, fmt.Errorf("failed to load config: %w", err)
	}

	if batchSize, _ := cmd.Flags().GetInt("batch-size"); batchSize > 0 {
		cfg.Processing.BatchSize = batchSize
	}
	if concurrency, _ := cmd.Flags().GetInt("concurrency"); concurrency > 0 {
		cfg.Processing.Concurrency = concurrency
	}

	req := models.AnalysisRequest{
		VideoID:        videoID,
		MaxComments:    cfg.Processing.MaxComments,
		TargetLanguage: cfg.Processing.TargetLanguage,
	}
	if maxComments, _ := cmd.Flags().GetInt("max-comments"); maxComments > 0 {
		req.MaxComments = maxComments
	}
	if language, _ := cmd.Flags().GetString("language"); language != "" {
		req.TargetLanguage = language
	}

	return cfg, req, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, req, err := loadRunConfig(cmd, args[0])
	if err != nil {
		return err
	}

	helpers.PrintTitle("Analyzing Comments")
	helpers.PrintInfo("Video: %s", req.VideoID)
	helpers.PrintInfo("Max comments: %d | Batch size: %d | Concurrency: %d",
		req.MaxComments, cfg.Processing.BatchSize, cfg.Processing.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analysisService := services.NewAnalysisService(cfg)
	result, err := analysisService.Analyze(ctx, req, nil)
	if err != nil {
		return err
	}

	analysisService.DisplayResult(result)

	if _, err := analysisService.SaveAnalysisResult(result, cfg.Processing.OutputDir); err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}

	recordHistory(cfg, result)

	helpers.PrintSuccess("Analysis completed successfully!")
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, req, err := loadRunConfig(cmd, args[0])
	if err != nil {
		return err
	}
	schedule, _ := cmd.Flags().GetString("schedule")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analysisService := services.NewAnalysisService(cfg)
	watchService := services.NewWatchService(analysisService)

	helpers.PrintTitle("Watching Comments")
	return watchService.Watch(ctx, schedule, req, func(result *models.AnalysisResult, err error) {
		if err != nil {
			printPipelineError(err)
			return
		}
		if _, err := analysisService.SaveAnalysisResult(result, cfg.Processing.OutputDir); err != nil {
			helpers.PrintWarning("Failed to save analysis result: %v", err)
		}
		recordHistory(cfg, result)
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	target := args[0]

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var result *models.AnalysisResult
	if _, statErr := os.Stat(target); statErr == nil {
		var loaded models.AnalysisResult
		if err := helpers.LoadJSON(target, &loaded); err != nil {
			return fmt.Errorf("failed to load analysis file: %w", err)
		}
		result = &loaded
	} else {
		result, err = loadFromHistory(cfg, target)
		if err != nil {
			return err
		}
	}

	services.NewAnalysisService(cfg).DisplayResult(result)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.DatabasePath == "" {
		return fmt.Errorf("history is disabled: set storage.database_path in %s", configFile)
	}

	history, err := repositories.NewHistoryRepository(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer history.Close()

	videoID := ""
	if len(args) == 1 {
		videoID = args[0]
	}

	runs, err := history.ListRuns(videoID, historyMax)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		helpers.PrintInfo("No stored runs")
		return nil
	}

	helpers.PrintTitle("Analysis History")
	for _, run := range runs {
		helpers.PrintInfo("%s  %s  %s", run.FinishedAt.Format("2006-01-02 15:04"), run.VideoID, run.RunID)
		helpers.PrintDetail("%d threads | %d analyzed of %d | %d/%d batches failed",
			run.Categories, run.Stats.Analyzed, run.Stats.Total, run.FailedBatches, run.TotalBatches)
	}
	return nil
}

func loadFromHistory(cfg *config.Config, runID string) (*models.AnalysisResult, error) {
	if cfg.Storage.DatabasePath == "" {
		return nil, fmt.Errorf("%s is not a file and history is disabled", runID)
	}

	history, err := repositories.NewHistoryRepository(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer history.Close()

	result, err := history.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("no analysis file or stored run named %s", runID)
	}
	return result, nil
}

func recordHistory(cfg *config.Config, result *models.AnalysisResult) {
	if cfg.Storage.DatabasePath == "" {
		return
	}

	history, err := repositories.NewHistoryRepository(cfg.Storage.DatabasePath)
	if err != nil {
		helpers.PrintWarning("Failed to open history: %v", err)
		return
	}
	defer history.Close()

	if err := history.SaveRun(result); err != nil {
		helpers.PrintWarning("Failed to record run: %v", err)
		return
	}
	helpers.PrintInfo("Recorded run %s in history", result.RunID)
}

// printPipelineError prints an error, adding the stable code when there is one
func printPipelineError(err error) {
	var pipelineErr *models.PipelineError
	if errors.As(err, &pipelineErr) {
		helpers.PrintError("[%s] %s", pipelineErr.Code, pipelineErr.Message)
		if pipelineErr.Err != nil {
			helpers.PrintDetail("%v", pipelineErr.Err)
		}
		return
	}
	helpers.PrintError("Error: %v", err)
}
