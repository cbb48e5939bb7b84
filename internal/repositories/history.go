package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"comment-digest/internal/models"

	_ "modernc.org/sqlite"
)

// RunSummary is a stored analysis run without its categories
type RunSummary struct {
	RunID         string
	VideoID       string
	Language      string
	StartedAt     time.Time
	FinishedAt    time.Time
	Stats         models.AnalysisStats
	TotalBatches  int
	FailedBatches int
	Categories    int
}

// HistoryRepository persists finished analysis runs in SQLite
type HistoryRepository struct {
	db *sql.DB
}

const createRunsSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	video_id TEXT NOT NULL,
	language TEXT,
	started_at INTEGER,
	finished_at INTEGER,
	total INTEGER,
	filtered INTEGER,
	analyzed INTEGER,
	total_batches INTEGER,
	failed_batches INTEGER,
	category_count INTEGER,
	categories TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_video ON runs(video_id, finished_at);
`

// NewHistoryRepository opens the database at dbPath and creates the schema
func NewHistoryRepository(dbPath string) (*HistoryRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := db.Exec(createRunsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryRepository{db: db}, nil
}

// Close closes the underlying database
func (r *HistoryRepository) Close() error {
	return r.db.Close()
}

// SaveRun stores or replaces a finished run
func (r *HistoryRepository) SaveRun(result *models.AnalysisResult) error {
	categories, err := json.Marshal(result.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO runs (id, video_id, language, started_at, finished_at, total, filtered, analyzed,
			total_batches, failed_batches, category_count, categories)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.VideoID, result.Language,
		result.StartedAt.UnixMilli(), result.FinishedAt.UnixMilli(),
		result.Stats.Total, result.Stats.Filtered, result.Stats.Analyzed,
		result.TotalBatches, result.FailedBatches, len(result.Categories), string(categories),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.RunID, err)
	}
	return nil
}

// ListRuns returns stored runs, newest first. An empty videoID lists all runs.
func (r *HistoryRepository) ListRuns(videoID string, limit int) ([]RunSummary, error) {
	query := `SELECT id, video_id, language, started_at, finished_at, total, filtered, analyzed,
			total_batches, failed_batches, category_count
		FROM runs`
	var args []interface{}
	if videoID != "" {
		query += ` WHERE video_id = ?`
		args = append(args, videoID)
	}
	query += ` ORDER BY finished_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		var started, finished int64
		if err := rows.Scan(&s.RunID, &s.VideoID, &s.Language, &started, &finished,
			&s.Stats.Total, &s.Stats.Filtered, &s.Stats.Analyzed,
			&s.TotalBatches, &s.FailedBatches, &s.Categories); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.StartedAt = time.UnixMilli(started)
		s.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun loads a full run. Returns nil if the run does not exist.
func (r *HistoryRepository) GetRun(runID string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	var started, finished int64
	var categories string

	err := r.db.QueryRow(
		`SELECT id, video_id, language, started_at, finished_at, total, filtered, analyzed,
			total_batches, failed_batches, categories
		 FROM runs WHERE id = ?`, runID,
	).Scan(&result.RunID, &result.VideoID, &result.Language, &started, &finished,
		&result.Stats.Total, &result.Stats.Filtered, &result.Stats.Analyzed,
		&result.TotalBatches, &result.FailedBatches, &categories)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}

	if err := json.Unmarshal([]byte(categories), &result.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories for run %s: %w", runID, err)
	}
	result.StartedAt = time.UnixMilli(started)
	result.FinishedAt = time.UnixMilli(finished)

	return &result, nil
}
