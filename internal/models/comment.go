package models

import "time"

// Comment represents a single video comment
type Comment struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Replies []Comment `json:"replies,omitempty"`
}

// Category represents a named, summarized group of comments
type Category struct {
	ID            string    `json:"id"`
	CategoryTitle string    `json:"categoryTitle"`
	Summary       string    `json:"summary"`
	Comments      []Comment `json:"comments"`
}

// ProposedComment is a comment reference as returned by the categorization oracle
type ProposedComment struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

// ProposedCategory is a category proposal as returned by the categorization oracle
type ProposedCategory struct {
	CategoryTitle string            `json:"categoryTitle"`
	Summary       string            `json:"summary"`
	Comments      []ProposedComment `json:"comments"`
}

// Batch is a bounded slice of filtered comments sent to the oracle in one request.
// Index is 1-based.
type Batch struct {
	Index    int
	Comments []Comment
}

// BatchResult is emitted once per batch, whether it succeeded or failed
type BatchResult struct {
	Index      int
	Size       int
	Categories []ProposedCategory
	Err        error
	Duration   time.Duration
}

// CategorizationRequest holds everything the oracle needs for one batch
type CategorizationRequest struct {
	TargetLanguage string
	ExistingTitles []string
	Batch          Batch
	TotalBatches   int
}

// ProgressUpdate is recomputed after every batch completion
type ProgressUpdate struct {
	Processed    int      `json:"processed"`
	Total        int      `json:"total"`
	CurrentBatch int      `json:"currentBatch"`
	TotalBatches int      `json:"totalBatches"`
	ETASeconds   *float64 `json:"etaSeconds"`
}

// AnalysisStats summarizes the filtering step. Total == Filtered + Analyzed.
type AnalysisStats struct {
	Total    int `json:"total"`
	Filtered int `json:"filtered"`
	Analyzed int `json:"analyzed"`
}

// RunState is the lifecycle state of an analysis run
type RunState string

const (
	StateIdle             RunState = "idle"
	StateFetching         RunState = "fetching"
	StateFiltering        RunState = "filtering"
	StateAnalyzing        RunState = "analyzing"
	StateComplete         RunState = "complete"
	StateError            RunState = "error"
	StateNeedsCredentials RunState = "needs_credentials"
)

// AnalysisUpdate is delivered to the caller as the run progresses
type AnalysisUpdate struct {
	RunID      string         `json:"run_id"`
	State      RunState       `json:"state"`
	Categories []Category     `json:"categories,omitempty"`
	Progress   ProgressUpdate `json:"progress"`
	Stats      *AnalysisStats `json:"stats,omitempty"`
}

// AnalysisRequest describes one analysis run
type AnalysisRequest struct {
	VideoID        string
	MaxComments    int
	TargetLanguage string
}

// AnalysisResult represents the analysis output
type AnalysisResult struct {
	RunID         string        `json:"run_id"`
	VideoID       string        `json:"video_id"`
	Language      string        `json:"language"`
	Categories    []Category    `json:"categories"`
	Stats         AnalysisStats `json:"stats"`
	TotalBatches  int           `json:"total_batches"`
	FailedBatches int           `json:"failed_batches"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
}
