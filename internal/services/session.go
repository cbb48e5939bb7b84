package services

import (
	"sync/atomic"
	"time"

	"comment-digest/internal/models"

	"github.com/google/uuid"
)

// Session holds the state of one analysis run. It is created when the run
// starts and dropped when the run ends or a newer run supersedes it.
type Session struct {
	ID         string
	Generation uint64
	Request    models.AnalysisRequest
	APIKey     string
	StartedAt  time.Time

	merger  *ResultMerger
	tracker *ProgressTracker
	hints   atomic.Pointer[[]string]
	state   models.RunState
}

func newSession(generation uint64, req models.AnalysisRequest, apiKey string) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		Generation: generation,
		Request:    req,
		APIKey:     apiKey,
		StartedAt:  time.Now(),
		merger:     NewResultMerger(),
		tracker:    NewProgressTracker(0, 0),
		state:      models.StateIdle,
	}
	s.hints.Store(&[]string{})
	return s
}

// State returns the current run state
func (s *Session) State() models.RunState {
	return s.state
}

// Hints returns the latest snapshot of existing category titles. Safe to call
// from batch workers while the consumer publishes new snapshots.
func (s *Session) Hints() []string {
	return *s.hints.Load()
}

func (s *Session) publishHints(titles []string) {
	s.hints.Store(&titles)
}

// sessionRegistry hands out run generations. Only the newest run is current.
type sessionRegistry struct {
	generation atomic.Uint64
}

func (r *sessionRegistry) begin(req models.AnalysisRequest, apiKey string) *Session {
	return newSession(r.generation.Add(1), req, apiKey)
}

func (r *sessionRegistry) isCurrent(s *Session) bool {
	return r.generation.Load() == s.Generation
}
