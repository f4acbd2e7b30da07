package app

import (
	"time"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/google/uuid"
)

// Session holds all state of one run. It is created once per process and
// never persisted.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time
	Counter   *exercise.Counter

	// Frames counts processed frames, DetectedFrames those with a body.
	Frames         int
	DetectedFrames int
}

// NewSession starts a session with a fresh counter.
func NewSession(t exercise.Thresholds, opts ...exercise.Option) *Session {
	return &Session{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Counter:   exercise.NewCounter(t, opts...),
	}
}

// Summary is a snapshot of a session for logging and display.
type Summary struct {
	ID             string
	Duration       time.Duration
	Reps           int
	LastSide       exercise.Side
	Frames         int
	DetectedFrames int
}

// Summary returns the session totals as of now.
func (s *Session) Summary() Summary {
	return Summary{
		ID:             s.ID.String(),
		Duration:       time.Since(s.StartedAt).Round(time.Millisecond),
		Reps:           s.Counter.Count(),
		LastSide:       s.Counter.LastSide(),
		Frames:         s.Frames,
		DetectedFrames: s.DetectedFrames,
	}
}
