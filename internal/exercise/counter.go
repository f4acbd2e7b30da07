package exercise

import (
	"errors"
	"fmt"
	"time"
)

// Side identifies which leg produced a qualifying event.
type Side int

const (
	// SideNone means no qualifying event has happened yet.
	SideNone Side = iota
	// SideLeft is the leg measured with landmarks 24/26/28.
	SideLeft
	// SideRight is the leg measured with landmarks 23/25/27.
	SideRight
)

// String returns the lowercase side name.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "none"
	}
}

// Feedback texts shown under the counter.
const (
	FeedbackInitial = "Fix position"
	FeedbackJump    = "Jump"
)

// Default thresholds.
const (
	DefaultKneeMaxAngle   = 90.0
	DefaultHipMinAngle    = 150.0
	DefaultProgressWindow = 2 * time.Second
)

// Thresholds configures when a leg qualifies and how fast the progress bar fills.
type Thresholds struct {
	KneeMaxAngle   float64       // knee angle must be at or below this
	HipMinAngle    float64       // hip angle must be at or above this
	ProgressWindow time.Duration // time for the progress bar to fill
}

// DefaultThresholds returns the standard squat jump thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		KneeMaxAngle:   DefaultKneeMaxAngle,
		HipMinAngle:    DefaultHipMinAngle,
		ProgressWindow: DefaultProgressWindow,
	}
}

// Validate reports whether the thresholds are usable.
func (t Thresholds) Validate() error {
	if t.KneeMaxAngle <= 0 || t.KneeMaxAngle > 180 {
		return fmt.Errorf("knee max angle %.1f out of range (0, 180]", t.KneeMaxAngle)
	}
	if t.HipMinAngle < 0 || t.HipMinAngle > 180 {
		return fmt.Errorf("hip min angle %.1f out of range [0, 180]", t.HipMinAngle)
	}
	if t.ProgressWindow <= 0 {
		return errors.New("progress window must be positive")
	}
	return nil
}

// Qualifies reports whether the leg is bent at the knee with the hip extended.
// NaN angles never qualify.
func (t Thresholds) Qualifies(a LegAngles) bool {
	return a.Knee <= t.KneeMaxAngle && a.Hip >= t.HipMinAngle
}

// Event is a qualifying event that changed the counter state.
type Event struct {
	Side    Side
	Counted bool // the event completed a repetition
	Count   int  // count after the event
	At      time.Time
}

// State is a snapshot of the counter.
type State struct {
	Count    int
	LastSide Side
	LastJump time.Time
	Feedback string
}

// Counter is the rep state machine. It only counts a repetition when the
// qualifying side differs from the previous qualifying side.
// A Counter is not safe for concurrent use.
type Counter struct {
	thresholds Thresholds
	now        func() time.Time

	count    int
	lastSide Side
	lastJump time.Time
	feedback string
}

// Option configures a Counter.
type Option func(*Counter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Counter) {
		c.now = now
	}
}

// NewCounter creates a counter with no qualifying side and the timer started now.
func NewCounter(t Thresholds, opts ...Option) *Counter {
	c := &Counter{
		thresholds: t,
		now:        time.Now,
		feedback:   FeedbackInitial,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastJump = c.now()
	return c
}

// Update evaluates one frame of joint angles. The right side is checked
// first and the left side second against the state the right check left
// behind, so a frame in which both legs qualify fires both events.
func (c *Counter) Update(a JointAngles) []Event {
	now := c.now()

	var events []Event
	for _, side := range []Side{SideRight, SideLeft} {
		if ev, ok := c.observe(side, a.For(side), now); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (c *Counter) observe(side Side, a LegAngles, now time.Time) (Event, bool) {
	if c.lastSide == side || !c.thresholds.Qualifies(a) {
		return Event{}, false
	}

	ev := Event{Side: side, At: now}
	if c.lastSide != SideNone {
		c.count++
		c.feedback = FeedbackJump
		ev.Counted = true
	}
	c.lastSide = side
	c.lastJump = now
	ev.Count = c.count
	return ev, true
}

// Count returns the number of completed repetitions.
func (c *Counter) Count() int {
	return c.count
}

// LastSide returns the side of the most recent qualifying event.
func (c *Counter) LastSide() Side {
	return c.lastSide
}

// Feedback returns the feedback text to display.
func (c *Counter) Feedback() string {
	return c.feedback
}

// State returns a snapshot of the counter.
func (c *Counter) State() State {
	return State{
		Count:    c.count,
		LastSide: c.lastSide,
		LastJump: c.lastJump,
		Feedback: c.feedback,
	}
}

// Progress returns the progress bar fraction at the current time.
func (c *Counter) Progress() float64 {
	return c.ProgressAt(c.now())
}

// ProgressAt returns the fraction of the progress window elapsed since the
// last qualifying event, clamped to [0, 1].
func (c *Counter) ProgressAt(now time.Time) float64 {
	elapsed := now.Sub(c.lastJump)
	if elapsed <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(c.thresholds.ProgressWindow)
	if p > 1 {
		return 1
	}
	return p
}
