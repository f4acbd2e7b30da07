package exercise

import (
	"math"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCounter() (*Counter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	return NewCounter(DefaultThresholds(), WithClock(clock.Now)), clock
}

var (
	straight  = LegAngles{Knee: 178, Hip: 175}
	qualified = LegAngles{Knee: 75, Hip: 170}

	rightOnly = JointAngles{Right: qualified, Left: straight}
	leftOnly  = JointAngles{Right: straight, Left: qualified}
	both      = JointAngles{Right: qualified, Left: qualified}
	neither   = JointAngles{Right: straight, Left: straight}
)

func TestNewCounter(t *testing.T) {
	c, clock := newTestCounter()

	state := c.State()
	if state.Count != 0 {
		t.Errorf("expected count 0, got %d", state.Count)
	}
	if state.LastSide != SideNone {
		t.Errorf("expected no last side, got %s", state.LastSide)
	}
	if state.Feedback != FeedbackInitial {
		t.Errorf("expected feedback %q, got %q", FeedbackInitial, state.Feedback)
	}
	if !state.LastJump.Equal(clock.t) {
		t.Errorf("expected timer to start at construction, got %v", state.LastJump)
	}
}

func TestCounter_SameSideNeverCounts(t *testing.T) {
	c, clock := newTestCounter()

	for i := 0; i < 3; i++ {
		c.Update(rightOnly)
		clock.Advance(500 * time.Millisecond)
		c.Update(neither)
		clock.Advance(500 * time.Millisecond)
	}

	if c.Count() != 0 {
		t.Errorf("expected count 0 after R,R,R, got %d", c.Count())
	}
	if c.LastSide() != SideRight {
		t.Errorf("expected last side right, got %s", c.LastSide())
	}
	if c.Feedback() != FeedbackInitial {
		t.Errorf("expected feedback unchanged, got %q", c.Feedback())
	}
}

func TestCounter_AlternationCounts(t *testing.T) {
	c, clock := newTestCounter()

	sequence := []JointAngles{rightOnly, leftOnly, rightOnly, leftOnly}
	wantCounts := []int{0, 1, 2, 3}

	for i, angles := range sequence {
		events := c.Update(angles)
		if len(events) != 1 {
			t.Fatalf("step %d: expected 1 event, got %d", i, len(events))
		}
		if events[0].Count != wantCounts[i] {
			t.Errorf("step %d: event count = %d, want %d", i, events[0].Count, wantCounts[i])
		}
		if events[0].Counted != (i > 0) {
			t.Errorf("step %d: counted = %v, want %v", i, events[0].Counted, i > 0)
		}
		clock.Advance(time.Second)
	}

	if c.Count() != 3 {
		t.Errorf("expected count 3 after R,L,R,L, got %d", c.Count())
	}
	if c.Feedback() != FeedbackJump {
		t.Errorf("expected feedback %q, got %q", FeedbackJump, c.Feedback())
	}
}

func TestCounter_HeldPositionDoesNotRetrigger(t *testing.T) {
	c, _ := newTestCounter()

	c.Update(rightOnly)
	c.Update(leftOnly)
	for i := 0; i < 30; i++ {
		if events := c.Update(leftOnly); len(events) != 0 {
			t.Fatalf("frame %d: held position fired %d events", i, len(events))
		}
	}

	if c.Count() != 1 {
		t.Errorf("expected count 1, got %d", c.Count())
	}
}

func TestCounter_NoQualifyingFramesKeepState(t *testing.T) {
	c, clock := newTestCounter()
	c.Update(rightOnly)
	c.Update(leftOnly)
	before := c.State()

	for i := 0; i < 10; i++ {
		clock.Advance(100 * time.Millisecond)
		c.Update(neither)
	}

	after := c.State()
	if after != before {
		t.Errorf("state changed without qualifying frames: before %+v, after %+v", before, after)
	}
}

func TestCounter_CountIsMonotonicAndAlternates(t *testing.T) {
	c, clock := newTestCounter()

	frames := []JointAngles{rightOnly, rightOnly, neither, leftOnly, leftOnly, both, neither, rightOnly, leftOnly, leftOnly, rightOnly}
	prevCount := 0
	var prevCountedSide Side

	for i, f := range frames {
		for _, ev := range c.Update(f) {
			if ev.Counted {
				if ev.Side == prevCountedSide {
					t.Errorf("frame %d: two consecutive reps triggered by %s", i, ev.Side)
				}
				prevCountedSide = ev.Side
			}
		}
		if c.Count() < prevCount {
			t.Fatalf("frame %d: count decreased from %d to %d", i, prevCount, c.Count())
		}
		prevCount = c.Count()
		clock.Advance(200 * time.Millisecond)
	}
}

func TestCounter_SimultaneousBothSides(t *testing.T) {
	t.Run("from fresh state right establishes and left counts", func(t *testing.T) {
		c, _ := newTestCounter()

		events := c.Update(both)

		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].Side != SideRight || events[0].Counted {
			t.Errorf("first event = %+v, want uncounted right", events[0])
		}
		if events[1].Side != SideLeft || !events[1].Counted {
			t.Errorf("second event = %+v, want counted left", events[1])
		}
		if c.Count() != 1 || c.LastSide() != SideLeft {
			t.Errorf("expected count 1 and last side left, got %d/%s", c.Count(), c.LastSide())
		}
	})

	t.Run("after left only the right side fires", func(t *testing.T) {
		c, _ := newTestCounter()
		c.Update(leftOnly)

		events := c.Update(both)

		if len(events) != 2 {
			t.Fatalf("expected right then left to fire, got %d events", len(events))
		}
		if c.Count() != 2 {
			t.Errorf("expected count 2, got %d", c.Count())
		}
	})

	t.Run("after right only the left side fires", func(t *testing.T) {
		c, _ := newTestCounter()
		c.Update(rightOnly)

		events := c.Update(both)

		if len(events) != 1 || events[0].Side != SideLeft {
			t.Fatalf("expected only left to fire, got %+v", events)
		}
		if c.Count() != 1 {
			t.Errorf("expected count 1, got %d", c.Count())
		}
	})
}

func TestCounter_NaNAnglesFailClosed(t *testing.T) {
	c, _ := newTestCounter()
	nan := LegAngles{Knee: math.NaN(), Hip: math.NaN()}

	events := c.Update(JointAngles{Right: nan, Left: nan})

	if len(events) != 0 {
		t.Errorf("expected no events for NaN angles, got %d", len(events))
	}
	if c.LastSide() != SideNone {
		t.Errorf("expected last side none, got %s", c.LastSide())
	}
}

func TestCounter_Progress(t *testing.T) {
	c, clock := newTestCounter()

	if got := c.Progress(); got != 0 {
		t.Errorf("expected progress 0 at start, got %f", got)
	}

	clock.Advance(time.Second)
	if got := c.Progress(); math.Abs(got-0.5) > tolerance {
		t.Errorf("expected progress 0.5 after 1s, got %f", got)
	}

	c.Update(rightOnly)
	if got := c.Progress(); got != 0 {
		t.Errorf("expected progress 0 right after a qualifying event, got %f", got)
	}

	clock.Advance(1500 * time.Millisecond)
	if got := c.Progress(); math.Abs(got-0.75) > tolerance {
		t.Errorf("expected progress 0.75 after 1.5s, got %f", got)
	}

	clock.Advance(500 * time.Millisecond)
	if got := c.Progress(); got != 1 {
		t.Errorf("expected progress 1 at 2s, got %f", got)
	}

	clock.Advance(time.Minute)
	if got := c.Progress(); got != 1 {
		t.Errorf("expected progress clamped to 1, got %f", got)
	}

	if got := c.ProgressAt(clock.t.Add(-time.Hour)); got != 0 {
		t.Errorf("expected progress 0 for a time before the last event, got %f", got)
	}
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Thresholds)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Thresholds) {}},
		{name: "zero knee", mutate: func(t *Thresholds) { t.KneeMaxAngle = 0 }, wantErr: true},
		{name: "knee above 180", mutate: func(t *Thresholds) { t.KneeMaxAngle = 181 }, wantErr: true},
		{name: "negative hip", mutate: func(t *Thresholds) { t.HipMinAngle = -1 }, wantErr: true},
		{name: "zero window", mutate: func(t *Thresholds) { t.ProgressWindow = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)

			if err := th.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSide_String(t *testing.T) {
	if SideNone.String() != "none" || SideLeft.String() != "left" || SideRight.String() != "right" {
		t.Errorf("unexpected side names: %s %s %s", SideNone, SideLeft, SideRight)
	}
}
