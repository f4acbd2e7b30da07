// Package display shows annotated frames and reads keyboard input.
package display

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// NoKey is returned by PollKey when no key was pressed.
const NoKey = -1

// Display shows frames and polls for a key press.
type Display interface {
	Show(frame *gocv.Mat)
	// PollKey waits up to wait for a key and returns its code, or NoKey.
	PollKey(wait time.Duration) int
	Close() error
}

// Window is a native OpenCV window.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

func (w *Window) Show(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	w.win.IMShow(*frame)
}

// PollKey pumps the window event loop. Waits below one millisecond are
// rounded up since WaitKey(0) blocks forever.
func (w *Window) PollKey(wait time.Duration) int {
	ms := int(wait / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	key := w.win.WaitKey(ms)
	if key < 0 {
		return NoKey
	}
	return key & 0xFF
}

func (w *Window) Close() error {
	return w.win.Close()
}

// Headless discards frames. PollKey only paces the loop.
type Headless struct{}

func (Headless) Show(*gocv.Mat) {}

func (Headless) PollKey(wait time.Duration) int {
	if wait > 0 {
		time.Sleep(wait)
	}
	return NoKey
}

func (Headless) Close() error { return nil }

// MockDisplay records shown frames and replays a scripted key sequence.
type MockDisplay struct {
	mu     sync.Mutex
	keys   []int
	shown  int
	polls  int
	closed bool
}

// NewMockDisplay returns a display that answers PollKey with keys in
// order, then NoKey.
func NewMockDisplay(keys ...int) *MockDisplay {
	return &MockDisplay{keys: keys}
}

// QuitAfter returns a display that presses quit on poll n (1-based).
func QuitAfter(n int, quit byte) *MockDisplay {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = NoKey
	}
	if n > 0 {
		keys[n-1] = int(quit)
	}
	return NewMockDisplay(keys...)
}

func (d *MockDisplay) Show(frame *gocv.Mat) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown++
}

func (d *MockDisplay) PollKey(time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.polls++
	if len(d.keys) == 0 {
		return NoKey
	}
	key := d.keys[0]
	d.keys = d.keys[1:]
	return key
}

func (d *MockDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Shown returns how many frames were shown.
func (d *MockDisplay) Shown() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown
}

// Polls returns how many times PollKey was called.
func (d *MockDisplay) Polls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

// Closed reports whether Close was called.
func (d *MockDisplay) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
