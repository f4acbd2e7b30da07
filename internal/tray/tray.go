// Package tray provides a system tray menu showing the live rep count.
package tray

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/getlantern/systray"
)

const (
	titleCounting = "● Counting"
	titlePaused   = "○ Paused"
)

// Tray is the system tray surface. Its setters may be called from any
// goroutine.
type Tray struct {
	logger   *slog.Logger
	onToggle func(enabled bool)
	onQuit   func()
	quit     func()

	mu       sync.RWMutex
	enabled  bool
	reps     int
	lastSide exercise.Side

	// Menu items stored for later updates
	menuReps   *systray.MenuItem
	menuLast   *systray.MenuItem
	menuToggle *systray.MenuItem
}

// New creates a Tray with counting enabled.
func New(logger *slog.Logger) *Tray {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tray{
		logger:  logger,
		quit:    systray.Quit,
		enabled: true,
	}
}

// OnToggle sets the callback invoked when counting is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback invoked when Quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray event loop on the calling goroutine and blocks until
// Quit. It must be called from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Stop ends the tray event loop.
func (t *Tray) Stop() {
	t.quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("repcount")
	systray.SetTooltip("Squat jump counter")

	t.mu.Lock()
	t.menuReps = systray.AddMenuItem(repsTitle(t.reps), "Completed repetitions")
	t.menuReps.Disable()
	t.menuLast = systray.AddMenuItem(lastTitle(t.lastSide), "Leg of the last qualifying jump")
	t.menuLast.Disable()
	systray.AddSeparator()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume counting")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit repcount")
	toggle := t.menuToggle
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-toggle.ClickedCh:
				t.handleToggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.logger.Debug("tray exited")
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	t.logger.Info("counting toggled", "enabled", enabled)

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	t.quit()
}

// SetRep updates the count and last side shown in the menu.
func (t *Tray) SetRep(ev exercise.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reps = ev.Count
	t.lastSide = ev.Side
	if t.menuReps != nil {
		t.menuReps.SetTitle(repsTitle(t.reps))
	}
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(t.lastSide))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Reps returns the last count reported through SetRep.
func (t *Tray) Reps() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reps
}

func repsTitle(n int) string {
	return fmt.Sprintf("Reps: %d", n)
}

func lastTitle(side exercise.Side) string {
	return "Last: " + side.String()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return titleCounting
	}
	return titlePaused
}
