// Package app wires the camera, pose detector, rep counter, renderer and
// display into the squat jump counting loop.
package app

import (
	"log/slog"
	"sync"

	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/config"
	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/display"
	"github.com/ayusman/repcount/internal/exercise"
)

// RepFunc is called for every counted repetition.
type RepFunc func(ev exercise.Event)

// App is the squat jump counter.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	session  *Session
	camera   capture.Camera
	detector detector.Detector
	display  display.Display
	motion   *capture.MotionGate

	mu      sync.RWMutex
	enabled bool
	onRep   RepFunc
}

// New creates an App from cfg. The display is opened when Run starts unless
// one was set with SetDisplay.
func New(cfg *config.Config, logger *slog.Logger, opts ...exercise.Option) *App {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		session: NewSession(cfg.Thresholds(), opts...),
		camera:  capture.NewCamera(cfg.CaptureConfig()),
		enabled: true,
	}

	if cfg.Motion.Enabled {
		a.motion = capture.NewMotionGate(cfg.Motion.Threshold, cfg.Motion.Hold)
	}

	// Try MediaPipe first, fall back to mock detector
	if cfg.Detector.Backend == config.BackendMock {
		a.detector = detector.NewMockDetector()
		logger.Info("using mock pose detector")
	} else if mp, err := detector.NewMediaPipeDetector(cfg.DetectorConfig(), logger); err == nil {
		a.detector = mp
		logger.Info("using MediaPipe pose detection")
	} else {
		logger.Warn("MediaPipe not available, using mock detector", "error", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled pauses or resumes counting. Frames are still shown while
// paused and the counter keeps its state.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether counting is active.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnRep registers the callback for counted repetitions. It runs on the
// loop goroutine.
func (a *App) OnRep(fn RepFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onRep = fn
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the capture source.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDisplay replaces the output window.
func (a *App) SetDisplay(d display.Display) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.display = d
}

// Session returns the current session. Only read it from the loop
// goroutine or after Run returned.
func (a *App) Session() *Session {
	return a.session
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

func (a *App) openDisplay() display.Display {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.display == nil {
		if a.cfg.Display.Enabled {
			a.display = display.NewWindow(a.cfg.Display.WindowTitle)
		} else {
			a.display = display.Headless{}
		}
	}
	return a.display
}
