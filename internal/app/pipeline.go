package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/display"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/render"
	"gocv.io/x/gocv"
)

// Run opens the camera and processes frames until the quit key is pressed,
// ctx is cancelled, or the camera fails. The camera, detector and display
// are closed on return. Quitting and cancellation are not errors.
func (a *App) Run(ctx context.Context) error {
	a.mu.RLock()
	camera, det := a.camera, a.detector
	a.mu.RUnlock()

	defer func() {
		if err := det.Close(); err != nil {
			a.logger.Error("closing detector", "error", err)
		}
		if a.motion != nil {
			a.motion.Close()
		}
	}()

	if err := camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	disp := a.openDisplay()

	defer func() {
		if err := camera.Close(); err != nil {
			a.logger.Error("closing camera", "error", err)
		}
		if err := disp.Close(); err != nil {
			a.logger.Error("closing display", "error", err)
		}
		s := a.session.Summary()
		a.logger.Info("session ended",
			"session", s.ID,
			"reps", s.Reps,
			"frames", s.Frames,
			"detected", s.DetectedFrames,
			"duration", s.Duration,
		)
	}()

	a.logger.Info("session started", "session", a.session.ID)

	quit := int(a.cfg.QuitKey())
	wait := a.cfg.WaitKey()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("context cancelled, stopping")
			return nil
		default:
		}

		frame, err := camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEmptyFrame) {
				a.logger.Debug("skipping empty frame")
				if disp.PollKey(wait) == quit {
					a.logger.Info("quit key pressed")
					return nil
				}
				continue
			}
			return fmt.Errorf("read frame: %w", err)
		}

		a.processFrame(frame, det, disp)
		frame.Close()

		if key := disp.PollKey(wait); key == quit {
			a.logger.Info("quit key pressed")
			return nil
		}
	}
}

// processFrame detects the pose in frame, draws onto it and shows it.
func (a *App) processFrame(frame *gocv.Mat, det detector.Detector, disp display.Display) {
	var pose *detector.Pose
	if a.motion == nil || a.motion.Open(frame) {
		p, err := det.Detect(frame)
		if err != nil {
			a.logger.Warn("pose detection failed", "error", err)
		} else {
			pose = p
		}
	}

	a.ProcessPose(pose, frame.Cols(), frame.Rows(), render.NewMatCanvas(frame))
	disp.Show(frame)
}

// ProcessPose runs one frame step without any I/O: it scales the pose to
// width x height pixels, measures both legs, updates the counter and draws
// the overlays and HUD onto canvas. A nil pose means no body; the counter is
// then left untouched. It returns the qualifying events of the frame.
func (a *App) ProcessPose(pose *detector.Pose, width, height int, canvas render.Canvas) []exercise.Event {
	s := a.session
	s.Frames++

	var events []exercise.Event
	if pose != nil {
		s.DetectedFrames++

		px := pose.ToPixels(width, height)
		angles := exercise.MeasureLegs(px)

		if a.cfg.Display.DrawSkeleton {
			render.Skeleton(canvas, px)
		}
		if a.cfg.Display.DrawLandmarks {
			render.Landmarks(canvas, px)
		}
		if a.cfg.Display.DrawAngles {
			render.LegAngles(canvas, px, exercise.RightLeg, angles.Right)
			render.LegAngles(canvas, px, exercise.LeftLeg, angles.Left)
		}

		if a.IsEnabled() {
			events = s.Counter.Update(angles)
			a.report(events, angles)
		}
	}

	render.HUD(canvas, s.Counter.State(), s.Counter.Progress())
	return events
}

func (a *App) report(events []exercise.Event, angles exercise.JointAngles) {
	a.mu.RLock()
	onRep := a.onRep
	a.mu.RUnlock()

	for _, ev := range events {
		leg := angles.For(ev.Side)
		if !ev.Counted {
			a.logger.Debug("first qualifying position",
				"session", a.session.ID,
				"side", ev.Side,
				"knee", leg.Knee,
				"hip", leg.Hip,
			)
			continue
		}

		a.logger.Info("rep counted",
			"session", a.session.ID,
			"count", ev.Count,
			"side", ev.Side,
		)
		if onRep != nil {
			onRep(ev)
		}
	}
}
