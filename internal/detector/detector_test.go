package detector

import (
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"gocv.io/x/gocv"
)

func TestPose_ToPixels(t *testing.T) {
	t.Run("scales normalized coordinates by frame size", func(t *testing.T) {
		pose := &Pose{}
		pose.Points[LeftHip] = Point{X: 0.5, Y: 0.25}
		pose.Points[RightHip] = Point{X: 1.0, Y: 1.0}

		px := pose.ToPixels(640, 480)

		if px[LeftHip] != image.Pt(320, 120) {
			t.Errorf("expected left hip at (320,120), got %v", px[LeftHip])
		}
		if px[RightHip] != image.Pt(640, 480) {
			t.Errorf("expected right hip at (640,480), got %v", px[RightHip])
		}
	})

	t.Run("truncates toward zero", func(t *testing.T) {
		pose := &Pose{}
		pose.Points[Nose] = Point{X: 0.1999, Y: 0.0021}

		px := pose.ToPixels(100, 1000)

		if px[Nose] != image.Pt(19, 2) {
			t.Errorf("expected (19,2), got %v", px[Nose])
		}
	})

	t.Run("nil pose yields zero points", func(t *testing.T) {
		var pose *Pose
		px := pose.ToPixels(640, 480)

		for i, p := range px {
			if p != (image.Point{}) {
				t.Fatalf("landmark %d: expected zero point, got %v", i, p)
			}
		}
	})
}

func TestConnections_InRange(t *testing.T) {
	for _, c := range Connections {
		if c[0] < 0 || c[0] >= NumLandmarks || c[1] < 0 || c[1] >= NumLandmarks {
			t.Errorf("connection %v references an unknown landmark", c)
		}
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns no body by default", func(t *testing.T) {
		mock := NewMockDetector()

		pose, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if pose != nil {
			t.Errorf("expected nil pose, got %v", pose)
		}
	})

	t.Run("returns configured pose", func(t *testing.T) {
		mock := NewMockDetector()
		want := StandingPose()
		mock.SetPose(want)

		pose, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if pose != want {
			t.Error("expected the configured pose")
		}
	})

	t.Run("plays scripted sequence then falls back", func(t *testing.T) {
		mock := NewMockDetector()
		fallback := StandingPose()
		mock.SetPose(fallback)
		right := RightJumpPose()
		mock.SetSequence([]*Pose{right, nil})

		first, _ := mock.Detect(nil)
		second, _ := mock.Detect(nil)
		third, _ := mock.Detect(nil)

		if first != right {
			t.Error("first call should return the first scripted pose")
		}
		if second != nil {
			t.Error("second call should return no body")
		}
		if third != fallback {
			t.Error("third call should fall back to the fixed pose")
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetPose(StandingPose())

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		pose, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if pose != nil {
			t.Errorf("expected nil pose when error is set, got %v", pose)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPresetPoses(t *testing.T) {
	presets := map[string]*Pose{
		"standing": StandingPose(),
		"right":    RightJumpPose(),
		"left":     LeftJumpPose(),
		"double":   DoubleJumpPose(),
	}

	for name, pose := range presets {
		t.Run(name+" is in frame", func(t *testing.T) {
			for i, p := range pose.Points {
				if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
					t.Errorf("landmark %d out of frame: %+v", i, p)
				}
			}
		})
	}

	t.Run("standing ankles are below knees", func(t *testing.T) {
		p := StandingPose()
		if p.Points[LeftAnkle].Y <= p.Points[LeftKnee].Y {
			t.Error("left ankle should be below left knee")
		}
		if p.Points[RightAnkle].Y <= p.Points[RightKnee].Y {
			t.Error("right ankle should be below right knee")
		}
	})

	t.Run("right jump tucks only landmark 27", func(t *testing.T) {
		p := RightJumpPose()
		if p.Points[LeftAnkle].Y >= p.Points[LeftKnee].Y {
			t.Error("tucked ankle should rise above the knee line")
		}
		if p.Points[RightAnkle] != StandingPose().Points[RightAnkle] {
			t.Error("other leg should stay straight")
		}
	})
}

func TestParseResponse(t *testing.T) {
	full := make([]string, NumLandmarks)
	for i := range full {
		full[i] = fmt.Sprintf(`{"x":%g,"y":0.5,"z":0,"visibility":0.9}`, float64(i)/100)
	}

	tests := []struct {
		name     string
		line     string
		wantPose bool
		wantErr  bool
	}{
		{name: "no body", line: `{"landmarks":[],"score":0}`},
		{name: "missing landmarks key", line: `{}`},
		{name: "full pose", line: `{"landmarks":[` + strings.Join(full, ",") + `],"score":0.8}`, wantPose: true},
		{name: "truncated pose", line: `{"landmarks":[` + full[0] + `],"score":0.8}`, wantErr: true},
		{name: "garbage", line: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pose, err := parseResponse([]byte(tt.line))

			if (err != nil) != tt.wantErr {
				t.Fatalf("parseResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (pose != nil) != tt.wantPose {
				t.Fatalf("parseResponse() pose = %v, wantPose %v", pose, tt.wantPose)
			}
			if pose != nil {
				if pose.Score != 0.8 {
					t.Errorf("expected score 0.8, got %f", pose.Score)
				}
				if pose.Points[10].X != 0.1 {
					t.Errorf("expected landmark 10 x=0.1, got %f", pose.Points[10].X)
				}
			}
		})
	}
}

func TestNewMediaPipeDetector(t *testing.T) {
	t.Run("missing script", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScriptPath = filepath.Join(t.TempDir(), "absent.py")

		_, err := NewMediaPipeDetector(cfg, nil)

		if !errors.Is(err, ErrScriptNotFound) {
			t.Errorf("expected ErrScriptNotFound, got %v", err)
		}
	})

	t.Run("passes model options to the service", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), "pose_service.py")
		if err := os.WriteFile(script, []byte("# stub\n"), 0644); err != nil {
			t.Fatalf("failed to write script: %v", err)
		}

		cfg := DefaultConfig()
		cfg.ScriptPath = script
		cfg.ModelComplexity = 2
		cfg.MinDetectionConf = 0.7

		d, err := NewMediaPipeDetector(cfg, nil)
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}
		defer d.Close()

		args := d.args()
		if args[0] != script {
			t.Errorf("expected script as first argument, got %s", args[0])
		}
		joined := strings.Join(args, " ")
		for _, want := range []string{"--model-complexity=2", "--min-detection-confidence=0.7", "--smooth-landmarks=true"} {
			if !strings.Contains(joined, want) {
				t.Errorf("expected %q in %q", want, joined)
			}
		}
	})
}

func TestMediaPipeDetector_ServiceExit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that starts a subprocess")
	}
	// "true" exits at once, like a pose service that crashed on startup.
	python, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}

	script := filepath.Join(t.TempDir(), "pose_service.py")
	if err := os.WriteFile(script, []byte("# stub\n"), 0644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	cfg := DefaultConfig()
	cfg.ScriptPath = script
	cfg.PythonPath = python

	d, err := NewMediaPipeDetector(cfg, nil)
	if err != nil {
		t.Fatalf("NewMediaPipeDetector() error = %v", err)
	}
	defer d.Close()

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 2; i++ {
		if _, err := d.Detect(&frame); err == nil {
			t.Fatalf("call %d: expected an error from a dead service", i)
		}
		if d.Running() {
			t.Fatalf("call %d: dead service should be torn down for a restart", i)
		}
	}
}
