package detector

import "gocv.io/x/gocv"

// Detector defines the interface for body pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected pose.
	// Returns a nil pose if no body is detected.
	Detect(frame *gocv.Mat) (*Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
// The fields map one to one onto the MediaPipe Pose solution options.
type Config struct {
	// StaticImageMode treats every frame as an unrelated image (no tracking).
	StaticImageMode bool

	// ModelComplexity selects the landmark model (0, 1 or 2).
	ModelComplexity int

	// SmoothLandmarks filters landmarks across frames to reduce jitter.
	SmoothLandmarks bool

	// EnableSegmentation additionally produces a segmentation mask.
	EnableSegmentation bool

	// SmoothSegmentation filters the segmentation mask across frames.
	SmoothSegmentation bool

	// MinDetectionConf is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// PythonPath overrides the interpreter used for the pose service.
	PythonPath string

	// ScriptPath overrides the location of pose_service.py.
	ScriptPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		StaticImageMode:    false,
		ModelComplexity:    1,
		SmoothLandmarks:    true,
		EnableSegmentation: false,
		SmoothSegmentation: true,
		MinDetectionConf:   0.5,
		MinTrackingConf:    0.5,
	}
}
