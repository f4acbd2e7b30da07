// Package config loads repcount settings from flags, REPCOUNT_ environment
// variables and an optional repcount.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	EnvPrefix  = "REPCOUNT"
	FileName   = "repcount"
	WindowName = "Squat Jump Counter"

	BackendMediaPipe = "mediapipe"
	BackendMock      = "mock"
)

type CameraConfig struct {
	Device int `mapstructure:"device" yaml:"device"`
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
	FPS    int `mapstructure:"fps" yaml:"fps"`
}

type DetectorConfig struct {
	Backend                string  `mapstructure:"backend" yaml:"backend"`
	StaticImageMode        bool    `mapstructure:"static_image_mode" yaml:"static_image_mode"`
	ModelComplexity        int     `mapstructure:"model_complexity" yaml:"model_complexity"`
	SmoothLandmarks        bool    `mapstructure:"smooth_landmarks" yaml:"smooth_landmarks"`
	EnableSegmentation     bool    `mapstructure:"enable_segmentation" yaml:"enable_segmentation"`
	SmoothSegmentation     bool    `mapstructure:"smooth_segmentation" yaml:"smooth_segmentation"`
	MinDetectionConfidence float64 `mapstructure:"min_detection_confidence" yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `mapstructure:"min_tracking_confidence" yaml:"min_tracking_confidence"`
	Python                 string  `mapstructure:"python" yaml:"python"`
	Script                 string  `mapstructure:"script" yaml:"script"`
}

type CounterConfig struct {
	KneeMaxAngle   float64       `mapstructure:"knee_max_angle" yaml:"knee_max_angle"`
	HipMinAngle    float64       `mapstructure:"hip_min_angle" yaml:"hip_min_angle"`
	ProgressWindow time.Duration `mapstructure:"progress_window" yaml:"progress_window"`
}

type DisplayConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	WindowTitle   string `mapstructure:"window_title" yaml:"window_title"`
	WaitKeyMS     int    `mapstructure:"wait_key_ms" yaml:"wait_key_ms"`
	QuitKey       string `mapstructure:"quit_key" yaml:"quit_key"`
	DrawSkeleton  bool   `mapstructure:"draw_skeleton" yaml:"draw_skeleton"`
	DrawLandmarks bool   `mapstructure:"draw_landmarks" yaml:"draw_landmarks"`
	DrawAngles    bool   `mapstructure:"draw_angles" yaml:"draw_angles"`
}

type MotionConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Threshold float64       `mapstructure:"threshold" yaml:"threshold"`
	Hold      time.Duration `mapstructure:"hold" yaml:"hold"`
}

type TrayConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Config is the effective application configuration.
type Config struct {
	Camera   CameraConfig   `mapstructure:"camera" yaml:"camera"`
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector"`
	Counter  CounterConfig  `mapstructure:"counter" yaml:"counter"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Motion   MotionConfig   `mapstructure:"motion" yaml:"motion"`
	Tray     TrayConfig     `mapstructure:"tray" yaml:"tray"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

func setDefaults(v *viper.Viper) {
	cam := capture.DefaultConfig()
	v.SetDefault("camera.device", cam.Device)
	v.SetDefault("camera.width", cam.Width)
	v.SetDefault("camera.height", cam.Height)
	v.SetDefault("camera.fps", cam.FPS)

	det := detector.DefaultConfig()
	v.SetDefault("detector.backend", BackendMediaPipe)
	v.SetDefault("detector.static_image_mode", det.StaticImageMode)
	v.SetDefault("detector.model_complexity", det.ModelComplexity)
	v.SetDefault("detector.smooth_landmarks", det.SmoothLandmarks)
	v.SetDefault("detector.enable_segmentation", det.EnableSegmentation)
	v.SetDefault("detector.smooth_segmentation", det.SmoothSegmentation)
	v.SetDefault("detector.min_detection_confidence", det.MinDetectionConf)
	v.SetDefault("detector.min_tracking_confidence", det.MinTrackingConf)
	v.SetDefault("detector.python", "")
	v.SetDefault("detector.script", "")

	th := exercise.DefaultThresholds()
	v.SetDefault("counter.knee_max_angle", th.KneeMaxAngle)
	v.SetDefault("counter.hip_min_angle", th.HipMinAngle)
	v.SetDefault("counter.progress_window", th.ProgressWindow)

	v.SetDefault("display.enabled", true)
	v.SetDefault("display.window_title", WindowName)
	v.SetDefault("display.wait_key_ms", 10)
	v.SetDefault("display.quit_key", "q")
	v.SetDefault("display.draw_skeleton", false)
	v.SetDefault("display.draw_landmarks", false)
	v.SetDefault("display.draw_angles", true)

	v.SetDefault("motion.enabled", false)
	v.SetDefault("motion.threshold", capture.DefaultMotionThreshold)
	v.SetDefault("motion.hold", capture.DefaultMotionHold)

	v.SetDefault("tray.enabled", false)
	v.SetDefault("log.level", "info")
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"camera":          "camera.device",
	"width":           "camera.width",
	"height":          "camera.height",
	"fps":             "camera.fps",
	"backend":         "detector.backend",
	"python":          "detector.python",
	"script":          "detector.script",
	"knee-max":        "counter.knee_max_angle",
	"hip-min":         "counter.hip_min_angle",
	"progress-window": "counter.progress_window",
	"headless":        "display.enabled",
	"skeleton":        "display.draw_skeleton",
	"landmarks":       "display.draw_landmarks",
	"angles":          "display.draw_angles",
	"motion":          "motion.enabled",
	"tray":            "tray.enabled",
	"log-level":       "log.level",
}

// RegisterFlags adds the repcount flags to fs. Flag defaults are only used
// for help output; unset flags never override file or environment values.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (default: search for repcount.yaml)")
	fs.Bool("print-config", false, "print the effective configuration as YAML and exit")

	fs.Int("camera", capture.DefaultDevice, "camera device index")
	fs.Int("width", capture.DefaultWidth, "requested frame width")
	fs.Int("height", capture.DefaultHeight, "requested frame height")
	fs.Int("fps", capture.DefaultFPS, "requested frame rate")
	fs.String("backend", BackendMediaPipe, "pose backend: mediapipe or mock")
	fs.String("python", "", "python interpreter for the pose service")
	fs.String("script", "", "path to pose_service.py")
	fs.Float64("knee-max", exercise.DefaultKneeMaxAngle, "knee angle at or below which a leg is tucked")
	fs.Float64("hip-min", exercise.DefaultHipMinAngle, "hip angle at or above which the torso is upright")
	fs.Duration("progress-window", exercise.DefaultProgressWindow, "time for the progress bar to fill")
	fs.Bool("headless", false, "run without a window")
	fs.Bool("skeleton", false, "draw the pose skeleton")
	fs.Bool("landmarks", false, "draw landmark dots")
	fs.Bool("angles", true, "draw knee and hip angles (--angles=false to hide)")
	fs.Bool("motion", false, "skip pose detection on still frames")
	fs.Bool("tray", false, "show a system tray icon")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
}

// Load builds the configuration. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.repcount")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if fs != nil {
		if err := applyFlags(v, fs); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		// --headless is the inverse of display.enabled.
		if name == "headless" {
			if f.Changed {
				headless, err := fs.GetBool(name)
				if err != nil {
					return err
				}
				v.Set(key, !headless)
			}
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Camera.Device < 0 {
		bad("camera.device must not be negative, got %d", c.Camera.Device)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		bad("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		bad("camera.fps must be positive, got %d", c.Camera.FPS)
	}

	switch c.Detector.Backend {
	case BackendMediaPipe, BackendMock:
	default:
		bad("detector.backend must be %q or %q, got %q", BackendMediaPipe, BackendMock, c.Detector.Backend)
	}
	if c.Detector.ModelComplexity < 0 || c.Detector.ModelComplexity > 2 {
		bad("detector.model_complexity must be 0, 1 or 2, got %d", c.Detector.ModelComplexity)
	}
	for key, conf := range map[string]float64{
		"detector.min_detection_confidence": c.Detector.MinDetectionConfidence,
		"detector.min_tracking_confidence":  c.Detector.MinTrackingConfidence,
	} {
		if conf < 0 || conf > 1 {
			bad("%s must be within [0, 1], got %v", key, conf)
		}
	}

	if err := c.Thresholds().Validate(); err != nil {
		bad("counter: %v", err)
	}

	if c.Display.WaitKeyMS < 1 {
		bad("display.wait_key_ms must be at least 1, got %d", c.Display.WaitKeyMS)
	}
	if len(c.Display.QuitKey) != 1 {
		bad("display.quit_key must be a single character, got %q", c.Display.QuitKey)
	}

	if c.Motion.Threshold <= 0 || c.Motion.Threshold > 100 {
		bad("motion.threshold must be within (0, 100], got %v", c.Motion.Threshold)
	}
	if c.Motion.Hold < 0 {
		bad("motion.hold must not be negative, got %v", c.Motion.Hold)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		bad("log.level: %v", err)
	}

	return errors.Join(errs...)
}

// Thresholds returns the counter thresholds.
func (c *Config) Thresholds() exercise.Thresholds {
	return exercise.Thresholds{
		KneeMaxAngle:   c.Counter.KneeMaxAngle,
		HipMinAngle:    c.Counter.HipMinAngle,
		ProgressWindow: c.Counter.ProgressWindow,
	}
}

// CaptureConfig returns the capture device settings.
func (c *Config) CaptureConfig() capture.Config {
	return capture.Config{
		Device: c.Camera.Device,
		Width:  c.Camera.Width,
		Height: c.Camera.Height,
		FPS:    c.Camera.FPS,
	}
}

// DetectorConfig returns the MediaPipe options.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		StaticImageMode:    c.Detector.StaticImageMode,
		ModelComplexity:    c.Detector.ModelComplexity,
		SmoothLandmarks:    c.Detector.SmoothLandmarks,
		EnableSegmentation: c.Detector.EnableSegmentation,
		SmoothSegmentation: c.Detector.SmoothSegmentation,
		MinDetectionConf:   c.Detector.MinDetectionConfidence,
		MinTrackingConf:    c.Detector.MinTrackingConfidence,
		PythonPath:         c.Detector.Python,
		ScriptPath:         c.Detector.Script,
	}
}

// QuitKey returns the key code that stops the loop.
func (c *Config) QuitKey() byte {
	if c.Display.QuitKey == "" {
		return 'q'
	}
	return c.Display.QuitKey[0]
}

// WaitKey returns the per-frame key poll wait.
func (c *Config) WaitKey() time.Duration {
	return time.Duration(c.Display.WaitKeyMS) * time.Millisecond
}

// LogLevel returns the parsed log level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// WriteYAML writes the configuration as YAML.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
