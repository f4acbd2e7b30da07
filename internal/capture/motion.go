package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// BlurKernel is the Gaussian kernel applied before differencing.
	BlurKernel = 21
	// DiffThreshold is the per-pixel intensity change that counts as motion.
	DiffThreshold = 25

	DefaultMotionThreshold = 1.0
	DefaultMotionHold      = 2 * time.Second
)

// MotionGate decides whether a frame is worth sending to the pose detector.
// It differences each blurred grayscale frame against the previous one and
// stays open for hold after the changed-pixel percentage last exceeded
// threshold. The first frame only establishes the baseline.
type MotionGate struct {
	threshold  float64
	hold       time.Duration
	now        func() time.Time
	prev       gocv.Mat
	hasPrev    bool
	lastMotion time.Time
	mu         sync.Mutex
}

// NewMotionGate creates a gate. threshold is a percentage of the frame,
// so 1.0 means 1% of pixels must change.
func NewMotionGate(threshold float64, hold time.Duration) *MotionGate {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	if hold < 0 {
		hold = 0
	}
	return &MotionGate{
		threshold: threshold,
		hold:      hold,
		now:       time.Now,
		prev:      gocv.NewMat(),
	}
}

// Changed returns the percentage of pixels that changed since the previous
// frame. It returns 0 for the first frame and for empty input.
func (g *MotionGate) Changed(frame *gocv.Mat) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.changed(frame)
}

func (g *MotionGate) changed(frame *gocv.Mat) float64 {
	if frame == nil || frame.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurKernel, BlurKernel), 0, 0, gocv.BorderDefault)

	if !g.hasPrev || g.prev.Rows() != blurred.Rows() || g.prev.Cols() != blurred.Cols() {
		blurred.CopyTo(&g.prev)
		g.hasPrev = true
		return 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, DiffThreshold, 255, gocv.ThresholdBinary)

	blurred.CopyTo(&g.prev)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total) * 100.0
}

// Open feeds frame through the differencing stage and reports whether the
// gate is open for it.
func (g *MotionGate) Open(frame *gocv.Mat) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.changed(frame) > g.threshold {
		g.lastMotion = now
	}
	return g.openAt(now)
}

func (g *MotionGate) openAt(now time.Time) bool {
	if g.lastMotion.IsZero() {
		return false
	}
	return now.Sub(g.lastMotion) <= g.hold
}

// Reset forgets the baseline frame and the last motion time.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasPrev = false
	g.lastMotion = time.Time{}
}

// Close releases the baseline Mat.
func (g *MotionGate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasPrev = false
	return g.prev.Close()
}
