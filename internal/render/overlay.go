package render

import (
	"image"
	"image/color"
	"strconv"

	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/exercise"
)

// Colors used by the overlays.
var (
	White = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 0}
)

// HUD layout.
const (
	ProgressBarWidth  = 400
	ProgressBarHeight = 20
)

var (
	countOrigin    = image.Pt(50, 100)
	progressOrigin = image.Pt(50, 150)
	feedbackOrigin = image.Pt(50, 200)
)

// Skeleton draws the pose connections.
func Skeleton(c Canvas, px detector.Pixels) {
	for _, conn := range detector.Connections {
		c.Line(px[conn[0]], px[conn[1]], White, 2)
	}
}

// Landmarks draws a dot on every landmark.
func Landmarks(c Canvas, px detector.Pixels) {
	for _, p := range px {
		c.Circle(p, 5, Blue, Filled)
	}
}

// AngleAnnotation draws the two segments of an angle, marks its three points
// and writes the angle in whole degrees below-left of the vertex.
func AngleAnnotation(c Canvas, p1, p2, p3 image.Point, angle float64) {
	c.Line(p1, p2, White, 3)
	c.Line(p3, p2, White, 3)

	for _, p := range []image.Point{p1, p2, p3} {
		c.Circle(p, 5, Red, Filled)
		c.Circle(p, 15, Red, 2)
	}

	c.Text(strconv.Itoa(int(angle)), image.Pt(p2.X-50, p2.Y+50), FontPlain, 2, Red, 2)
}

// LegAngles annotates the knee and hip triples of a leg.
func LegAngles(c Canvas, px detector.Pixels, leg exercise.Leg, angles exercise.LegAngles) {
	k1, k2, k3 := leg.Knee.Points(px)
	AngleAnnotation(c, k1, k2, k3, angles.Knee)
	h1, h2, h3 := leg.Hip.Points(px)
	AngleAnnotation(c, h1, h2, h3, angles.Hip)
}

// HUD draws the rep count, the progress bar and the feedback text.
// A progress of zero draws no bar.
func HUD(c Canvas, state exercise.State, progress float64) {
	c.Text(strconv.Itoa(state.Count), countOrigin, FontSimplex, 2, Blue, 2)

	if w := ProgressWidth(progress); w > 0 {
		bar := image.Rect(progressOrigin.X, progressOrigin.Y, progressOrigin.X+w, progressOrigin.Y+ProgressBarHeight)
		c.Rectangle(bar, Green, Filled)
	}

	c.Text(state.Feedback, feedbackOrigin, FontSimplex, 1, Green, 2)
}

// ProgressWidth converts a progress fraction into bar pixels.
func ProgressWidth(progress float64) int {
	if progress <= 0 {
		return 0
	}
	if progress > 1 {
		progress = 1
	}
	return int(ProgressBarWidth * progress)
}
