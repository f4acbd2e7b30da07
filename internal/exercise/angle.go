// Package exercise turns body landmarks into joint angles and counts
// alternating-leg squat jump repetitions.
package exercise

import (
	"image"
	"math"

	"github.com/ayusman/repcount/internal/detector"
)

// Angle returns the interior angle at p2 formed by p1-p2-p3, in degrees within [0, 180].
// Coincident points are not guarded against; the result is then meaningless but finite.
func Angle(p1, p2, p3 image.Point) float64 {
	rad := math.Atan2(float64(p3.Y-p2.Y), float64(p3.X-p2.X)) -
		math.Atan2(float64(p1.Y-p2.Y), float64(p1.X-p2.X))
	deg := rad * 180 / math.Pi

	if deg < 0 {
		deg += 360
	}
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}

// Triple names three landmarks whose angle is measured at Vertex.
type Triple struct {
	A, Vertex, C int
}

// Points resolves the triple against pixel landmarks.
func (t Triple) Points(px detector.Pixels) (image.Point, image.Point, image.Point) {
	return px[t.A], px[t.Vertex], px[t.C]
}

// Angle measures the triple against pixel landmarks.
func (t Triple) Angle(px detector.Pixels) float64 {
	return Angle(t.Points(px))
}

// Leg holds the landmark triples that describe one leg.
type Leg struct {
	Side Side
	Knee Triple // hip, knee, ankle
	Hip  Triple // shoulder, hip, knee
}

// Legs are named as seen in the mirrored camera image, so the leg on the
// right of the screen (MediaPipe's anatomical left, 23/25/27) is the right side.
var (
	RightLeg = Leg{
		Side: SideRight,
		Knee: Triple{A: detector.LeftHip, Vertex: detector.LeftKnee, C: detector.LeftAnkle},
		Hip:  Triple{A: detector.LeftShoulder, Vertex: detector.LeftHip, C: detector.LeftKnee},
	}
	LeftLeg = Leg{
		Side: SideLeft,
		Knee: Triple{A: detector.RightHip, Vertex: detector.RightKnee, C: detector.RightAnkle},
		Hip:  Triple{A: detector.RightShoulder, Vertex: detector.RightHip, C: detector.RightKnee},
	}
)

// LegAngles are the knee and hip angles of one leg, in degrees.
type LegAngles struct {
	Knee float64
	Hip  float64
}

// JointAngles are the four angles evaluated each frame.
type JointAngles struct {
	Right LegAngles
	Left  LegAngles
}

// For returns the angles measured for the given side.
func (a JointAngles) For(side Side) LegAngles {
	if side == SideLeft {
		return a.Left
	}
	return a.Right
}

// Measure computes the knee and hip angles of one leg.
func Measure(px detector.Pixels, leg Leg) LegAngles {
	return LegAngles{
		Knee: leg.Knee.Angle(px),
		Hip:  leg.Hip.Angle(px),
	}
}

// MeasureLegs computes the angles of both legs.
func MeasureLegs(px detector.Pixels) JointAngles {
	return JointAngles{
		Right: Measure(px, RightLeg),
		Left:  Measure(px, LeftLeg),
	}
}
