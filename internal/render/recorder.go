package render

import (
	"image"
	"image/color"
)

// Op is one recorded drawing call.
type Op struct {
	Kind      string // "line", "circle", "rect" or "text"
	Points    []image.Point
	Rect      image.Rectangle
	Radius    int
	Text      string
	Font      Font
	Scale     float64
	Color     color.RGBA
	Thickness int
}

// Recorder is a Canvas that records calls instead of drawing. Used in tests.
type Recorder struct {
	Ops []Op
}

// Line records a line.
func (r *Recorder) Line(from, to image.Point, c color.RGBA, thickness int) {
	r.Ops = append(r.Ops, Op{Kind: "line", Points: []image.Point{from, to}, Color: c, Thickness: thickness})
}

// Circle records a circle.
func (r *Recorder) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	r.Ops = append(r.Ops, Op{Kind: "circle", Points: []image.Point{center}, Radius: radius, Color: c, Thickness: thickness})
}

// Rectangle records a rectangle.
func (r *Recorder) Rectangle(rect image.Rectangle, c color.RGBA, thickness int) {
	r.Ops = append(r.Ops, Op{Kind: "rect", Rect: rect, Color: c, Thickness: thickness})
}

// Text records a text label.
func (r *Recorder) Text(text string, origin image.Point, font Font, scale float64, c color.RGBA, thickness int) {
	r.Ops = append(r.Ops, Op{Kind: "text", Points: []image.Point{origin}, Text: text, Font: font, Scale: scale, Color: c, Thickness: thickness})
}

// Count returns how many recorded ops have the given kind.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Texts returns the recorded text labels in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Kind == "text" {
			out = append(out, op.Text)
		}
	}
	return out
}

// Reset discards recorded ops.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}
