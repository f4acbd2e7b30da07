// Package render draws the skeleton, angle annotations and counter HUD onto frames.
package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Filled is the thickness value that fills circles and rectangles.
const Filled = -1

// Font selects one of the Hershey fonts.
type Font int

const (
	// FontPlain is the small sans-serif font.
	FontPlain Font = iota
	// FontSimplex is the normal sans-serif font.
	FontSimplex
)

// Canvas is the set of drawing primitives the overlays need.
type Canvas interface {
	Line(from, to image.Point, c color.RGBA, thickness int)
	Circle(center image.Point, radius int, c color.RGBA, thickness int)
	Rectangle(r image.Rectangle, c color.RGBA, thickness int)
	Text(text string, origin image.Point, font Font, scale float64, c color.RGBA, thickness int)
}

// MatCanvas draws on a gocv Mat.
type MatCanvas struct {
	mat *gocv.Mat
}

// NewMatCanvas wraps a frame for drawing. The caller keeps ownership of the Mat.
func NewMatCanvas(mat *gocv.Mat) *MatCanvas {
	return &MatCanvas{mat: mat}
}

// Line draws a straight segment.
func (m *MatCanvas) Line(from, to image.Point, c color.RGBA, thickness int) {
	gocv.Line(m.mat, from, to, c, thickness)
}

// Circle draws an outlined circle, or a filled one when thickness is Filled.
func (m *MatCanvas) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	gocv.Circle(m.mat, center, radius, c, thickness)
}

// Rectangle draws an outlined rectangle, or a filled one when thickness is Filled.
func (m *MatCanvas) Rectangle(r image.Rectangle, c color.RGBA, thickness int) {
	gocv.Rectangle(m.mat, r, c, thickness)
}

// Text draws a string with its bottom-left corner at origin.
func (m *MatCanvas) Text(text string, origin image.Point, font Font, scale float64, c color.RGBA, thickness int) {
	gocv.PutText(m.mat, text, origin, hersheyFont(font), scale, c, thickness)
}

func hersheyFont(f Font) gocv.HersheyFont {
	if f == FontSimplex {
		return gocv.FontHersheySimplex
	}
	return gocv.FontHersheyPlain
}
