package mask

import (
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/menta2k/aoistats/pkg/geometry"
)

// DefaultMaxCoverage is the fraction of the image area at or above which a
// shape is treated as an authoring artifact covering the whole image.
const DefaultMaxCoverage = 0.9

// coverageCutoff binarizes anti-aliased edges: pixels at least half covered
// are inside the mask.
const coverageCutoff = 128

// Canvas rasterizes shapes white on black over an image-sized grid
type Canvas struct {
	dc          *gg.Context
	width       int
	height      int
	maxCoverage float64
	drawn       int
}

// NewCanvas creates an empty canvas of the given size
func NewCanvas(width, height int, maxCoverage float64) *Canvas {
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	return &Canvas{
		dc:          dc,
		width:       width,
		height:      height,
		maxCoverage: maxCoverage,
	}
}

// Draw fills one shape onto the canvas. It returns false without drawing
// when the shape covers maxCoverage of the image or more.
func (c *Canvas) Draw(s geometry.Shape) bool {
	if Degenerate(s, c.width, c.height, c.maxCoverage) {
		return false
	}

	p := s.Params
	switch s.Kind {
	case geometry.Rectangle:
		left, bottom, right, top := float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3])
		c.dc.DrawRectangle(math.Min(left, right), math.Min(bottom, top), math.Abs(right-left), math.Abs(top-bottom))
	default:
		c.dc.DrawEllipse(float64(p[0]), float64(p[1]), math.Abs(float64(p[2])), math.Abs(float64(p[3])))
	}
	c.dc.Fill()
	c.drawn++
	return true
}

// Drawn returns how many shapes have been filled
func (c *Canvas) Drawn() int {
	return c.drawn
}

// Mask returns the canvas as a binary grayscale image (0 or 255)
func (c *Canvas) Mask() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, c.width, c.height))
	if c.drawn == 0 {
		return out
	}

	src, ok := c.dc.Image().(*image.RGBA)
	if !ok {
		return out
	}
	for y := 0; y < c.height; y++ {
		si := y * src.Stride
		di := y * out.Stride
		for x := 0; x < c.width; x++ {
			if src.Pix[si+x*4+3] >= coverageCutoff {
				out.Pix[di+x] = 255
			}
		}
	}
	return out
}

// Area returns the nominal area of a shape in pixels
func Area(s geometry.Shape) float64 {
	p := s.Params
	if s.Kind == geometry.Rectangle {
		return math.Abs(float64(p[2]-p[0]) * float64(p[3]-p[1]))
	}
	return math.Pi * math.Abs(float64(p[2])) * math.Abs(float64(p[3]))
}

// Degenerate reports whether a shape is large enough to be rejected
func Degenerate(s geometry.Shape, width, height int, maxCoverage float64) bool {
	return Area(s) >= maxCoverage*float64(width)*float64(height)
}

// Count returns the number of non-zero pixels in a mask
func Count(m *image.Gray) int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}
