// Package regionstats computes luminance, channel means and a compression
// based complexity score for the pixels inside and outside a mask.
//
// All channel values are reported normalized to [0,1]. Luminance uses the
// Rec.709 weights and is scaled by mean alpha when the raster has alpha.
//
// Complexity is the size in bytes of a JPEG encoding of the region pasted
// over black. It is only a rough proxy for structural entropy: stippling in
// the source images and encoder artifacts make it noisy, so small
// differences between regions should not be read as meaningful.
package regionstats

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

const (
	weightR = 0.2126
	weightG = 0.7152
	weightB = 0.0722

	maxValue = 255.0
)

// Side holds the statistics of one region (inside or outside a mask)
type Side struct {
	Luminance  float64 `json:"luminance"`
	R          float64 `json:"r"`
	G          float64 `json:"g"`
	B          float64 `json:"b"`
	Complexity int     `json:"complexity,omitempty"`
	Pixels     int     `json:"pixels"`
}

// Stats is the bundle for one mask against one raster. In or Out is nil
// when that region contains no pixels; such fields are not applicable
// rather than zero.
type Stats struct {
	MaskLuminance float64 `json:"mask_luminance"`
	In            *Side   `json:"in,omitempty"`
	Out           *Side   `json:"out,omitempty"`
}

// Luminance returns the normalized perceptual luminance of 8-bit channel values
func Luminance(r, g, b float64) float64 {
	return clampUnit((r*weightR + g*weightG + b*weightB) / maxValue)
}

// LuminanceAlpha is Luminance scaled by a/255
func LuminanceAlpha(r, g, b, a float64) float64 {
	return clampUnit(Luminance(r, g, b) * (a / maxValue))
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Raster is an image unpacked into per-channel float slices, row-major
type Raster struct {
	Width  int
	Height int
	R      []float64
	G      []float64
	B      []float64
	A      []float64

	src *image.NRGBA
}

// NewRaster converts any image into a Raster
func NewRaster(img image.Image) *Raster {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()
	n := w * h
	r := &Raster{
		Width:  w,
		Height: h,
		R:      make([]float64, n),
		G:      make([]float64, n),
		B:      make([]float64, n),
		A:      make([]float64, n),
		src:    nrgba,
	}
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			r.R[i] = float64(row[x*4+0])
			r.G[i] = float64(row[x*4+1])
			r.B[i] = float64(row[x*4+2])
			r.A[i] = float64(row[x*4+3])
		}
	}
	return r
}

// Image returns the NRGBA pixels backing the raster
func (r *Raster) Image() *image.NRGBA {
	return r.src
}

// Len returns the number of pixels
func (r *Raster) Len() int {
	return r.Width * r.Height
}

func (r *Raster) side(weights []float64, pixels int) *Side {
	mr := stat.Mean(r.R, weights)
	mg := stat.Mean(r.G, weights)
	mb := stat.Mean(r.B, weights)
	ma := stat.Mean(r.A, weights)
	return &Side{
		Luminance: LuminanceAlpha(mr, mg, mb, ma),
		R:         mr / maxValue,
		G:         mg / maxValue,
		B:         mb / maxValue,
		Pixels:    pixels,
	}
}

// composite pastes the pixels selected by weights over an opaque black image
func (r *Raster) composite(weights []float64) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		src := r.src.Pix[y*r.src.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < r.Width; x++ {
			o := x * 4
			if weights == nil || weights[y*r.Width+x] != 0 {
				dst[o+0] = src[o+0]
				dst[o+1] = src[o+1]
				dst[o+2] = src[o+2]
			}
			dst[o+3] = 255
		}
	}
	return out
}

// Whole computes statistics over every pixel of the raster. When cx is
// non-nil the whole image is also measured for complexity under name.
func Whole(r *Raster, cx *Complexity, name string) (Side, error) {
	if r.Len() == 0 {
		return Side{}, nil
	}
	s := r.side(nil, r.Len())
	if cx != nil {
		size, err := cx.Measure(r.composite(nil), name)
		if err != nil {
			return Side{}, err
		}
		s.Complexity = size
	}
	return *s, nil
}

// Compute returns the statistics of r inside and outside mask m, which
// must match the raster's size. Complexity is measured only when cx is
// non-nil; the encoded regions are named key+"in" and key+"out".
func Compute(r *Raster, m *image.Gray, cx *Complexity, key string) (Stats, error) {
	n := r.Len()
	in := make([]float64, n)
	out := make([]float64, n)
	values := make([]float64, n)
	inCount := 0

	for y := 0; y < r.Height; y++ {
		row := m.Pix[y*m.Stride:]
		for x := 0; x < r.Width; x++ {
			i := y*r.Width + x
			v := row[x]
			values[i] = float64(v)
			if v != 0 {
				in[i] = 1
				inCount++
			} else {
				out[i] = 1
			}
		}
	}

	var st Stats
	if n == 0 {
		return st, nil
	}
	st.MaskLuminance = stat.Mean(values, nil) / maxValue

	if inCount > 0 {
		st.In = r.side(in, inCount)
	}
	if outCount := n - inCount; outCount > 0 {
		st.Out = r.side(out, outCount)
	}

	if cx == nil {
		return st, nil
	}
	if st.In != nil {
		size, err := cx.Measure(r.composite(in), key+"in")
		if err != nil {
			return Stats{}, err
		}
		st.In.Complexity = size
	}
	if st.Out != nil {
		size, err := cx.Measure(r.composite(out), key+"out")
		if err != nil {
			return Stats{}, err
		}
		st.Out.Complexity = size
	}
	return st, nil
}
