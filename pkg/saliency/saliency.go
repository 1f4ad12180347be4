// Package saliency correlates externally computed saliency maps with AOI masks.
//
// Each map is resized to the original image's pixel grid, summarized as a
// whole, summarized inside and outside every mask, and scored against the
// union mask with an alignment sum.
//
// The alignment sum multiplies the saliency intensity at every pixel with
// the union mask rotated by 180 degrees. The rotation is kept so existing
// analyses stay comparable, but it may be compensating for an origin
// mismatch between the two rasters, or it may simply be wrong. It needs a
// domain review before anyone relies on the absolute value.
package saliency

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/menta2k/aoistats/pkg/mask"
	"github.com/menta2k/aoistats/pkg/processing"
	"github.com/menta2k/aoistats/pkg/regionstats"
)

// ErrMissingRaster is returned when a saliency map is absent or unreadable
var ErrMissingRaster = errors.New("saliency raster missing")

// Source is one saliency model's corpus
type Source struct {
	Prefix    string `json:"prefix"`
	Dir       string `json:"dir"`
	Extension string `json:"extension"`
}

// Path returns the map location for an image identifier
func (s Source) Path(imageID string) string {
	ext := s.Extension
	if ext == "" {
		ext = ".png"
	}
	return filepath.Join(s.Dir, imageID+ext)
}

// Region is the reduced statistics bundle for one mask
type Region struct {
	Name  string            `json:"name"`
	Stats regionstats.Stats `json:"stats"`
}

// Result is everything computed from one saliency map
type Result struct {
	Prefix    string   `json:"prefix"`
	Luminance float64  `json:"luminance"`
	Alignment float64  `json:"alignment"`
	Regions   []Region `json:"regions"`
}

// Region returns the bundle for a mask name
func (r *Result) Region(name string) (regionstats.Stats, bool) {
	for _, reg := range r.Regions {
		if reg.Name == name {
			return reg.Stats, true
		}
	}
	return regionstats.Stats{}, false
}

// Correlator loads saliency maps and scores them against mask sets
type Correlator struct {
	processor *processing.Processor
	filter    imaging.ResampleFilter
}

// New creates a Correlator using nearest-neighbor resizing
func New() *Correlator {
	return NewWithFilter(imaging.NearestNeighbor)
}

// NewWithFilter creates a Correlator with a custom resize filter
func NewWithFilter(filter imaging.ResampleFilter) *Correlator {
	return &Correlator{
		processor: processing.NewProcessor(),
		filter:    filter,
	}
}

// ParseFilter maps a filter name to an imaging resample filter
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "", "nearest":
		return imaging.NearestNeighbor, nil
	case "linear":
		return imaging.Linear, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "lanczos":
		return imaging.Lanczos, nil
	default:
		return imaging.ResampleFilter{}, errors.Errorf("unknown resize filter %q", name)
	}
}

// Load reads the map for imageID and resizes it to width x height
func (c *Correlator) Load(src Source, imageID string, width, height int) (image.Image, error) {
	path := src.Path(imageID)
	img, err := c.processor.LoadImage(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMissingRaster, "%s map %s", src.Prefix, path)
		}
		return nil, errors.Wrapf(ErrMissingRaster, "%s map %s: %v", src.Prefix, path, err)
	}

	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return imaging.Resize(img, width, height, c.filter), nil
	}
	return img, nil
}

// Correlate computes the saliency statistics for one image
func (c *Correlator) Correlate(src Source, imageID string, width, height int, masks mask.Set) (*Result, error) {
	img, err := c.Load(src, imageID, width, height)
	if err != nil {
		return nil, err
	}
	raster := regionstats.NewRaster(img)

	whole, err := regionstats.Whole(raster, nil, "")
	if err != nil {
		return nil, errors.Wrapf(err, "%s luminance", src.Prefix)
	}

	res := &Result{
		Prefix:    src.Prefix,
		Luminance: whole.Luminance,
		Regions:   make([]Region, 0, len(masks)),
	}
	for _, m := range masks {
		st, err := regionstats.Compute(raster, m.Mask, nil, "")
		if err != nil {
			return nil, errors.Wrapf(err, "%s mask %s", src.Prefix, m.Name)
		}
		res.Regions = append(res.Regions, Region{Name: m.Name, Stats: st})
	}

	if all := masks.All(); all != nil {
		res.Alignment = Alignment(raster.Image(), all)
	}
	return res, nil
}

// Alignment returns the sum of the element-wise product of the grayscale
// saliency intensities and the mask rotated by 180 degrees. Both images
// must have the same size.
func Alignment(saliency image.Image, m *image.Gray) float64 {
	gray := imaging.Grayscale(saliency)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	s := make([]float64, 0, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			s = append(s, float64(row[x*4]))
		}
	}

	rotated := make([]float64, 0, w*h)
	for y := 0; y < h; y++ {
		rotated = append(rotated, maskRow(m, y, w)...)
	}
	// Reversing a row-major grid is a 180 degree rotation.
	floats.Reverse(rotated)

	return floats.Dot(s, rotated)
}

func maskRow(m *image.Gray, y, w int) []float64 {
	row := make([]float64, w)
	pix := m.Pix[y*m.Stride:]
	for x := 0; x < w; x++ {
		row[x] = float64(pix[x])
	}
	return row
}
