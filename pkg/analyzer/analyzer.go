package analyzer

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/menta2k/aoistats/pkg/geometry"
	"github.com/menta2k/aoistats/pkg/mask"
	"github.com/menta2k/aoistats/pkg/processing"
	"github.com/menta2k/aoistats/pkg/regionstats"
	"github.com/menta2k/aoistats/pkg/saliency"
	"github.com/menta2k/aoistats/pkg/types"
)

// ErrNoGeometry means the image has no AOI geometry and should be skipped
var ErrNoGeometry = errors.New("no geometry found")

// Stage names the pipeline step an error came from
type Stage string

const (
	StageGeometry Stage = "geometry"
	StageLoad     Stage = "load"
	StageMasks    Stage = "masks"
	StageStats    Stage = "stats"
	StageSaliency Stage = "saliency"
)

// StageError tags an error with the stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err, or "" if there is none
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Analyzer runs the per-image pipeline: geometry, masks, region statistics
// and saliency correlation.
type Analyzer struct {
	config     Config
	processor  *processing.Processor
	masks      *mask.Builder
	complexity *regionstats.Complexity
	correlator *saliency.Correlator
}

// Config holds configuration for the image analyzer
type Config struct {
	GeometryDir       string
	GeometryExtension string
	MaskNames         []string
	MaxCoverage       float64
	JPEGQuality       int
	DumpDir           string
	Sources           []saliency.Source
	ResizeFilter      imaging.ResampleFilter
	SupportedFormats  []string
	MinImageSize      int
}

// DefaultConfig returns the configuration for the standard two-source run
func DefaultConfig() Config {
	return Config{
		GeometryExtension: ".OBT",
		MaskNames:         mask.DefaultNames,
		MaxCoverage:       mask.DefaultMaxCoverage,
		JPEGQuality:       regionstats.DefaultQuality,
		Sources: []saliency.Source{
			{Prefix: "saliency", Extension: ".png"},
			{Prefix: "sun_saliency", Extension: ".png"},
		},
		ResizeFilter:     imaging.NearestNeighbor,
		SupportedFormats: []string{"bmp", "png", "jpg", "jpeg", "webp"},
		MinImageSize:     1,
	}
}

// New creates a new Analyzer with default configuration
func New() *Analyzer {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new Analyzer with custom configuration
func NewWithConfig(config Config) *Analyzer {
	return &Analyzer{
		config:    config,
		processor: processing.NewProcessor(),
		masks: &mask.Builder{
			Names:       config.MaskNames,
			MaxCoverage: config.MaxCoverage,
		},
		complexity: &regionstats.Complexity{
			Quality: config.JPEGQuality,
			DumpDir: config.DumpDir,
		},
		correlator: saliency.NewWithFilter(config.ResizeFilter),
	}
}

// LoadImage loads an image from file
func (a *Analyzer) LoadImage(path string) (image.Image, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if !a.isFormatSupported(ext) {
		return nil, fmt.Errorf("unsupported image format: %s", ext)
	}

	img, err := a.processor.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return img, nil
}

// GetImageInfo returns basic information about an image
func (a *Analyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

func (a *Analyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (a *Analyzer) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < a.config.MinImageSize || bounds.Dy() < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), a.config.MinImageSize)
	}
	return nil
}

// Analyze runs the whole pipeline for one image. It returns ErrNoGeometry
// (wrapped) when the image has no AOI data, and a *StageError otherwise.
func (a *Analyzer) Analyze(imageID, imagePath string) (*types.ImageResult, error) {
	doc, rep, err := geometry.Load(a.config.GeometryDir, imageID, a.config.GeometryExtension)
	if err != nil {
		return nil, stageError(StageGeometry, err)
	}
	if doc.Empty() {
		return nil, errors.Wrap(ErrNoGeometry, imageID)
	}

	img, err := a.LoadImage(imagePath)
	if err != nil {
		return nil, stageError(StageLoad, err)
	}
	if err := a.ValidateImage(img); err != nil {
		return nil, stageError(StageLoad, err)
	}
	info := a.GetImageInfo(img)

	masks := a.masks.Build(doc, info.Width, info.Height)
	if masks == nil {
		return nil, errors.Wrap(ErrNoGeometry, imageID)
	}
	if err := a.dumpMasks(imageID, masks); err != nil {
		return nil, stageError(StageMasks, err)
	}

	result := &types.ImageResult{
		ImageID:  imageID,
		Width:    info.Width,
		Height:   info.Height,
		Geometry: rep,
	}

	raster := regionstats.NewRaster(img)
	result.Global, err = regionstats.Whole(raster, a.complexity, imageID+"-original")
	if err != nil {
		return nil, stageError(StageStats, err)
	}

	for _, m := range masks {
		st, err := regionstats.Compute(raster, m.Mask, a.complexity, fmt.Sprintf("%s-aoi%s", imageID, m.Name))
		if err != nil {
			return nil, stageError(StageStats, errors.Wrapf(err, "mask %s", m.Name))
		}
		result.Masks = append(result.Masks, types.MaskStats{Name: m.Name, Stats: st})
	}

	for _, src := range a.config.Sources {
		res, err := a.correlator.Correlate(src, imageID, info.Width, info.Height, masks)
		if err != nil {
			return nil, stageError(StageSaliency, err)
		}
		result.Saliency = append(result.Saliency, res)
	}

	return result, nil
}

func (a *Analyzer) dumpMasks(imageID string, masks mask.Set) error {
	if a.config.DumpDir == "" {
		return nil
	}
	for _, m := range masks {
		path := filepath.Join(a.config.DumpDir, fmt.Sprintf("%s-mask-%s.png", imageID, m.Name))
		if err := a.processor.SaveImage(m.Mask, path, "png", 0, false); err != nil {
			return errors.Wrapf(err, "save mask %s", m.Name)
		}
	}
	return nil
}
