// Package aoistats computes per-image visual statistics for an eye-tracking
// stimulus set.
//
// For every image in a corpus it reads the hand-authored AOI geometry
// (.OBT files), rasterizes the shapes into masks, and measures luminance,
// channel means and a JPEG-size complexity proxy inside and outside each
// mask. Two external saliency maps are then summarized against the same
// masks. The result is one CSV row per image with a fixed column order.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//		"os"
//
//		"github.com/menta2k/aoistats"
//		"github.com/menta2k/aoistats/internal/config"
//	)
//
//	func main() {
//		cfg := config.Default()
//		cfg.Paths.ImageDir = "/study/iaps/bmp"
//		cfg.Paths.AOIDir = "/study/iaps/aois"
//
//		stats, err := aoistats.New(cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		report, err := stats.Run(os.Stdout)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("processed %d, skipped %d, failed %d",
//			len(report.Processed), len(report.Skipped), len(report.Failed))
//	}
//
// The package consists of these components:
//
//  1. Geometry (pkg/geometry): lenient parser for AOI files
//  2. Mask (pkg/mask): shape rasterization and the ordered mask set
//  3. Region statistics (pkg/regionstats): luminance, channel means, complexity
//  4. Saliency (pkg/saliency): saliency map loading, region stats and alignment
//  5. Schema (pkg/schema): the output columns and CSV writer
//  6. Batch (pkg/batch): corpus iteration with per-image failure isolation
//
// Shapes covering 90% of the image or more are treated as authoring
// artifacts and are never filled. Images without geometry are skipped;
// images whose processing fails are reported and the run continues.
package aoistats

import (
	"io"

	"github.com/menta2k/aoistats/internal/config"
	"github.com/menta2k/aoistats/internal/logger"
	"github.com/menta2k/aoistats/pkg/analyzer"
	"github.com/menta2k/aoistats/pkg/batch"
	"github.com/menta2k/aoistats/pkg/types"
)

// Version of the statistics generator
const Version = "1.0.0"

// Stats provides a high-level interface over the batch pipeline
type Stats struct {
	config *config.Config
	driver *batch.Driver
}

// New creates Stats from a configuration, logging nothing
func New(cfg *config.Config) (*Stats, error) {
	return NewWithLogger(cfg, logger.Nop())
}

// NewWithLogger creates Stats that reports progress to log
func NewWithLogger(cfg *config.Config, log logger.Logger) (*Stats, error) {
	driver, err := batch.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Stats{config: cfg, driver: driver}, nil
}

// Run processes the whole corpus and writes the CSV table to w
func (s *Stats) Run(w io.Writer) (*types.Report, error) {
	return s.driver.Run(w)
}

// Columns returns the output header in order
func (s *Stats) Columns() []string {
	return s.driver.Schema().Names()
}

// AnalyzeImage runs the pipeline for a single image outside a batch
func (s *Stats) AnalyzeImage(imageID, imagePath string) (*types.ImageResult, error) {
	ac, err := s.config.Analyzer()
	if err != nil {
		return nil, err
	}
	return analyzer.NewWithConfig(ac).Analyze(imageID, imagePath)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
