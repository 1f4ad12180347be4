package regionstats

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG quality used for complexity measurements
const DefaultQuality = 80

// Complexity measures encoded size. When DumpDir is set every encoding is
// also written there as <name>.jpg, byte-identical to what was measured.
type Complexity struct {
	Quality int
	DumpDir string
}

// NewComplexity creates a measurer with the default quality
func NewComplexity() *Complexity {
	return &Complexity{Quality: DefaultQuality}
}

// Measure returns the JPEG-encoded size of img in bytes
func (c *Complexity) Measure(img image.Image, name string) (int, error) {
	quality := c.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", name, err)
	}

	if c.DumpDir != "" {
		path := filepath.Join(c.DumpDir, name+".jpg")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return buf.Len(), nil
}
