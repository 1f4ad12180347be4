package saliency

import (
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/menta2k/aoistats/pkg/geometry"
	"github.com/menta2k/aoistats/pkg/mask"
)

// createSaliencyMap is bright in the top-left quadrant and black elsewhere
func createSaliencyMap(width, height int) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height/2; y++ {
		for x := 0; x < width/2; x++ {
			img.SetGray(x, y, color.Gray{Y: 200})
		}
	}
	return img
}

func writeMap(t *testing.T, dir, id string, img image.Image) {
	t.Helper()
	if err := imaging.Save(img, filepath.Join(dir, id+".png")); err != nil {
		t.Fatal(err)
	}
}

func TestAlignmentRotatesMask(t *testing.T) {
	sal := createSaliencyMap(20, 10)

	bottomRight := image.NewGray(image.Rect(0, 0, 20, 10))
	for y := 5; y < 10; y++ {
		for x := 10; x < 20; x++ {
			bottomRight.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	// The bottom-right mask lands on the bright top-left quadrant once rotated.
	got := Alignment(sal, bottomRight)
	want := 200.0 * 255.0 * 50
	if got != want {
		t.Errorf("Expected alignment %.0f, got %.0f", want, got)
	}

	topLeft := image.NewGray(image.Rect(0, 0, 20, 10))
	for y := 0; y < 5; y++ {
		for x := 0; x < 10; x++ {
			topLeft.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	if got := Alignment(sal, topLeft); got != 0 {
		t.Errorf("Expected zero alignment for unrotated overlap, got %.0f", got)
	}
}

func TestCorrelate(t *testing.T) {
	dir := t.TempDir()
	// Half resolution: the correlator must resize to the image grid.
	writeMap(t, dir, "1000", createSaliencyMap(50, 40))

	doc := geometry.Document{Shapes: []geometry.Shape{
		{Kind: geometry.Rectangle, Params: [4]int{0, 0, 50, 40}},
		{Kind: geometry.Rectangle, Params: [4]int{50, 40, 100, 80}, Index: 1},
	}}
	masks := mask.NewBuilder().Build(doc, 100, 80)

	c := New()
	res, err := c.Correlate(Source{Prefix: "saliency", Dir: dir}, "1000", 100, 80, masks)
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	if res.Prefix != "saliency" {
		t.Errorf("Expected prefix saliency, got %s", res.Prefix)
	}
	if len(res.Regions) != len(masks) {
		t.Fatalf("Expected %d regions, got %d", len(masks), len(res.Regions))
	}

	wantLum := 0.25 * 200.0 / 255.0
	if math.Abs(res.Luminance-wantLum) > 1e-6 {
		t.Errorf("Expected luminance %f, got %f", wantLum, res.Luminance)
	}

	first, ok := res.Region("1")
	if !ok || first.In == nil {
		t.Fatal("Expected inside statistics for mask 1")
	}
	if math.Abs(first.In.Luminance-200.0/255.0) > 1e-6 {
		t.Errorf("Expected mask 1 inside luminance %f, got %f", 200.0/255.0, first.In.Luminance)
	}

	second, _ := res.Region("2")
	if second.In == nil || second.In.Luminance != 0 {
		t.Error("Expected dark inside luminance for mask 2")
	}

	// The union covers both quadrants; its rotation covers them too.
	want := 200.0 * 255.0 * 50 * 40
	if res.Alignment != want {
		t.Errorf("Expected alignment %.0f, got %.0f", want, res.Alignment)
	}
}

func TestCorrelateMissingRaster(t *testing.T) {
	doc := geometry.Document{Shapes: []geometry.Shape{
		{Kind: geometry.Rectangle, Params: [4]int{0, 0, 10, 10}},
	}}
	masks := mask.NewBuilder().Build(doc, 40, 40)

	_, err := New().Correlate(Source{Prefix: "sun_saliency", Dir: t.TempDir()}, "404", 40, 40, masks)
	if err == nil {
		t.Fatal("Expected an error for a missing saliency map")
	}
	if !errors.Is(err, ErrMissingRaster) {
		t.Errorf("Expected ErrMissingRaster, got %v", err)
	}
}

func TestParseFilter(t *testing.T) {
	for _, name := range []string{"", "nearest", "linear", "CatmullRom", "lanczos"} {
		if _, err := ParseFilter(name); err != nil {
			t.Errorf("Filter %q should be accepted: %v", name, err)
		}
	}
	if _, err := ParseFilter("bogus"); err == nil {
		t.Error("Unknown filter should be rejected")
	}
}
