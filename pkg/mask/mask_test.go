package mask

import (
	"math"
	"testing"

	"github.com/menta2k/aoistats/pkg/geometry"
)

func rect(l, b, r, t int) geometry.Shape {
	return geometry.Shape{Kind: geometry.Rectangle, Params: [4]int{l, b, r, t}}
}

func ellipse(cx, cy, rx, ry int) geometry.Shape {
	return geometry.Shape{Kind: geometry.Ellipse, Params: [4]int{cx, cy, rx, ry}}
}

func TestRectangleArea(t *testing.T) {
	tests := []geometry.Shape{
		rect(10, 20, 50, 60),
		rect(50, 60, 10, 20),
		rect(0, 0, 120, 30),
		rect(100, 10, 180, 150),
	}

	for _, s := range tests {
		c := NewCanvas(200, 160, DefaultMaxCoverage)
		if !c.Draw(s) {
			t.Fatalf("Rectangle %v should be drawn", s.Params)
		}
		got := float64(Count(c.Mask()))
		want := Area(s)
		if math.Abs(got-want) > 0.02*want+2 {
			t.Errorf("Rectangle %v: expected area %.0f, got %.0f", s.Params, want, got)
		}
	}
}

func TestEllipseArea(t *testing.T) {
	tests := []geometry.Shape{
		ellipse(100, 80, 40, 20),
		ellipse(60, 60, 30, 30),
		ellipse(150, 100, 25, 50),
	}

	for _, s := range tests {
		c := NewCanvas(200, 160, DefaultMaxCoverage)
		if !c.Draw(s) {
			t.Fatalf("Ellipse %v should be drawn", s.Params)
		}
		got := float64(Count(c.Mask()))
		want := Area(s)
		if math.Abs(got-want) > 0.03*want {
			t.Errorf("Ellipse %v: expected area ~%.0f, got %.0f", s.Params, want, got)
		}
	}
}

func TestDegenerateShapesAreNotDrawn(t *testing.T) {
	tests := []geometry.Shape{
		rect(0, 0, 100, 100),
		rect(0, 5, 100, 95),
		ellipse(50, 50, 60, 60),
	}

	for _, s := range tests {
		c := NewCanvas(100, 100, DefaultMaxCoverage)
		if c.Draw(s) {
			t.Errorf("Shape %v covers >=90%% of the image and should be rejected", s.Params)
		}
		if n := Count(c.Mask()); n != 0 {
			t.Errorf("Shape %v: expected blank mask, got %d pixels", s.Params, n)
		}
	}
}

func TestBuildEmptyDocument(t *testing.T) {
	set := NewBuilder().Build(geometry.Document{ImageID: "x"}, 100, 100)
	if set != nil {
		t.Errorf("Expected nil set for empty document, got %d masks", len(set))
	}
}

func TestBuildWholeImageRectangle(t *testing.T) {
	doc := geometry.Document{Shapes: []geometry.Shape{rect(0, 0, 100, 100)}}
	set := NewBuilder().Build(doc, 100, 100)

	if len(set) != 3 {
		t.Fatalf("Expected masks 0, E, 1; got %d masks", len(set))
	}
	for _, n := range set {
		if c := Count(n.Mask); c != 0 {
			t.Errorf("Mask %s: expected blank, got %d pixels", n.Name, c)
		}
	}
}

func TestBuildEmotionalSubset(t *testing.T) {
	doc := geometry.Document{Shapes: []geometry.Shape{
		rect(10, 10, 40, 40),
		ellipse(140, 100, 20, 15),
	}}
	doc.Shapes[1].Index = 1

	set := NewBuilder().Build(doc, 200, 160)
	names := []string{"0", "E", "1", "2"}
	if len(set) != len(names) {
		t.Fatalf("Expected %d masks, got %d", len(names), len(set))
	}
	for i, n := range set {
		if n.Name != names[i] {
			t.Errorf("Mask %d: expected name %s, got %s", i, names[i], n.Name)
		}
	}

	all, _ := set.Lookup("0")
	emo, _ := set.Lookup("E")
	one, _ := set.Lookup("1")
	two, _ := set.Lookup("2")

	inRect := func(x, y int) bool { return one.Mask.GrayAt(x, y).Y == 255 }
	inEllipse := func(x, y int) bool { return two.Mask.GrayAt(x, y).Y == 255 }

	if !inRect(25, 25) || inRect(140, 100) {
		t.Error("Mask 1 should contain only the rectangle")
	}
	if !inEllipse(140, 100) || inEllipse(25, 25) {
		t.Error("Mask 2 should contain only the ellipse")
	}
	if emo.Mask.GrayAt(25, 25).Y != 0 || emo.Mask.GrayAt(140, 100).Y != 255 {
		t.Error("Emotional mask should contain only the ellipse")
	}
	if all.Mask.GrayAt(25, 25).Y != 255 || all.Mask.GrayAt(140, 100).Y != 255 {
		t.Error("Union mask should contain both shapes")
	}
	if Count(emo.Mask) != Count(two.Mask) {
		t.Errorf("Emotional mask should equal mask 2: %d vs %d", Count(emo.Mask), Count(two.Mask))
	}
}

func TestBuildKeepsDegenerateSlot(t *testing.T) {
	doc := geometry.Document{Shapes: []geometry.Shape{
		rect(0, 0, 100, 100),
		rect(10, 10, 20, 20),
	}}
	set := NewBuilder().Build(doc, 100, 100)
	if len(set) != 4 {
		t.Fatalf("Expected 4 masks, got %d", len(set))
	}
	if set[2].Drawn != 0 || Count(set[2].Mask) != 0 {
		t.Error("Mask 1 should be a blank placeholder")
	}
	if Count(set[3].Mask) != 100 {
		t.Errorf("Mask 2: expected 100 pixels, got %d", Count(set[3].Mask))
	}
}

func TestBuildTruncatesToNames(t *testing.T) {
	var shapes []geometry.Shape
	for i := 0; i < 6; i++ {
		shapes = append(shapes, rect(i*10, 0, i*10+5, 5))
	}
	set := NewBuilder().Build(geometry.Document{Shapes: shapes}, 100, 100)
	if len(set) != len(DefaultNames) {
		t.Errorf("Expected %d masks, got %d", len(DefaultNames), len(set))
	}
}
