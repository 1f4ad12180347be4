// Package mask rasterizes AOI shapes into binary masks and assembles the
// canonical mask set for an image.
//
// The set is positional: the first name is the union of all shapes, the
// second is the "emotional" union of every shape after the first, and the
// remaining names are the individual shapes in document order. A shape that
// covers nearly the whole image is never filled but still occupies its
// individual slot, so per-shape columns stay aligned across images.
package mask

import (
	"image"

	"github.com/menta2k/aoistats/pkg/geometry"
)

// DefaultNames is the mask naming used by the statistics schema
var DefaultNames = []string{"0", "E", "1", "2", "3", "4"}

// Named pairs a mask with its schema name
type Named struct {
	Name  string
	Mask  *image.Gray
	Drawn int
}

// Set is the ordered list of masks for one image
type Set []Named

// All returns the union mask, or nil for an empty set
func (s Set) All() *image.Gray {
	if len(s) == 0 {
		return nil
	}
	return s[0].Mask
}

// Lookup returns the mask registered under name
func (s Set) Lookup(name string) (Named, bool) {
	for _, n := range s {
		if n.Name == name {
			return n, true
		}
	}
	return Named{}, false
}

// Builder composes geometry documents into mask sets
type Builder struct {
	Names       []string
	MaxCoverage float64
}

// NewBuilder creates a Builder with the default names and coverage threshold
func NewBuilder() *Builder {
	return &Builder{
		Names:       DefaultNames,
		MaxCoverage: DefaultMaxCoverage,
	}
}

// Build rasterizes doc over a width x height grid. It returns nil when the
// document has no shapes, which tells the caller to skip the image.
func (b *Builder) Build(doc geometry.Document, width, height int) Set {
	if doc.Empty() || len(b.Names) < 2 {
		return nil
	}

	set := make(Set, 0, len(b.Names))

	all := NewCanvas(width, height, b.MaxCoverage)
	for _, s := range doc.Shapes {
		all.Draw(s)
	}
	set = append(set, Named{Name: b.Names[0], Mask: all.Mask(), Drawn: all.Drawn()})

	emotional := NewCanvas(width, height, b.MaxCoverage)
	for _, s := range doc.Shapes[1:] {
		emotional.Draw(s)
	}
	set = append(set, Named{Name: b.Names[1], Mask: emotional.Mask(), Drawn: emotional.Drawn()})

	for i, s := range doc.Shapes {
		slot := i + 2
		if slot >= len(b.Names) {
			break
		}
		single := NewCanvas(width, height, b.MaxCoverage)
		single.Draw(s)
		set = append(set, Named{Name: b.Names[slot], Mask: single.Mask(), Drawn: single.Drawn()})
	}
	return set
}
