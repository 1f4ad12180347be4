// Package geometry reads per-image AOI description files (.OBT) into shape records.
//
// The authoring format is inconsistent across files, so parsing is lenient:
// each line is split on commas, equals signs and runs of whitespace, and
// only tokens that parse as signed integers are kept. Nothing is rejected; tokens that are dropped are
// counted in the Report so callers can see how much of a file was ignored.
package geometry

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the shape type of a record
type Kind int

const (
	Ellipse Kind = iota
	Rectangle
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	if k == Rectangle {
		return "rectangle"
	}
	return "ellipse"
}

// rectangleDiscriminant is the leading value that marks a rectangle line.
// Every other value is an ellipse.
const rectangleDiscriminant = 1

var separators = regexp.MustCompile(`\s*[,=]\s*|\s+`)

// Shape is one AOI record.
//
// For rectangles Params is (left, bottom, right, top); for ellipses it is
// (center_x, center_y, radius_x, radius_y). All values are image pixels.
type Shape struct {
	Kind   Kind
	Params [4]int
	Index  int
}

// Document is the ordered list of shapes for one image
type Document struct {
	ImageID string
	Shapes  []Shape
}

// Empty reports whether the document holds no shapes
func (d Document) Empty() bool {
	return len(d.Shapes) == 0
}

// Report describes what the lenient parser dropped or patched
type Report struct {
	Lines             int `json:"lines"`
	DiscardedTokens   int `json:"discarded_tokens"`
	SentinelLines     int `json:"sentinel_lines"`
	IncompleteRecords int `json:"incomplete_records"`
	ExtraValues       int `json:"extra_values"`
}

// Parse reads shape records from r, one per line
func Parse(r io.Reader) (Document, Report, error) {
	var doc Document
	var rep Report

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rep.Lines++
		values, discarded := ParseLine(scanner.Text())
		rep.DiscardedTokens += discarded

		if len(values) == 0 {
			continue
		}
		if sentinel(values) {
			rep.SentinelLines++
			continue
		}

		shape := Shape{Kind: Ellipse, Index: len(doc.Shapes)}
		if values[0] == rectangleDiscriminant {
			shape.Kind = Rectangle
		}
		params := values[1:]
		if len(params) < len(shape.Params) {
			rep.IncompleteRecords++
		}
		if len(params) > len(shape.Params) {
			rep.ExtraValues += len(params) - len(shape.Params)
		}
		copy(shape.Params[:], params)
		doc.Shapes = append(doc.Shapes, shape)
	}
	if err := scanner.Err(); err != nil {
		return Document{}, rep, fmt.Errorf("failed to read geometry: %w", err)
	}
	return doc, rep, nil
}

// ParseLine splits a line into its integer tokens and returns them in order
// together with the number of non-blank tokens that were not integers.
func ParseLine(line string) ([]int, int) {
	var values []int
	discarded := 0
	for _, tok := range separators.Split(line, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			discarded++
			continue
		}
		values = append(values, v)
	}
	return values, discarded
}

// sentinel reports whether a line stands for "no shape": a lone "0", or a
// discriminant followed only by zero parameters.
func sentinel(values []int) bool {
	for _, v := range values[1:] {
		if v != 0 {
			return false
		}
	}
	return true
}

// Path returns the geometry file location for an image identifier
func Path(dir, imageID, ext string) string {
	return filepath.Join(dir, imageID+ext)
}

// Load parses the geometry file for imageID. A missing file is not an
// error: it yields an empty Document.
func Load(dir, imageID, ext string) (Document, Report, error) {
	f, err := os.Open(Path(dir, imageID, ext))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{ImageID: imageID}, Report{}, nil
		}
		return Document{}, Report{}, fmt.Errorf("failed to open geometry file: %w", err)
	}
	defer f.Close()

	doc, rep, err := Parse(f)
	if err != nil {
		return Document{}, rep, err
	}
	doc.ImageID = imageID
	return doc, rep, nil
}
