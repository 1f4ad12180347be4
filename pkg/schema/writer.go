package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/menta2k/aoistats/pkg/types"
)

// Row is one image's cells keyed by column name
type Row map[string]Value

// BuildRow extracts every schema column from a result
func (s Schema) BuildRow(r *types.ImageResult) Row {
	row := make(Row, len(s))
	for _, c := range s {
		if v := c.Extract(r); v.Present {
			row[c.Name] = v
		}
	}
	return row
}

// Record formats a row in column order; absent values are blank
func (s Schema) Record(row Row) []string {
	rec := make([]string, len(s))
	for i, c := range s {
		rec[i] = row[c.Name].String()
	}
	return rec
}

// String formats a cell using the shortest exact representation
func (v Value) String() string {
	switch {
	case !v.Present:
		return ""
	case v.Text != "":
		return v.Text
	case v.Integer:
		return strconv.FormatFloat(v.Number, 'f', 0, 64)
	default:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	}
}

// Writer emits the table as CSV. The header is written once, before the
// first row, even if no row ever follows when Close is called.
type Writer struct {
	schema Schema
	csv    *csv.Writer
	header bool
}

// NewWriter creates a CSV writer for schema s
func NewWriter(w io.Writer, s Schema) *Writer {
	return &Writer{schema: s, csv: csv.NewWriter(w)}
}

func (w *Writer) writeHeader() error {
	if w.header {
		return nil
	}
	w.header = true
	if err := w.csv.Write(w.schema.Names()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Write appends one image's row
func (w *Writer) Write(r *types.ImageResult) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	if err := w.csv.Write(w.schema.Record(w.schema.BuildRow(r))); err != nil {
		return fmt.Errorf("failed to write row for %s: %w", r.ImageID, err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close writes the header if nothing was written and flushes
func (w *Writer) Close() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}
