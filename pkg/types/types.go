package types

import (
	"time"

	"github.com/menta2k/aoistats/pkg/geometry"
	"github.com/menta2k/aoistats/pkg/regionstats"
	"github.com/menta2k/aoistats/pkg/saliency"
)

// MaskStats is the full statistics bundle of the original image for one mask
type MaskStats struct {
	Name  string            `json:"name"`
	Stats regionstats.Stats `json:"stats"`
}

// ImageResult contains everything computed for one image
type ImageResult struct {
	ImageID  string             `json:"image_id"`
	Width    int                `json:"width"`
	Height   int                `json:"height"`
	Global   regionstats.Side   `json:"global"`
	Masks    []MaskStats        `json:"masks"`
	Saliency []*saliency.Result `json:"saliency"`
	Geometry geometry.Report    `json:"geometry"`
}

// Mask returns the bundle for a mask name
func (r *ImageResult) Mask(name string) (regionstats.Stats, bool) {
	for _, m := range r.Masks {
		if m.Name == name {
			return m.Stats, true
		}
	}
	return regionstats.Stats{}, false
}

// SaliencyFor returns the saliency result for a column prefix
func (r *ImageResult) SaliencyFor(prefix string) (*saliency.Result, bool) {
	for _, s := range r.Saliency {
		if s.Prefix == prefix {
			return s, true
		}
	}
	return nil, false
}

// Status is the outcome class of one image
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome is the tagged result of processing one image
type Outcome struct {
	ImageID string       `json:"image_id"`
	Status  Status       `json:"status"`
	Stage   string       `json:"stage,omitempty"`
	Error   string       `json:"error,omitempty"`
	Result  *ImageResult `json:"-"`
}

// Failure identifies an image that could not be processed
type Failure struct {
	ImageID string `json:"image_id"`
	Stage   string `json:"stage"`
	Error   string `json:"error"`
}

// Report summarizes a batch run
type Report struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Total     int       `json:"total"`
	Processed []string  `json:"processed"`
	Skipped   []string  `json:"skipped"`
	Failed    []Failure `json:"failed"`
}

// Add records one outcome
func (r *Report) Add(o Outcome) {
	r.Total++
	switch o.Status {
	case StatusProcessed:
		r.Processed = append(r.Processed, o.ImageID)
	case StatusSkipped:
		r.Skipped = append(r.Skipped, o.ImageID)
	case StatusFailed:
		r.Failed = append(r.Failed, Failure{ImageID: o.ImageID, Stage: o.Stage, Error: o.Error})
	}
}
