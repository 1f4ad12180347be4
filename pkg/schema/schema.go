// Package schema defines the output table. The header and every row are
// produced from the same ordered column list, so they cannot drift apart.
//
// Column order is a compatibility contract with downstream analysis
// scripts: image_name, the global image fields, eleven fields per mask for
// the original image, then for each saliency source its alignment sum,
// whole-map luminance and two fields per mask.
package schema

import (
	"github.com/menta2k/aoistats/pkg/regionstats"
	"github.com/menta2k/aoistats/pkg/types"
)

// Metric selects one scalar from a statistics bundle
type Metric int

const (
	MetricImageName Metric = iota
	MetricMaskLuminance
	MetricLuminance
	MetricR
	MetricG
	MetricB
	MetricComplexity
	MetricAlignment
)

// Region selects which side of a mask a metric reads
type Region int

const (
	RegionWhole Region = iota
	RegionIn
	RegionOut
)

// Column describes one output column and where its value comes from.
// Mask is empty for whole-image columns; Source is empty for columns of
// the original image.
type Column struct {
	Name   string
	Source string
	Mask   string
	Region Region
	Metric Metric
}

type field struct {
	suffix string
	region Region
	metric Metric
}

var maskFields = []field{
	{"_mask_lum", RegionWhole, MetricMaskLuminance},
	{"_in_lum", RegionIn, MetricLuminance},
	{"_in_r", RegionIn, MetricR},
	{"_in_g", RegionIn, MetricG},
	{"_in_b", RegionIn, MetricB},
	{"_in_complexity", RegionIn, MetricComplexity},
	{"_out_lum", RegionOut, MetricLuminance},
	{"_out_r", RegionOut, MetricR},
	{"_out_g", RegionOut, MetricG},
	{"_out_b", RegionOut, MetricB},
	{"_out_complexity", RegionOut, MetricComplexity},
}

var saliencyFields = []field{
	{"_in_lum", RegionIn, MetricLuminance},
	{"_out_lum", RegionOut, MetricLuminance},
}

// Schema is the ordered column list
type Schema []Column

// New builds the schema for the given mask names and saliency prefixes
func New(maskNames, saliencyPrefixes []string) Schema {
	s := Schema{
		{Name: "image_name", Metric: MetricImageName},
		{Name: "orig_lum", Metric: MetricLuminance},
		{Name: "orig_r", Metric: MetricR},
		{Name: "orig_g", Metric: MetricG},
		{Name: "orig_b", Metric: MetricB},
		{Name: "orig_complexity", Metric: MetricComplexity},
	}

	for _, m := range maskNames {
		for _, f := range maskFields {
			s = append(s, Column{Name: "aoi" + m + f.suffix, Mask: m, Region: f.region, Metric: f.metric})
		}
	}

	for _, p := range saliencyPrefixes {
		s = append(s,
			Column{Name: p + "_aoi_dotproduct_sum", Source: p, Metric: MetricAlignment},
			Column{Name: p + "_lum", Source: p, Metric: MetricLuminance},
		)
		for _, m := range maskNames {
			for _, f := range saliencyFields {
				s = append(s, Column{Name: p + m + f.suffix, Source: p, Mask: m, Region: f.region, Metric: f.metric})
			}
		}
	}
	return s
}

// Names returns the header row
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Value is one cell. Present is false when the value does not apply to
// this image, e.g. a mask the image does not have or an empty region.
type Value struct {
	Number  float64
	Text    string
	Integer bool
	Present bool
}

// Extract reads the column's value from a result
func (c Column) Extract(r *types.ImageResult) Value {
	if c.Metric == MetricImageName {
		return Value{Text: r.ImageID, Present: true}
	}

	if c.Source == "" {
		if c.Mask == "" {
			return sideValue(&r.Global, c.Metric)
		}
		st, ok := r.Mask(c.Mask)
		if !ok {
			return Value{}
		}
		return statsValue(st, c.Region, c.Metric)
	}

	sal, ok := r.SaliencyFor(c.Source)
	if !ok {
		return Value{}
	}
	if c.Mask == "" {
		switch c.Metric {
		case MetricAlignment:
			return Value{Number: sal.Alignment, Integer: true, Present: true}
		case MetricLuminance:
			return Value{Number: sal.Luminance, Present: true}
		}
		return Value{}
	}
	st, ok := sal.Region(c.Mask)
	if !ok {
		return Value{}
	}
	return statsValue(st, c.Region, c.Metric)
}

func statsValue(st regionstats.Stats, region Region, metric Metric) Value {
	switch region {
	case RegionIn:
		return sideValue(st.In, metric)
	case RegionOut:
		return sideValue(st.Out, metric)
	}
	if metric == MetricMaskLuminance {
		return Value{Number: st.MaskLuminance, Present: true}
	}
	return Value{}
}

func sideValue(s *regionstats.Side, metric Metric) Value {
	if s == nil {
		return Value{}
	}
	switch metric {
	case MetricLuminance:
		return Value{Number: s.Luminance, Present: true}
	case MetricR:
		return Value{Number: s.R, Present: true}
	case MetricG:
		return Value{Number: s.G, Present: true}
	case MetricB:
		return Value{Number: s.B, Present: true}
	case MetricComplexity:
		return Value{Number: float64(s.Complexity), Integer: true, Present: true}
	}
	return Value{}
}
