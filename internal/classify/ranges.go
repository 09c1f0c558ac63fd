// Package classify maps metric values onto the visual buckets a choropleth
// renders: percent-change ranges, absolute population ranges, and the
// two-signal correlation zones.
package classify

import "math"

// NoDataColor fills regions that carry no value for the rendered metric.
const NoDataColor = "#cccccc"

// Range is one half-open interval [Min, Max) of a bucket table.
type Range struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Label string  `json:"label" yaml:"label"`
	Color string  `json:"color" yaml:"color"`
}

// Contains reports whether v falls inside [Min, Max).
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v < r.Max
}

// NoData is the bucket for missing values.
var NoData = Range{
	Min:   math.NaN(),
	Max:   math.NaN(),
	Label: "No data",
	Color: NoDataColor,
}

// ChangeRanges partitions percent change into the legend buckets, ascending
// and gapless over the real line. Zero falls into "0% to +2%".
var ChangeRanges = []Range{
	{Min: math.Inf(-1), Max: -10, Label: "< -10%", Color: "#1e3a8a"},
	{Min: -10, Max: -5, Label: "-10% to -5%", Color: "#3b82f6"},
	{Min: -5, Max: -2, Label: "-5% to -2%", Color: "#60a5fa"},
	{Min: -2, Max: 0, Label: "-2% to 0%", Color: "#93c5fd"},
	{Min: 0, Max: 2, Label: "0% to +2%", Color: "#10b981"},
	{Min: 2, Max: 5, Label: "+2% to +5%", Color: "#eab308"},
	{Min: 5, Max: 10, Label: "+5% to +10%", Color: "#f97316"},
	{Min: 10, Max: 15, Label: "+10% to +15%", Color: "#ef4444"},
	{Min: 15, Max: math.Inf(1), Label: "> +15%", Color: "#dc2626"},
}

// PopulationRanges partitions absolute population counts.
var PopulationRanges = []Range{
	{Min: math.Inf(-1), Max: 25_000, Label: "0-25k", Color: "#e3f2fd"},
	{Min: 25_000, Max: 50_000, Label: "25k-50k", Color: "#bbdefb"},
	{Min: 50_000, Max: 100_000, Label: "50k-100k", Color: "#90caf9"},
	{Min: 100_000, Max: 250_000, Label: "100k-250k", Color: "#64b5f6"},
	{Min: 250_000, Max: 500_000, Label: "250k-500k", Color: "#42a5f5"},
	{Min: 500_000, Max: 1_000_000, Label: "500k-1M", Color: "#2196f3"},
	{Min: 1_000_000, Max: math.Inf(1), Label: "1M+", Color: "#1976d2"},
}

// Bucket returns the ChangeRanges entry containing v.
func Bucket(v *float64) Range {
	return Lookup(ChangeRanges, v)
}

// PopulationBucket returns the PopulationRanges entry containing v.
func PopulationBucket(v *float64) Range {
	return Lookup(PopulationRanges, v)
}

// Lookup scans ranges in order and returns the first one containing v.
// Nil, NaN, and values outside every range resolve to NoData.
func Lookup(ranges []Range, v *float64) Range {
	if v == nil || math.IsNaN(*v) {
		return NoData
	}
	for _, r := range ranges {
		if r.Contains(*v) {
			return r
		}
	}
	return NoData
}

// ChangeColor is the fill ladder the map paints percent change with. Unlike
// ChangeRanges it has a dedicated color for exactly zero.
func ChangeColor(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return NoDataColor
	}
	c := *v
	switch {
	case c < -10:
		return "#1e3a8a"
	case c < -5:
		return "#3b82f6"
	case c < -2:
		return "#60a5fa"
	case c < 0:
		return "#93c5fd"
	case c == 0:
		return "#dbeafe"
	case c < 2:
		return "#10b981"
	case c < 5:
		return "#eab308"
	case c < 10:
		return "#f97316"
	case c < 15:
		return "#ef4444"
	default:
		return "#dc2626"
	}
}
