package classify

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// LegendEntry is one row of a map legend. Open-ended bounds are nil so the
// entry encodes cleanly as JSON.
type LegendEntry struct {
	Label       string   `json:"label" yaml:"label"`
	Color       string   `json:"color" yaml:"color"`
	Min         *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// legends maps a layer name to its legend builder.
var legends = map[string]func() []LegendEntry{
	"population":      func() []LegendEntry { return rangeLegend(ChangeRanges) },
	"population-size": func() []LegendEntry { return rangeLegend(PopulationRanges) },
	"gdp":             func() []LegendEntry { return rangeLegend(ChangeRanges) },
	"opportunity":     zoneLegend,
}

// LegendLayers returns the layer names Legend accepts, sorted.
func LegendLayers() []string {
	out := make([]string, 0, len(legends))
	for name := range legends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Legend returns the legend rows for a layer, ending with the no-data row.
func Legend(layer string) ([]LegendEntry, error) {
	build, ok := legends[layer]
	if !ok {
		return nil, eris.Errorf("classify: unknown legend layer %q", layer)
	}
	return append(build(), LegendEntry{Label: NoData.Label, Color: NoDataColor}), nil
}

func rangeLegend(ranges []Range) []LegendEntry {
	out := make([]LegendEntry, len(ranges))
	for i, r := range ranges {
		out[i] = LegendEntry{
			Label: r.Label,
			Color: r.Color,
			Min:   finite(r.Min),
			Max:   finite(r.Max),
		}
	}
	return out
}

func zoneLegend() []LegendEntry {
	out := make([]LegendEntry, len(ZoneRanges))
	for i, z := range ZoneRanges {
		out[i] = LegendEntry{Label: z.Label, Color: z.Color, Description: z.Description}
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
