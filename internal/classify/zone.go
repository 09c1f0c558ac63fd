package classify

// Zone is a correlation zone derived from two percent-change signals.
type Zone string

// Correlation zones.
const (
	ZoneHigh     Zone = "high"
	ZoneModerate Zone = "moderate"
	ZoneLow      Zone = "low"
)

// highGrowthThreshold is the percent change both signals must exceed for
// ZoneHigh.
const highGrowthThreshold = 5.0

// ZoneRange describes a zone for legends.
type ZoneRange struct {
	Zone        Zone   `json:"zone" yaml:"zone"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
	Color       string `json:"color" yaml:"color"`
}

// ZoneRanges lists the zones in legend order.
var ZoneRanges = []ZoneRange{
	{
		Zone:        ZoneHigh,
		Label:       "High Opportunity",
		Description: "Both Population Change and Tourism Change showing strong growth (>5%)",
		Color:       "#16a34a",
	},
	{
		Zone:        ZoneModerate,
		Label:       "Moderate Opportunity",
		Description: "One metric showing strong growth or both showing positive growth",
		Color:       "#eab308",
	},
	{
		Zone:        ZoneLow,
		Label:       "Low Opportunity",
		Description: "Both metrics declining or showing negative trends",
		Color:       "#dc2626",
	},
}

// ZoneOf returns the zone for a population change and a tourism change.
// Rules are checked in order: high, then low, then moderate. It returns nil
// when either signal is missing.
func ZoneOf(a, b *float64) *Zone {
	if a == nil || b == nil {
		return nil
	}
	z := classifyZone(*a, *b)
	return &z
}

func classifyZone(a, b float64) Zone {
	if a > highGrowthThreshold && b > highGrowthThreshold {
		return ZoneHigh
	}
	if (a <= 0 && b <= 0) || a < 0 || b < 0 {
		return ZoneLow
	}
	return ZoneModerate
}

// Info returns the legend entry for z.
func (z Zone) Info() ZoneRange {
	for _, r := range ZoneRanges {
		if r.Zone == z {
			return r
		}
	}
	return ZoneRange{Zone: z, Label: string(z), Color: NoDataColor}
}

// Color returns the zone's fill color.
func (z Zone) Color() string {
	return z.Info().Color
}
