package county

import (
	"regexp"
	"strings"
)

// FeatureName resolves the best human-readable name a polygon feature carries:
// NAMELSAD ("Autauga County"), NAME_LSAD, then NAME with its LSAD suffix
// appended when the suffix is not already part of the name.
func FeatureName(props map[string]any) string {
	for _, key := range []string{"NAMELSAD", "NAME_LSAD"} {
		if s, ok := textProp(props, key); ok {
			return s
		}
	}
	name, ok := textProp(props, "NAME")
	if !ok {
		return ""
	}
	if lsad, ok := textProp(props, "LSAD"); ok && !strings.Contains(name, lsad) {
		name += " " + lsad
	}
	return name
}

func textProp(props map[string]any, key string) (string, bool) {
	s, ok := props[key].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// stateAbbrevRe matches a trailing two-letter state abbreviation, as in the
// BEA GeoName "Park, WY".
var stateAbbrevRe = regexp.MustCompile(`^(.+?),\s*([A-Za-z]{2})$`)

// StateNames maps USPS state abbreviations to state names.
var StateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
	"DC": "District of Columbia",
}

// ExpandStateAbbreviation rewrites "Park, WY" to "Park, Wyoming". Names
// without a trailing abbreviation, or with an unknown one, are returned as-is.
func ExpandStateAbbreviation(name string) string {
	m := stateAbbrevRe.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	full, ok := StateNames[strings.ToUpper(m[2])]
	if !ok {
		return name
	}
	return m[1] + ", " + full
}
