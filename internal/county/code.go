package county

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// CodeLength is the width of a canonical county code (2-digit state FIPS +
// 3-digit county FIPS).
const CodeLength = 5

var (
	// geoIDSuffixRe extracts the digit run after "US" in Census composite
	// identifiers, e.g. "0500000US01001" -> "01001".
	geoIDSuffixRe = regexp.MustCompile(`US(\d+)$`)

	// trailingDigitsRe is the last-resort extraction for GEOID-style fields.
	trailingDigitsRe = regexp.MustCompile(`(\d+)$`)

	fiveDigitsRe = regexp.MustCompile(`^\d{5}$`)
)

// CodeStrategy derives a raw digit string from a feature property bag.
// It reports false when the properties do not carry the shape it understands.
type CodeStrategy struct {
	Name    string
	Extract func(props map[string]any) (string, bool)
}

// CodeStrategies is the ordered chain ExtractCode walks. The first strategy
// that yields digits wins; a strategy that finds its field but cannot use it
// hands over to the next one.
var CodeStrategies = []CodeStrategy{
	{Name: "geo_id", Extract: fromGeoID},
	{Name: "state_county", Extract: fromStateCounty},
	{Name: "id", Extract: fromID},
	{Name: "geoid", Extract: fromGEOID},
}

// ExtractCode returns the canonical 5-digit county code for a property bag,
// or false when no strategy recognizes the properties.
func ExtractCode(props map[string]any) (string, bool) {
	if len(props) == 0 {
		return "", false
	}
	for _, s := range CodeStrategies {
		if digits, ok := s.Extract(props); ok {
			return CanonicalCode(digits)
		}
	}
	return "", false
}

// CanonicalCode pads a digit string to 5 characters or keeps its last 5.
// Longer codes describe broader summary levels whose suffix is the county.
func CanonicalCode(digits string) (string, bool) {
	digits = strings.TrimSpace(digits)
	if digits == "" || !isDigits(digits) {
		return "", false
	}
	if len(digits) < CodeLength {
		return strings.Repeat("0", CodeLength-len(digits)) + digits, true
	}
	return digits[len(digits)-CodeLength:], true
}

// NormalizeFIPSState normalizes a state FIPS code to 2 digits with zero-padding.
func NormalizeFIPSState(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if len(code) == 1 {
		return "0" + code
	}
	return code
}

// NormalizeFIPSCounty normalizes a county FIPS code to 3 digits with zero-padding.
func NormalizeFIPSCounty(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for len(code) < 3 {
		code = "0" + code
	}
	return code
}

// CombineFIPS combines state and county FIPS codes into a 5-digit code.
func CombineFIPS(state, county string) string {
	s := NormalizeFIPSState(state)
	c := NormalizeFIPSCounty(county)
	if s == "" || c == "" {
		return ""
	}
	return s + c
}

func fromGeoID(props map[string]any) (string, bool) {
	s, ok := stringProp(props, "GEO_ID")
	if !ok {
		return "", false
	}
	m := geoIDSuffixRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// statePairs lists the state/county field pairs providers use: plotly's
// county GeoJSON carries STATE/COUNTY, TIGER/Line carries STATEFP/COUNTYFP.
var statePairs = [][2]string{
	{"STATE", "COUNTY"},
	{"STATEFP", "COUNTYFP"},
}

func fromStateCounty(props map[string]any) (string, bool) {
	for _, pair := range statePairs {
		st, okS := digitProp(props, pair[0])
		co, okC := digitProp(props, pair[1])
		if !okS || !okC {
			continue
		}
		return CombineFIPS(st, co), true
	}
	return "", false
}

func fromID(props map[string]any) (string, bool) {
	return digitProp(props, "id")
}

func fromGEOID(props map[string]any) (string, bool) {
	for _, key := range []string{"GEOID", "geoid"} {
		s, ok := stringProp(props, key)
		if !ok {
			continue
		}
		if fiveDigitsRe.MatchString(s) {
			return s, true
		}
		if m := geoIDSuffixRe.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
		if m := trailingDigitsRe.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// stringProp returns a trimmed, non-empty textual rendering of props[key].
func stringProp(props map[string]any, key string) (string, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		if t != math.Trunc(t) || t < 0 {
			return "", false
		}
		s = strconv.FormatFloat(t, 'f', 0, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case fmt.Stringer:
		s = t.String()
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// digitProp is stringProp restricted to values made only of ASCII digits.
func digitProp(props map[string]any, key string) (string, bool) {
	s, ok := stringProp(props, key)
	if !ok || !isDigits(s) {
		return "", false
	}
	return s, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ExtractCodeOrID is ExtractCode with a fallback to the feature-level GeoJSON
// "id" member, which is where plotly's county dataset keeps the code.
func ExtractCodeOrID(props map[string]any, id any) (string, bool) {
	if code, ok := ExtractCode(props); ok {
		return code, true
	}
	if id == nil {
		return "", false
	}
	digits, ok := digitProp(map[string]any{"id": id}, "id")
	if !ok {
		return "", false
	}
	return CanonicalCode(digits)
}
