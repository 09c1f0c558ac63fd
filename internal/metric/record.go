// Package metric holds county metric records and the readers that build them
// from Census and BEA tables.
package metric

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/county"
)

// Record is one county's values from a single dataset.
type Record struct {
	Code   string          `json:"code,omitempty"`
	Name   string          `json:"name,omitempty"`
	Values map[int]float64 `json:"values"`
	// Change is a precomputed percent change. Nil means the consumer derives
	// it from Values.
	Change *float64 `json:"change,omitempty"`
}

// NewRecord returns a record with an empty value map.
func NewRecord(code, name string) *Record {
	return &Record{Code: code, Name: name, Values: make(map[int]float64)}
}

// Value returns the value for year, or nil when the year is missing.
func (r *Record) Value(year int) *float64 {
	if r == nil {
		return nil
	}
	v, ok := r.Values[year]
	if !ok {
		return nil
	}
	return &v
}

// Set stores v for year; a nil v removes the year.
func (r *Record) Set(year int, v *float64) {
	if r.Values == nil {
		r.Values = make(map[int]float64)
	}
	if v == nil {
		delete(r.Values, year)
		return
	}
	r.Values[year] = *v
}

// Years returns the years present, ascending.
func (r *Record) Years() []int {
	return slices.Sorted(maps.Keys(r.Values))
}

// Index builds the code and name lookups the matcher consumes. Records
// without a usable code only appear in the name lookup. Duplicate keys keep
// the first record.
func Index(records []*Record) (byCode, byName map[string]*Record) {
	byCode = make(map[string]*Record, len(records))
	byName = make(map[string]*Record, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		if code, ok := county.CanonicalCode(r.Code); ok {
			if _, dup := byCode[code]; !dup {
				byCode[code] = r
			}
		}
		if key := county.NormalizeName(r.Name); key != "" {
			if _, dup := byName[key]; !dup {
				byName[key] = r
			}
		}
	}
	return byCode, byName
}

// suppressed lists the markers BEA and Census tables use for withheld or
// unavailable values.
var suppressed = map[string]bool{
	"":    true,
	"(D)": true,
	"D":   true,
	"--":  true,
	"N/A": true,
}

var valueCleaner = strings.NewReplacer(",", "", `"`, "")

// ParseValue parses a numeric table cell. Suppressed markers and
// unparseable text yield nil.
func ParseValue(s string) *float64 {
	s = strings.TrimSpace(s)
	if suppressed[s] {
		return nil
	}
	v, err := strconv.ParseFloat(valueCleaner.Replace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}
