// Package choropleth joins county metric records onto county polygons and
// derives the fields a choropleth map renders.
//
// Everything here is pure and synchronous. Loading geometry and metric
// tables happens before Run is called.
package choropleth

import (
	"maps"
	"slices"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/county"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/geo"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
)

// MatchMethod records how a feature was joined to a record.
type MatchMethod string

// Match methods.
const (
	MethodNone MatchMethod = "none"
	MethodCode MatchMethod = "code"
	MethodName MatchMethod = "name"
)

// Match is the join result for one feature.
type Match struct {
	Record *metric.Record
	Method MatchMethod
}

// Matches maps a feature's index in its collection to its match. Features
// without a match have no entry.
type Matches map[int]Match

// Diagnostics counts join outcomes. MatchedByCode + MatchedByName +
// Unmatched always equals Total.
type Diagnostics struct {
	Total         int `json:"total"`
	MatchedByCode int `json:"matchedByCode"`
	MatchedByName int `json:"matchedByName"`
	Unmatched     int `json:"unmatched"`
}

// NameKeyFunc derives the name join key for a feature's properties. Keys
// must be in the same space as county.NormalizeName output, since lookup
// keys are normalized before comparison.
type NameKeyFunc func(props map[string]any) string

// DefaultNameKey normalizes the feature's display name.
func DefaultNameKey(props map[string]any) string {
	return county.NormalizeName(county.FeatureName(props))
}

// Observer receives per-source diagnostics after each join.
type Observer interface {
	ObserveMatch(source string, d Diagnostics)
}

type options struct {
	nameKey  NameKeyFunc
	observer Observer
	zoneA    string
	zoneB    string
}

// Option configures Join and Run.
type Option func(*options)

// WithNameKey replaces the name-fallback key. Use it to fold a state code
// into the key when names repeat across states.
func WithNameKey(fn NameKeyFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.nameKey = fn
		}
	}
}

// WithObserver reports diagnostics for every source Run joins.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithZoneFields sets the two change properties the correlation zone is
// computed from.
func WithZoneFields(a, b string) Option {
	return func(o *options) {
		o.zoneA = a
		o.zoneB = b
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		nameKey: DefaultNameKey,
		zoneA:   metric.Population.ChangeField,
		zoneB:   "tourismChange",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Join joins records to features in two phases. Phase one resolves each
// feature's county code against byCode. Phase two walks byName in key order
// and gives each entry the first feature, by index, that is still unmatched
// and whose name key equals the normalized lookup key. A record already
// joined by code is not offered again by name. Either lookup may be nil.
func Join(features []*geo.Feature, byCode, byName map[string]*metric.Record, opts ...Option) (Matches, Diagnostics) {
	o := newOptions(opts)
	matches := make(Matches)
	used := make(map[*metric.Record]bool)
	diag := Diagnostics{Total: len(features)}

	if len(byCode) > 0 {
		for i, f := range features {
			if f == nil {
				continue
			}
			code, ok := county.ExtractCodeOrID(f.Properties, f.ID)
			if !ok {
				continue
			}
			rec, ok := byCode[code]
			if !ok || rec == nil {
				continue
			}
			matches[i] = Match{Record: rec, Method: MethodCode}
			used[rec] = true
			diag.MatchedByCode++
		}
	}

	if len(byName) > 0 {
		index := nameIndex(features, matches, o.nameKey)
		for _, key := range slices.Sorted(maps.Keys(byName)) {
			rec := byName[key]
			if rec == nil || used[rec] {
				continue
			}
			k := county.NormalizeName(key)
			candidates := index[k]
			if len(candidates) == 0 {
				continue
			}
			i := candidates[0]
			index[k] = candidates[1:]
			matches[i] = Match{Record: rec, Method: MethodName}
			used[rec] = true
			diag.MatchedByName++
		}
	}

	diag.Unmatched = diag.Total - diag.MatchedByCode - diag.MatchedByName
	return matches, diag
}

// nameIndex maps each name key to the ascending indices of unmatched
// features carrying it.
func nameIndex(features []*geo.Feature, matched Matches, keyFn NameKeyFunc) map[string][]int {
	index := make(map[string][]int)
	for i, f := range features {
		if f == nil {
			continue
		}
		if _, ok := matched[i]; ok {
			continue
		}
		key := keyFn(f.Properties)
		if key == "" {
			continue
		}
		index[key] = append(index[key], i)
	}
	return index
}
