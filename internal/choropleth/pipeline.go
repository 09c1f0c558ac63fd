package choropleth

import (
	"github.com/rotisserie/eris"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/geo"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
)

// ErrInvalidCollection is returned when the input is not a feature
// collection. No partial output accompanies it.
var ErrInvalidCollection = eris.New("choropleth: invalid feature collection")

// Source is one metric dataset with its lookups.
type Source struct {
	Dataset metric.Dataset
	ByCode  map[string]*metric.Record
	ByName  map[string]*metric.Record
}

// NewSource indexes records for ds.
func NewSource(ds metric.Dataset, records []*metric.Record) Source {
	byCode, byName := metric.Index(records)
	return Source{Dataset: ds, ByCode: byCode, ByName: byName}
}

// Result is an enriched collection plus per-dataset join diagnostics.
type Result struct {
	Collection  *geo.FeatureCollection `json:"collection"`
	Diagnostics map[string]Diagnostics `json:"diagnostics"`
}

// Run joins every source onto fc and returns a new, enriched collection.
// Each source is matched independently. fc is not modified.
func Run(fc *geo.FeatureCollection, sources []Source, opts ...Option) (*Result, error) {
	if fc == nil {
		return nil, ErrInvalidCollection
	}
	if err := fc.Validate(); err != nil {
		return nil, eris.Wrap(ErrInvalidCollection, err.Error())
	}

	o := newOptions(opts)
	res := &Result{
		Collection: &geo.FeatureCollection{
			Type:     fc.Type,
			Features: make([]*geo.Feature, len(fc.Features)),
		},
		Diagnostics: make(map[string]Diagnostics, len(sources)),
	}

	perSource := make([]Matches, len(sources))
	for i, src := range sources {
		matches, diag := Join(fc.Features, src.ByCode, src.ByName, opts...)
		perSource[i] = matches
		res.Diagnostics[src.Dataset.Name] = diag
		if o.observer != nil {
			o.observer.ObserveMatch(src.Dataset.Name, diag)
		}
	}

	applied := make([]Applied, len(sources))
	for i, f := range fc.Features {
		for j, src := range sources {
			applied[j] = Applied{Dataset: src.Dataset}
			if m, ok := perSource[j][i]; ok {
				applied[j].Match = &m
			}
		}
		out, changes := enrich(f, applied)
		if out != nil {
			applyZone(out.Properties, changes, o.zoneA, o.zoneB)
		}
		res.Collection.Features[i] = out
	}
	return res, nil
}
