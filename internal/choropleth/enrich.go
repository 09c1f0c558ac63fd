package choropleth

import (
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/classify"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/county"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/geo"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
)

// Output properties that do not depend on a dataset.
const (
	PropCountyName = "countyName"
	PropCenter     = "center"
	PropZone       = "correlationZone"
	PropZoneColor  = "correlationZoneColor"
)

// Classification suffixes appended to a dataset's change field.
const (
	suffixBucket      = "Bucket"
	suffixBucketColor = "BucketColor"
	suffixColor       = "Color"
)

// Applied pairs a dataset with the feature's match in it. A nil Match means
// the dataset had no record for the feature.
type Applied struct {
	Dataset metric.Dataset
	Match   *Match
}

// Enrich returns a new feature carrying f's geometry and a copy of its
// properties extended with each dataset's values, change, and buckets. f is
// never modified. Datasets are applied independently, so a missing match in
// one does not affect another.
func Enrich(f *geo.Feature, applied ...Applied) *geo.Feature {
	out, _ := enrich(f, applied)
	return out
}

// changeValues holds the change values this run wrote, keyed by the change
// field and each of its aliases. Fields absent from the map were not produced.
type changeValues map[string]*float64

func enrich(f *geo.Feature, applied []Applied) (*geo.Feature, changeValues) {
	if f == nil {
		return nil, nil
	}
	out := f.WithProperties()
	props := out.Properties

	props[PropCountyName] = displayName(f.Properties, applied)
	if c, ok := geo.Center(f.Geometry); ok {
		props[PropCenter] = []float64{c[0], c[1]}
	}

	changes := changeValues{}
	for _, a := range applied {
		var rec *metric.Record
		if a.Match != nil {
			rec = a.Match.Record
		}
		applyDataset(props, changes, a.Dataset, rec)
	}
	return out, changes
}

// displayName prefers the first matched record's name, then the feature's
// own name fields. State abbreviations are spelled out.
func displayName(props map[string]any, applied []Applied) string {
	for _, a := range applied {
		if a.Match != nil && a.Match.Record != nil && a.Match.Record.Name != "" {
			return county.ExpandStateAbbreviation(a.Match.Record.Name)
		}
	}
	return county.ExpandStateAbbreviation(county.FeatureName(props))
}

func applyDataset(props geo.Properties, changes changeValues, ds metric.Dataset, rec *metric.Record) {
	var change *float64
	if rec != nil {
		for _, year := range ds.Years {
			props[ds.ValueField(year)] = nullable(rec.Value(year))
		}
		change = ds.Change(rec)
		for _, g := range ds.Growth {
			props[g.Field] = nullable(metric.PercentChange(rec.Value(g.To), rec.Value(g.From)))
		}
		if ds.RangeField != "" && len(ds.Ranges) > 0 {
			r := classify.Lookup(ds.Ranges, rec.Value(ds.Latest()))
			props[ds.RangeField] = r.Label
			props[ds.RangeField+suffixColor] = r.Color
		}
	}

	if ds.ChangeField == "" {
		return
	}
	props[ds.ChangeField] = nullable(change)
	changes[ds.ChangeField] = change
	for _, alias := range ds.ChangeAliases {
		props[alias] = nullable(change)
		changes[alias] = change
	}
	b := classify.Bucket(change)
	props[ds.ChangeField+suffixBucket] = b.Label
	props[ds.ChangeField+suffixBucketColor] = b.Color
	props[ds.ChangeField+suffixColor] = classify.ChangeColor(change)
}

// applyZone writes the correlation zone when both change fields were
// produced with a value. Zone properties carried over from the input are
// dropped otherwise.
func applyZone(props geo.Properties, changes changeValues, fieldA, fieldB string) {
	delete(props, PropZone)
	delete(props, PropZoneColor)
	z := classify.ZoneOf(changes[fieldA], changes[fieldB])
	if z == nil {
		return
	}
	props[PropZone] = string(*z)
	props[PropZoneColor] = z.Color()
}

// nullable turns a nil pointer into a JSON null and anything else into its
// value.
func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
