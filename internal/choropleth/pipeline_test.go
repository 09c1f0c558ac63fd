package choropleth

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/geo"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
)

type recordingObserver struct {
	seen map[string]Diagnostics
}

func (r *recordingObserver) ObserveMatch(source string, d Diagnostics) {
	if r.seen == nil {
		r.seen = make(map[string]Diagnostics)
	}
	r.seen[source] = d
}

const scenario = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"GEO_ID": "0500000US01001", "NAME": "Autauga", "LSAD": "County"}, "geometry": null},
    {"type": "Feature", "properties": {"NAME": "Baldwin County, Alabama"}, "geometry": null}
  ]
}`

func TestRun_EndToEnd(t *testing.T) {
	fc, err := geo.DecodeBytes([]byte(scenario))
	require.NoError(t, err)
	before, err := json.Marshal(fc)
	require.NoError(t, err)

	pop := Source{
		Dataset: metric.Population,
		ByCode: map[string]*metric.Record{
			"01001": record("01001", "Autauga County, Alabama", map[int]float64{2010: 54571, 2020: 58805}),
		},
		ByName: map[string]*metric.Record{
			"baldwin county alabama": record("", "", map[int]float64{2010: 182265, 2020: 231767}),
		},
	}
	gdp := NewSource(metric.GDP, []*metric.Record{
		record("01001", "Autauga, AL", map[int]float64{2019: 100, 2020: 110, 2021: 121, 2022: 133.1, 2023: 146.41}),
	})

	obs := &recordingObserver{}
	res, err := Run(fc, []Source{pop, gdp}, WithObserver(obs))
	require.NoError(t, err)

	assert.Equal(t, Diagnostics{Total: 2, MatchedByCode: 1, MatchedByName: 1, Unmatched: 0}, res.Diagnostics["population"])
	assert.Equal(t, Diagnostics{Total: 2, MatchedByCode: 1, MatchedByName: 0, Unmatched: 1}, res.Diagnostics["gdp"])
	assert.Equal(t, res.Diagnostics, obs.seen)

	require.Len(t, res.Collection.Features, 2)
	autauga := res.Collection.Features[0].Properties
	assert.Equal(t, "Autauga County, Alabama", autauga[PropCountyName])
	assert.Equal(t, 7.76, autauga["populationChange"])
	assert.Equal(t, 10.0, autauga["movingAnnualAverage"])
	assert.Equal(t, "high", autauga[PropZone])

	baldwin := res.Collection.Features[1].Properties
	assert.Equal(t, "Baldwin County, Alabama", baldwin[PropCountyName])
	assert.Equal(t, 27.16, baldwin["populationChange"])
	_, zoned := baldwin[PropZone]
	assert.False(t, zoned)

	after, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.NotSame(t, fc, res.Collection)
}

func TestRun_InvalidCollection(t *testing.T) {
	tests := []struct {
		name string
		fc   *geo.FeatureCollection
	}{
		{name: "nil", fc: nil},
		{name: "missing type", fc: &geo.FeatureCollection{Features: []*geo.Feature{}}},
		{name: "missing features", fc: &geo.FeatureCollection{Type: geo.TypeFeatureCollection}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(tt.fc, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCollection)
			assert.Nil(t, res)
		})
	}
}

func TestRun_EmptyCollection(t *testing.T) {
	fc := &geo.FeatureCollection{Type: geo.TypeFeatureCollection, Features: []*geo.Feature{}}

	res, err := Run(fc, []Source{NewSource(metric.Population, nil)})
	require.NoError(t, err)

	assert.Empty(t, res.Collection.Features)
	assert.Equal(t, Diagnostics{}, res.Diagnostics["population"])

	var buf bytes.Buffer
	require.NoError(t, geo.Encode(&buf, res.Collection))
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, buf.String())
}

func TestRun_CustomZoneFields(t *testing.T) {
	fc := &geo.FeatureCollection{
		Type:     geo.TypeFeatureCollection,
		Features: []*geo.Feature{feature(geo.Properties{"GEO_ID": "0500000US01001"})},
	}
	rec := record("01001", "Autauga County, Alabama", map[int]float64{2010: 100, 2020: 90})

	res, err := Run(fc, []Source{NewSource(metric.Population, []*metric.Record{rec})},
		WithZoneFields("populationChange", "change"))
	require.NoError(t, err)

	assert.Equal(t, "low", res.Collection.Features[0].Properties[PropZone])
}

func TestRun_ZoneIgnoresInputProperties(t *testing.T) {
	tests := []struct {
		name  string
		props geo.Properties
	}{
		{name: "stale tourism change", props: geo.Properties{"GEO_ID": "0500000US01001", "tourismChange": 10.0}},
		{name: "stale zone", props: geo.Properties{"GEO_ID": "0500000US01001", "tourismChange": 10.0, PropZone: "high"}},
	}
	rec := record("01001", "Autauga County, Alabama", map[int]float64{2010: 100, 2020: 120})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &geo.FeatureCollection{
				Type:     geo.TypeFeatureCollection,
				Features: []*geo.Feature{feature(tt.props)},
			}

			res, err := Run(fc, []Source{NewSource(metric.Population, []*metric.Record{rec})})
			require.NoError(t, err)

			out := res.Collection.Features[0].Properties
			assert.Equal(t, 20.0, out["populationChange"])
			assert.Equal(t, 10.0, out["tourismChange"])
			assert.NotContains(t, out, PropZone)
		})
	}
}
