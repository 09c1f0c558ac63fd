package geo

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// DecodeGeometry parses a raw GeoJSON geometry into a go-geom value.
func DecodeGeometry(raw json.RawMessage) (geom.T, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, eris.New("geo: empty geometry")
	}
	var g geojson.Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, eris.Wrap(err, "geo: unmarshal geometry")
	}
	t, err := g.Decode()
	if err != nil {
		return nil, eris.Wrap(err, "geo: decode geometry")
	}
	return t, nil
}

// EncodeGeometry renders a go-geom value as raw GeoJSON.
func EncodeGeometry(t geom.T) (json.RawMessage, error) {
	g, err := geojson.Encode(t)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode geometry")
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal geometry")
	}
	return data, nil
}

// Center returns the [lon, lat] midpoint of the geometry's bounding box,
// which is where info windows anchor. It reports false for empty or
// undecodable geometry.
func Center(raw json.RawMessage) ([2]float64, bool) {
	t, err := DecodeGeometry(raw)
	if err != nil {
		return [2]float64{}, false
	}
	b := t.Bounds()
	if b == nil || b.IsEmpty() {
		return [2]float64{}, false
	}
	return [2]float64{
		(b.Min(0) + b.Max(0)) / 2,
		(b.Min(1) + b.Max(1)) / 2,
	}, true
}
