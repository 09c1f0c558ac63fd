// Package geo models the GeoJSON feature collections the choropleth layers
// render and provides geometry helpers on top of go-geom.
package geo

import (
	"bytes"
	"encoding/json"
	"io"
	"maps"

	"github.com/rotisserie/eris"
)

// Collection and feature type names.
const (
	TypeFeatureCollection = "FeatureCollection"
	TypeFeature           = "Feature"
)

var (
	// ErrMissingType is returned when a collection has no "type" member.
	ErrMissingType = eris.New("geo: feature collection missing type")
	// ErrMissingFeatures is returned when a collection has no "features" member.
	ErrMissingFeatures = eris.New("geo: feature collection missing features")
)

// Properties is the open property bag of a feature. Its shape varies by
// data provider.
type Properties map[string]any

// Feature is a polygon feature. Geometry is kept as raw JSON so it passes
// through enrichment untouched.
type Feature struct {
	Type       string          `json:"type"`
	ID         any             `json:"id,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties Properties      `json:"properties"`
}

// FeatureCollection is a GeoJSON FeatureCollection. Feature identity is the
// index within Features.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// Validate reports structural contract violations: a missing type or a
// missing features member. An empty features array is valid.
func (fc *FeatureCollection) Validate() error {
	if fc == nil || fc.Type == "" {
		return ErrMissingType
	}
	if fc.Features == nil {
		return ErrMissingFeatures
	}
	return nil
}

// Decode reads and validates a feature collection.
func Decode(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "geo: decode feature collection")
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) (*FeatureCollection, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes the collection as JSON.
func Encode(w io.Writer, fc *FeatureCollection) error {
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return eris.Wrap(err, "geo: encode feature collection")
	}
	return nil
}

// WithProperties returns a shallow copy of f whose property bag is a fresh
// map holding f's properties. The receiver is not modified.
func (f *Feature) WithProperties() *Feature {
	props := make(Properties, len(f.Properties)+8)
	maps.Copy(props, f.Properties)
	return &Feature{
		Type:       f.Type,
		ID:         f.ID,
		Geometry:   f.Geometry,
		Properties: props,
	}
}
