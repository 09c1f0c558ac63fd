package tiger

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/geo"
)

// ReadCounties reads a TIGER/Line county shapefile into a feature
// collection. Every attribute becomes a string property (STATEFP, COUNTYFP,
// GEOID, NAME, NAMELSAD, ...) and GEOID doubles as the feature id. Records
// whose geometry cannot be converted are skipped.
func ReadCounties(shpPath string) (*geo.FeatureCollection, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "tiger: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	fc := &geo.FeatureCollection{
		Type:     geo.TypeFeatureCollection,
		Features: []*geo.Feature{},
	}
	var skipped int

	for reader.Next() {
		n, shape := reader.Shape()

		props := make(geo.Properties, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.ReadAttribute(n, i), "\x00"))
			if val != "" {
				props[name] = val
			}
		}

		g := ShapeGeometry(shape)
		if g == nil {
			skipped++
			continue
		}
		raw, err := geo.EncodeGeometry(g)
		if err != nil {
			skipped++
			continue
		}

		f := &geo.Feature{Type: geo.TypeFeature, Geometry: raw, Properties: props}
		if id, ok := props["GEOID"]; ok {
			f.ID = id
		}
		fc.Features = append(fc.Features, f)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "tiger: read shapefile %s", shpPath)
	}

	if skipped > 0 {
		zap.L().Debug("tiger: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	return fc, nil
}
