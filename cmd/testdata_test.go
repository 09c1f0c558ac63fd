package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/config"
)

const countiesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "01001",
     "properties": {"NAME": "Autauga", "LSAD": "County"},
     "geometry": {"type": "Polygon", "coordinates": [[[-86.9, 32.3], [-86.4, 32.3], [-86.4, 32.7], [-86.9, 32.7], [-86.9, 32.3]]]}},
    {"type": "Feature",
     "properties": {"NAME": "Baldwin County, Alabama"},
     "geometry": {"type": "Polygon", "coordinates": [[[-88.0, 30.2], [-87.4, 30.2], [-87.4, 31.3], [-88.0, 31.3], [-88.0, 30.2]]]}},
    {"type": "Feature", "id": "56029",
     "properties": {"NAME": "Park"},
     "geometry": null}
  ]
}`

const population2010CSV = `GEO_ID,NAME,P001001
id,Geographic Area Name,Total
0500000US01001,"Autauga County, Alabama",54571
,"Baldwin County, Alabama",182265
`

const population2020CSV = `GEO_ID,NAME,P1_001N
Geography,Geographic Area Name,!!Total
0500000US01001,"Autauga County, Alabama",58805
,"Baldwin County, Alabama",231767
`

const gdpCSV = `"GeoFips","GeoName","2019","2020","2021","2022","2023"
"01001","Autauga, AL","100","80","95","110","121"
"56029","Park, WY","(D)","50","55","60","66"
`

// testConfig writes the fixtures to a temp dir and returns a files-mode
// config pointing at them.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	c := &config.Config{}
	c.Sources.Geometry = write("counties.geojson", countiesGeoJSON)
	c.Sources.Metrics = "files"
	c.Sources.Population2010 = write("pop2010.csv", population2010CSV)
	c.Sources.Population2020 = write("pop2020.csv", population2020CSV)
	c.Sources.GDP = write("gdp.csv", gdpCSV)
	c.Fetch.CacheDir = filepath.Join(dir, "cache")
	c.Tiger.Dir = filepath.Join(dir, "tiger")
	return c
}
