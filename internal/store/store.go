// Package store reads the county metric tables (population and tourism
// GDP) that back the choropleth layers. Stores are read-only.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
)

// Default table names, matching the hosted database.
const (
	DefaultPopulationTable = "county-population"
	DefaultGDPTable        = "county-gdp"
)

// Tables names the source tables.
type Tables struct {
	Population string `yaml:"population" mapstructure:"population"`
	GDP        string `yaml:"gdp" mapstructure:"gdp"`
}

func (t Tables) withDefaults() Tables {
	if t.Population == "" {
		t.Population = DefaultPopulationTable
	}
	if t.GDP == "" {
		t.GDP = DefaultGDPTable
	}
	return t
}

// MetricStore loads whole metric tables into records.
type MetricStore interface {
	Population(ctx context.Context) ([]*metric.Record, error)
	GDP(ctx context.Context) ([]*metric.Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Load reads the table for the named dataset.
func Load(ctx context.Context, s MetricStore, dataset string) ([]*metric.Record, error) {
	switch dataset {
	case metric.Population.Name:
		return s.Population(ctx)
	case metric.GDP.Name:
		return s.GDP(ctx)
	default:
		return nil, eris.Errorf("store: unknown dataset %q", dataset)
	}
}

// scanner is the row interface shared by pgx.Rows and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// populationRow scans geo_id, name, population_2010, population_2020, change.
func populationRow(row scanner) (*metric.Record, error) {
	var (
		geoID, name  *string
		p2010, p2020 *float64
		change       *float64
	)
	if err := row.Scan(&geoID, &name, &p2010, &p2020, &change); err != nil {
		return nil, err
	}
	code := ""
	if geoID != nil {
		code = codeFromGeoID(*geoID)
	}
	rec := metric.NewRecord(code, deref(name))
	rec.Set(2010, p2010)
	rec.Set(2020, p2020)
	rec.Change = change
	return rec, nil
}

// gdpRow scans geofips, geoname, one column per metric.GDP series year, and the
// moving annual average.
func gdpRow(row scanner) (*metric.Record, error) {
	years := metric.GDP.SeriesYears()
	var fips, name *string
	values := make([]*float64, len(years))
	var maa *float64

	dest := make([]any, 0, len(values)+3)
	dest = append(dest, &fips, &name)
	for i := range values {
		dest = append(dest, &values[i])
	}
	dest = append(dest, &maa)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	code := ""
	if fips != nil {
		code = codeFromGeoID(*fips)
	}
	rec := metric.NewRecord(code, deref(name))
	for i, year := range years {
		rec.Set(year, values[i])
	}
	rec.Change = maa
	return rec, nil
}
