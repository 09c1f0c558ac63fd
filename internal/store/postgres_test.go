package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock, Tables{}), mock
}

func strPtr(s string) *string   { return &s }
func fltPtr(f float64) *float64 { return &f }
func nilStr() *string           { return nil }
func nilFlt() *float64          { return nil }

func TestPostgres_Population(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := mock.NewRows([]string{"geo_id", "name", "population_2010", "population_2020", "change"}).
		AddRow(strPtr("0500000US01001"), strPtr("Autauga County, Alabama"), fltPtr(54571), fltPtr(58805), nilFlt()).
		AddRow(strPtr("06037"), strPtr("Los Angeles County, California"), fltPtr(9818605), fltPtr(10014009), fltPtr(1.99)).
		AddRow(nilStr(), strPtr("Nowhere County"), nilFlt(), nilFlt(), nilFlt())
	mock.ExpectQuery(`FROM "county-population"`).WillReturnRows(rows)

	records, err := s.Population(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "01001", records[0].Code)
	assert.Equal(t, "Autauga County, Alabama", records[0].Name)
	assert.InDelta(t, 54571, *records[0].Value(2010), 0)
	assert.InDelta(t, 58805, *records[0].Value(2020), 0)
	assert.Nil(t, records[0].Change)

	assert.Equal(t, "06037", records[1].Code)
	require.NotNil(t, records[1].Change)
	assert.InDelta(t, 1.99, *records[1].Change, 1e-9)

	assert.Empty(t, records[2].Code)
	assert.Nil(t, records[2].Value(2010))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// gdpMockRow builds a county-gdp row with values for 2019..2023 and nulls for the
// earlier years of the series.
func gdpMockRow(fips, name *string, maa *float64, recent ...*float64) []any {
	row := []any{fips, name}
	years := metric.GDP.SeriesYears()
	for i := 0; i < len(years)-len(recent); i++ {
		row = append(row, nilFlt())
	}
	for _, v := range recent {
		row = append(row, v)
	}
	return append(row, maa)
}

func TestPostgres_GDP(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{"geofips", "geoname"}
	for _, y := range metric.GDP.SeriesYears() {
		cols = append(cols, fmt.Sprintf("gdp_%d", y))
	}
	cols = append(cols, "moving-annual-average")

	rows := mock.NewRows(cols).
		AddRow(gdpMockRow(strPtr("56029"), strPtr("Park, WY"), fltPtr(4.5), fltPtr(100), fltPtr(80), fltPtr(95), fltPtr(110), fltPtr(121))...).
		AddRow(gdpMockRow(strPtr("1001"), strPtr("Autauga, AL"), nilFlt(), nilFlt(), fltPtr(10), fltPtr(11), fltPtr(12), fltPtr(13))...)
	mock.ExpectQuery(`FROM "county-gdp"`).WillReturnRows(rows)

	records, err := s.GDP(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "56029", records[0].Code)
	assert.InDelta(t, 121, *records[0].Value(2023), 0)
	assert.InDelta(t, 4.5, *records[0].Change, 1e-9)

	assert.Equal(t, "01001", records[1].Code)
	assert.Nil(t, records[1].Value(2019))
	assert.Nil(t, records[1].Change)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CustomTable(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithPool(mock, Tables{Population: "pop_snapshot"})
	mock.ExpectQuery(`FROM "pop_snapshot"`).
		WillReturnRows(mock.NewRows([]string{"geo_id", "name", "population_2010", "population_2020", "change"}))

	records, err := s.Population(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM "county-gdp"`).WillReturnError(errors.New("relation does not exist"))

	_, err := s.GDP(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: query gdp")
}

func TestPostgres_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithPool(mock, Tables{})
	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM "county-population"`).
		WillReturnRows(mock.NewRows([]string{"geo_id", "name", "population_2010", "population_2020", "change"}))

	_, err := Load(context.Background(), s, "population")
	require.NoError(t, err)

	_, err = Load(context.Background(), s, "rainfall")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dataset")
}
