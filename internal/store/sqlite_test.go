package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteFixture = `
CREATE TABLE "county-population" (
	geo_id TEXT, name TEXT, population_2010 INTEGER, population_2020 INTEGER, change REAL
);
INSERT INTO "county-population" VALUES
	('0500000US01001', 'Autauga County, Alabama', 54571, 58805, NULL),
	('0500000US06037', 'Los Angeles County, California', 9818605, 10014009, 1.99);

CREATE TABLE "county-gdp" (
	geofips TEXT, geoname TEXT,
	gdp_2013 REAL, gdp_2014 REAL, gdp_2015 REAL, gdp_2016 REAL, gdp_2017 REAL, gdp_2018 REAL,
	gdp_2019 REAL, gdp_2020 REAL, gdp_2021 REAL, gdp_2022 REAL, gdp_2023 REAL,
	"moving-annual-average" REAL
);
INSERT INTO "county-gdp" VALUES
	('56029', 'Park, WY', NULL, NULL, NULL, NULL, NULL, NULL, 100, 80, 95, 110, 121, 4.5),
	('01001', 'Autauga, AL', 5, 6, 7, 8, 9, NULL, NULL, 10, 11, 12, 13, NULL);
`

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(sqliteFixture)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := NewSQLite(path, Tables{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_Population(t *testing.T) {
	s := newTestSQLite(t)

	records, err := s.Population(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "01001", records[0].Code)
	assert.InDelta(t, 58805, *records[0].Value(2020), 0)
	assert.Nil(t, records[0].Change)
	assert.Equal(t, "06037", records[1].Code)
	assert.InDelta(t, 1.99, *records[1].Change, 1e-9)
}

func TestSQLite_GDP(t *testing.T) {
	s := newTestSQLite(t)

	records, err := Load(context.Background(), s, "gdp")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// ordered by geofips
	assert.Equal(t, "01001", records[0].Code)
	assert.Nil(t, records[0].Value(2019))
	assert.InDelta(t, 13, *records[0].Value(2023), 0)
	assert.InDelta(t, 5, *records[0].Value(2013), 0)

	assert.Equal(t, "56029", records[1].Code)
	assert.Equal(t, "Park, WY", records[1].Name)
	assert.InDelta(t, 4.5, *records[1].Change, 1e-9)
}

func TestSQLite_ReadOnly(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Ping(context.Background()))

	_, err := s.db.Exec(`DELETE FROM "county-gdp"`)
	assert.Error(t, err)
}

func TestSQLite_MissingTable(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "empty.db"), Tables{})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	_, err = s.Population(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: query population")
}
