package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
)

// SQLiteStore implements MetricStore over an offline snapshot of the metric
// tables.
type SQLiteStore struct {
	db     *sql.DB
	tables Tables
}

// NewSQLite opens the snapshot at dsn read-only.
func NewSQLite(dsn string, tables Tables) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA query_only=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, tables: tables.withDefaults()}, nil
}

// Population reads the county population table.
func (s *SQLiteStore) Population(ctx context.Context) ([]*metric.Record, error) {
	return s.read(ctx, "population", populationQuery(s.tables.Population, "REAL"), populationRow)
}

// GDP reads the county tourism GDP table.
func (s *SQLiteStore) GDP(ctx context.Context) ([]*metric.Record, error) {
	return s.read(ctx, "gdp", gdpQuery(s.tables.GDP, "REAL"), gdpRow)
}

func (s *SQLiteStore) read(ctx context.Context, what, query string, scan func(scanner) (*metric.Record, error)) ([]*metric.Record, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query %s", what)
	}
	defer rows.Close() //nolint:errcheck

	var records []*metric.Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", what)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: iterate %s", what)
	}

	zap.L().Debug("sqlite: loaded metric table",
		zap.String("dataset", what),
		zap.Int("rows", len(records)),
	)
	return records, nil
}

// Ping checks the database file is readable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
