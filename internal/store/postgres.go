package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// PostgresStore implements MetricStore over pgx.
type PostgresStore struct {
	pool   Pool
	tables Tables
}

// NewPostgres connects a pool and returns a store over it.
func NewPostgres(ctx context.Context, connString string, tables Tables, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 0
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return NewPostgresWithPool(pool, tables), nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool, tables Tables) *PostgresStore {
	return &PostgresStore{pool: pool, tables: tables.withDefaults()}
}

// Population reads the county population table.
func (s *PostgresStore) Population(ctx context.Context) ([]*metric.Record, error) {
	return s.read(ctx, "population", populationQuery(s.tables.Population, "double precision"), populationRow)
}

// GDP reads the county tourism GDP table.
func (s *PostgresStore) GDP(ctx context.Context) ([]*metric.Record, error) {
	return s.read(ctx, "gdp", gdpQuery(s.tables.GDP, "double precision"), gdpRow)
}

func (s *PostgresStore) read(ctx context.Context, what, sql string, scan func(scanner) (*metric.Record, error)) ([]*metric.Record, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query %s", what)
	}
	defer rows.Close()

	var records []*metric.Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", what)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: iterate %s", what)
	}

	zap.L().Debug("postgres: loaded metric table",
		zap.String("dataset", what),
		zap.Int("rows", len(records)),
	)
	return records, nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
