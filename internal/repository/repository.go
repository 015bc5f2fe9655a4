// Package repository stores meetings in PostgreSQL.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// applicationName tags meetings API sessions in pg_stat_activity.
const applicationName = "meetings-api"

// PoolOptions tunes the meetings connection pool. Zero values keep the
// driver defaults.
type PoolOptions struct {
	MaxConns int32
	MinConns int32

	// StatementTimeout bounds every query server-side. Busy-hours scans
	// read a user's whole window, so a stuck plan must not pin a conn.
	StatementTimeout time.Duration

	// MaxConnIdleTime releases conns left over from create bursts.
	MaxConnIdleTime time.Duration
}

// DefaultPoolOptions returns the pool settings used when nothing is configured.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:         25,
		MinConns:         5,
		StatementTimeout: 5 * time.Second,
		MaxConnIdleTime:  5 * time.Minute,
	}
}

// Repository provides meeting persistence on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and verifies the connection.
func New(ctx context.Context, databaseURL string, opts PoolOptions) (*Repository, error) {
	config, err := poolConfig(databaseURL, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create meetings pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

func poolConfig(databaseURL string, opts PoolOptions) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 && opts.MinConns <= config.MaxConns {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	params := config.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = applicationName
	}
	if opts.StatementTimeout > 0 {
		params["statement_timeout"] = fmt.Sprint(opts.StatementTimeout.Milliseconds())
	}

	return config, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool exposes the pool for schema setup in tests and migrations.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
