// internal/common/database/postgres.go

// Package database holds the thin connection wrappers for the three
// backing stores: Postgres for citizen profiles, Elasticsearch for the
// opportunity catalog, Redis for sessions and the profile cache. Query
// logic lives with the stores that own the data, not here.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sahayak-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient owns the profile database pool. DB is exported so the
// profile store can run transactions and tests can inject sqlmock.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// QueryRow runs a single-row query against the pool.
func (c *PostgresClient) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.DB.QueryRowContext(ctx, query, args...)
}

// Exec runs a statement that returns no rows.
func (c *PostgresClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}
