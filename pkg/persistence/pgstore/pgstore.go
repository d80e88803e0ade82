// Package pgstore implements the persistence contract on PostgreSQL via
// pgx. Every table is scoped by project_id so one database serves many
// projects; a Store is bound to exactly one project, matching the
// per-project addressing of the HTTP contract.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence"
)

// Pool wraps the shared connection pool and hands out project-bound
// stores.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects, verifies connectivity and runs migrations.
func NewPool(ctx context.Context, databaseURL string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	p := &Pool{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return p, nil
}

// Ping checks database connectivity.
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the connection pool.
func (p *Pool) Close() error {
	p.pool.Close()
	return nil
}

// Project returns a store bound to the given project id.
func (p *Pool) Project(projectID string) *Store {
	return &Store{pool: p.pool, projectID: projectID}
}

// Store implements persistence.Client for one project.
type Store struct {
	pool      *pgxpool.Pool
	projectID string
}

var _ persistence.Client = (*Store)(nil)

func (p *Pool) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			project_id     TEXT NOT NULL,
			id             TEXT NOT NULL,
			name           TEXT NOT NULL,
			category       TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			notes          TEXT NOT NULL DEFAULT '',
			parent_node_id TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (project_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			project_id       TEXT NOT NULL,
			id               TEXT NOT NULL,
			source_node_id   TEXT NOT NULL,
			target_node_id   TEXT NOT NULL,
			source_handle_id TEXT NOT NULL DEFAULT '',
			target_handle_id TEXT NOT NULL DEFAULT '',
			direction        TEXT NOT NULL,
			name             TEXT NOT NULL DEFAULT '',
			protocol         TEXT NOT NULL DEFAULT '',
			description      TEXT NOT NULL DEFAULT '',
			notes            TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (project_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS data_objects (
			project_id      TEXT NOT NULL,
			id              TEXT NOT NULL,
			name            TEXT NOT NULL,
			data_class      TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			confidentiality INT  NOT NULL,
			integrity       INT  NOT NULL,
			availability    INT  NOT NULL,
			PRIMARY KEY (project_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS component_data (
			project_id     TEXT NOT NULL,
			node_id        TEXT NOT NULL,
			data_object_id TEXT NOT NULL,
			role           TEXT NOT NULL,
			PRIMARY KEY (project_id, node_id, data_object_id)
		)`,
		`CREATE TABLE IF NOT EXISTS edge_flows (
			project_id     TEXT NOT NULL,
			edge_id        TEXT NOT NULL,
			data_object_id TEXT NOT NULL,
			direction      TEXT NOT NULL,
			PRIMARY KEY (project_id, edge_id, data_object_id)
		)`,
		`CREATE TABLE IF NOT EXISTS savepoints (
			project_id TEXT NOT NULL,
			id         TEXT NOT NULL,
			title      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			state      JSONB NOT NULL,
			PRIMARY KEY (project_id, id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
