package authapi

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseStatus is what the status endpoint reports about the database.
type DatabaseStatus struct {
	Version           string
	MaxConnections    int
	OpenedConnections int
}

// StatusProbe reads database health figures.
type StatusProbe interface {
	DatabaseStatus(ctx context.Context) (DatabaseStatus, error)
}

// PostgresProbe reads server settings and the connection count of the current database.
type PostgresProbe struct {
	pool *pgxpool.Pool
}

// NewPostgresProbe returns a probe over pool.
func NewPostgresProbe(pool *pgxpool.Pool) *PostgresProbe {
	return &PostgresProbe{pool: pool}
}

func (p *PostgresProbe) DatabaseStatus(ctx context.Context) (DatabaseStatus, error) {
	var out DatabaseStatus

	if err := p.pool.QueryRow(ctx, `SHOW server_version`).Scan(&out.Version); err != nil {
		return DatabaseStatus{}, fmt.Errorf("status: server_version: %w", err)
	}

	var maxConns string
	if err := p.pool.QueryRow(ctx, `SHOW max_connections`).Scan(&maxConns); err != nil {
		return DatabaseStatus{}, fmt.Errorf("status: max_connections: %w", err)
	}
	n, err := strconv.Atoi(maxConns)
	if err != nil {
		return DatabaseStatus{}, fmt.Errorf("status: max_connections %q: %w", maxConns, err)
	}
	out.MaxConnections = n

	if err := p.pool.QueryRow(ctx, `
		SELECT count(*)::int
		FROM pg_stat_activity
		WHERE datname = current_database()
	`).Scan(&out.OpenedConnections); err != nil {
		return DatabaseStatus{}, fmt.Errorf("status: opened_connections: %w", err)
	}
	return out, nil
}
