// Package migrations embeds the SQL schema and runs it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

// ErrNilPool is returned when New is called without a pool.
var ErrNilPool = errors.New("migrations: nil pool")

// Migration describes one schema migration file.
type Migration struct {
	Version int64  `json:"version"`
	Name    string `json:"name"`
	Path    string `json:"path"`
}

// Migrator lists and applies embedded migrations against one pool.
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
	log      *slog.Logger
}

// New bridges pool to database/sql (goose does not speak pgx natively) and builds a provider.
// The caller owns pool; Close only releases the bridge.
func New(pool *pgxpool.Pool, log *slog.Logger) (*Migrator, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if log == nil {
		log = slog.Default()
	}

	db := stdlib.OpenDBFromPool(pool)
	p, err := goose.NewProvider(goose.DialectPostgres, db, FS)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: provider: %w", err)
	}
	return &Migrator{db: db, provider: p, log: log}, nil
}

// Pending lists migrations not yet applied (dry run).
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrations: status: %w", err)
	}

	out := make([]Migration, 0, len(statuses))
	for _, st := range statuses {
		if st == nil || st.Source == nil || st.State != goose.StatePending {
			continue
		}
		out = append(out, toMigration(st.Source))
	}
	return out, nil
}

// Up applies all pending migrations and returns those applied.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrations: up: %w", err)
	}

	out := make([]Migration, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		mig := toMigration(r.Source)
		m.log.Info("db.migration.applied",
			"version", mig.Version,
			"name", mig.Name,
			"duration_ms", r.Duration.Milliseconds(),
		)
		out = append(out, mig)
	}
	return out, nil
}

// Close releases the database/sql bridge. The pgx pool stays open.
func (m *Migrator) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

func toMigration(src *goose.Source) Migration {
	base := path.Base(src.Path)
	name := strings.TrimSuffix(base, path.Ext(base))
	if i := strings.IndexByte(name, '_'); i >= 0 {
		name = name[i+1:]
	}
	return Migration{Version: src.Version, Name: name, Path: base}
}
