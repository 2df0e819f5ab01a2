// Package app wires the authcore server runtime: config, logging, storage, HTTP routes and metrics.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"authcore/cmd/apperr"
	"authcore/cmd/identity"
	authapi "authcore/cmd/internal/auth/api"
	"authcore/cmd/internal/auth/session"
	"authcore/cmd/internal/metrics"
	"authcore/cmd/internal/migrations"
	"authcore/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App owns the HTTP server and every resource that must be closed on shutdown.
type App struct {
	cfg Config
	log Logger

	pool     *pgxpool.Pool
	migrator *migrations.Migrator
	metrics  *metrics.Recorder

	handler http.Handler
}

// New constructs a fully wired App. A missing pepper or invalid session settings return a
// configuration error; the caller must not start serving.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	const op = "app.New"

	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.logFormat(), os.Stdout)
	}
	a := &App{cfg: cfg, log: log, metrics: metrics.New()}

	hasher, err := password.New(password.ConfigFor(cfg.Production(), cfg.Pepper), password.WithObserver(a.metrics))
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.Config{TTL: cfg.SessionTTL, RenewAfter: cfg.SessionRenewAfter}.Validate()
	if err != nil {
		return nil, apperr.Configuration(op, "invalid session settings", err)
	}

	userStore, sessStore, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	users, err := identity.NewRegistry(userStore, hasher, identity.WithLogger(log))
	if err != nil {
		a.Close()
		return nil, err
	}
	sessions, err := session.NewService(sessCfg, sessStore, session.WithObserver(a.metrics))
	if err != nil {
		a.Close()
		return nil, err
	}

	var opts []authapi.HandlerOption
	if a.pool != nil {
		opts = append(opts,
			authapi.WithStatusProbe(authapi.NewPostgresProbe(a.pool)),
			authapi.WithMigrator(a.migrator),
		)
	}
	api, err := authapi.NewHandler(log, users, sessions,
		authapi.NewCookies(cfg.Production(), sessions.TTL()),
		authapi.Config{MaxBodyBytes: cfg.MaxBodyBytes, QueryTimeout: cfg.DBQueryTimeout},
		opts...,
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.handler = a.routes(api)

	log.Info("app.ready",
		"env", cfg.Env,
		"db_enabled", a.pool != nil,
		"bcrypt_cost", hasher.Cost(),
		"session_ttl", sessCfg.TTL.String(),
		"session_renew_after", sessCfg.RenewAfter.String(),
	)
	return a, nil
}

// openStores picks Postgres when a database URL is configured and in-memory stores otherwise.
func (a *App) openStores(ctx context.Context) (identity.Store, session.Store, error) {
	if a.cfg.DatabaseURL == "" {
		if a.cfg.Production() {
			a.log.Warn("db.disabled.inmemory_store", "reason", "no database url in production")
		} else {
			a.log.Info("db.disabled.inmemory_store")
		}
		return identity.NewMemoryStore(), session.NewMemoryStore(), nil
	}

	pool, err := NewDBPool(ctx, a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	a.pool = pool

	m, err := migrations.New(pool, a.log)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	a.migrator = m

	if a.cfg.AutoMigrate {
		applied, err := m.Up(ctx)
		if err != nil {
			a.Close()
			return nil, nil, err
		}
		a.log.Info("db.migrate.done", "applied", len(applied))
	}

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	sessions, err := session.NewPostgresStore(pool)
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	a.log.Info("db.enabled.postgres_store")
	return users, sessions, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Close releases the migration bridge and the pool. It is safe to call more than once.
func (a *App) Close() {
	if a.migrator != nil {
		if err := a.migrator.Close(); err != nil {
			a.log.Error("db.migrator.close.fail", "err", err)
		}
		a.migrator = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.pool != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
