package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDBPool builds a pgxpool from cfg and waits until the database accepts a connection.
// Connection attempts back off linearly (interval, 2x interval, ...) and stop early on ctx.
func NewDBPool(ctx context.Context, cfg Config, log *slog.Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: parse url: %w", err)
	}

	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns >= 0 {
		pcfg.MinConns = cfg.DBMinConns
	}

	attempts := cfg.DBConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := range attempts {
		if i > 0 {
			wait := time.Duration(i) * cfg.DBConnectInterval
			log.Warn("db.connect.retry", "attempt", i+1, "wait_ms", wait.Milliseconds(), "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		pool, err := pgxpool.NewWithConfig(ctx, pcfg)
		if err != nil {
			lastErr = err
			continue
		}
		if err := PingDB(ctx, pool, 3*time.Second); err != nil {
			pool.Close()
			lastErr = err
			continue
		}
		return pool, nil
	}
	return nil, fmt.Errorf("db: connect after %d attempts: %w", attempts, lastErr)
}

// PingDB checks if we can acquire a connection within timeout.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}
