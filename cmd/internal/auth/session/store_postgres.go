package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (sessions table).
// The pool is owned by the caller.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("session: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const sessionColumns = `id, token, user_id, expires_at, created_at, updated_at`

// Create inserts a new session row.
func (s *PostgresStore) Create(ctx context.Context, in Session) (Session, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (id, token, user_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+sessionColumns,
		in.ID, in.Token, in.UserID, in.ExpiresAt, in.CreatedAt, in.UpdatedAt,
	)
	out, err := scanSession(row)
	if err != nil {
		if pgIsUniqueViolation(err) {
			return Session{}, ErrDuplicateToken
		}
		return Session{}, err
	}
	return out, nil
}

// Get loads a session row by token.
func (s *PostgresStore) Get(ctx context.Context, token string) (Session, error) {
	return scanSession(s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE token = $1
	`, token))
}

// Apply locks the row bound to token (SELECT ... FOR UPDATE), runs fn and writes the
// result back in the same transaction. A concurrent Apply on the same token waits for
// the lock and then sees the committed row.
func (s *PostgresStore) Apply(ctx context.Context, token string, fn Mutation) (Session, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return Session{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanSession(tx.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE token = $1
		FOR UPDATE
	`, token))
	if err != nil {
		return Session{}, err
	}

	next, changed, err := fn(cur)
	if err != nil {
		return Session{}, err
	}
	if !changed {
		return cur, tx.Commit(ctx)
	}

	out, err := scanSession(tx.QueryRow(ctx, `
		UPDATE sessions
		SET expires_at = $2,
		    updated_at = $3
		WHERE id = $1
		RETURNING `+sessionColumns,
		cur.ID, next.ExpiresAt, next.UpdatedAt,
	))
	if err != nil {
		return Session{}, fmt.Errorf("session: write: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Session{}, err
	}
	return out, nil
}

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}
