package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Tables resolve through the connection's search_path.
// - Case-insensitive uniqueness is enforced by unique indexes on lower(username) and lower(email).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const userColumns = `id, username, email, password, created_at, updated_at`

func (s *PostgresStore) UsernameTaken(ctx context.Context, username string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM users
		    WHERE lower(username) = lower($1) AND id <> $2
		 )`,
		username, exclude,
	).Scan(&taken)
	return taken, err
}

func (s *PostgresStore) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM users
		    WHERE lower(email) = lower($1) AND id <> $2
		 )`,
		email, exclude,
	).Scan(&taken)
	return taken, err
}

func (s *PostgresStore) Insert(ctx context.Context, u User) (User, error) {
	const op = "identity.PostgresStore.Insert"

	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.Secret,
	)
	out, err := scanUser(row)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return out, nil
}

// Update writes the supplied columns in one statement; NULL arguments keep the stored value.
// updated_at moves to now(), and never backwards or sideways.
func (s *PostgresStore) Update(ctx context.Context, id uuid.UUID, ch UserChanges) (User, error) {
	const op = "identity.PostgresStore.Update"

	row := s.pool.QueryRow(ctx,
		`UPDATE users
		    SET username = COALESCE($2, username),
		        email = COALESCE($3, email),
		        password = COALESCE($4, password),
		        updated_at = GREATEST(now(), updated_at + interval '1 microsecond')
		  WHERE id = $1
		 RETURNING `+userColumns,
		id, ch.Username, ch.Email, ch.Secret,
	)
	out, err := scanUser(row)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return out, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1) LIMIT 1`,
		username,
	))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) LIMIT 1`,
		email,
	))
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Secret, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable constraint names; fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch c {
	case "uq_users_username_lower":
		return FieldUsername, true
	case "uq_users_email_lower":
		return FieldEmail, true
	}
	switch {
	case strings.Contains(c, "email"):
		return FieldEmail, true
	case strings.Contains(c, "username"):
		return FieldUsername, true
	default:
		return FieldUsername, true
	}
}
