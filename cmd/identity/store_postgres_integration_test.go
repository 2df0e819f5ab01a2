package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"authcore/cmd/apperr"
	"authcore/cmd/internal/pgtest"
	"authcore/cmd/security/password"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests are opt-in and require AUTHCORE_DATABASE_URL.

func mustNewPostgresRegistry(t *testing.T) (*Registry, *PostgresStore) {
	t.Helper()

	pool := pgtest.Open(t)
	st, err := NewPostgresStore(pool)
	require.NoError(t, err, "new store")
	h, err := password.New(password.ConfigFor(false, "it-pepper"))
	require.NoError(t, err, "hasher")
	r, err := NewRegistry(st, h)
	require.NoError(t, err, "registry")
	return r, st
}

func TestPostgresStore_Create_ConflictUsername_CaseInsensitive(t *testing.T) {
	t.Parallel()
	r, _ := mustNewPostgresRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := r.Create(ctx, CreateUserInput{Username: "Navid", Email: "n1@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = r.Create(ctx, CreateUserInput{Username: "nAvId", Email: "n2@example.com", Password: "pw"})
	assert.True(t, apperr.IsValidation(err), "got %v", err)
}

func TestPostgresStore_Insert_UniqueIndexBackstop(t *testing.T) {
	t.Parallel()
	_, st := mustNewPostgresRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := st.Insert(ctx, User{ID: uuid.New(), Username: "Back", Email: "back@example.com", Secret: "s"})
	require.NoError(t, err)

	_, err = st.Insert(ctx, User{ID: uuid.New(), Username: "other", Email: "BACK@example.com", Secret: "s"})
	require.True(t, IsConflict(err), "got %v", err)

	verr, ok := conflictToValidation("op", err)
	require.True(t, ok)
	ae, ok := apperr.As(verr)
	require.True(t, ok)
	assert.Equal(t, FieldEmail, ae.Field)
}

func TestPostgresStore_ConcurrentCreate_AtMostOneRow(t *testing.T) {
	t.Parallel()
	r, st := mustNewPostgresRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = r.Create(ctx, CreateUserInput{
				Username: "race",
				Email:    fmt.Sprintf("race%d@example.com", i),
				Password: "pw",
			})
		}(i)
	}
	wg.Wait()

	var count int
	require.NoError(t, st.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE lower(username) = 'race'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPostgresStore_Update_BumpsUpdatedAt(t *testing.T) {
	t.Parallel()
	r, _ := mustNewPostgresRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, err := r.Create(ctx, CreateUserInput{Username: "patchme", Email: "p@example.com", Password: "pw"})
	require.NoError(t, err)

	email := "patched@example.com"
	updated, err := r.Update(ctx, "PATCHME", UserPatch{Email: &email})
	require.NoError(t, err)

	assert.Equal(t, email, updated.Email)
	assert.Equal(t, created.Username, updated.Username)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updated_at %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestPostgresStore_UpdateKeepsUnsuppliedColumns(t *testing.T) {
	t.Parallel()
	_, st := mustNewPostgresRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	u, err := st.Insert(ctx, User{ID: uuid.New(), Username: "cols", Email: "cols@example.com", Secret: "s1"})
	require.NoError(t, err)

	// Two writes that each carry one column, as two concurrent patches would.
	newEmail, newSecret := "moved@example.com", "s2"
	_, err = st.Update(ctx, u.ID, UserChanges{Email: &newEmail})
	require.NoError(t, err)
	out, err := st.Update(ctx, u.ID, UserChanges{Secret: &newSecret})
	require.NoError(t, err)

	assert.Equal(t, "cols", out.Username)
	assert.Equal(t, newEmail, out.Email)
	assert.Equal(t, newSecret, out.Secret)

	_, err = st.Update(ctx, uuid.New(), UserChanges{Secret: &newSecret})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresStore_FindAndAuthenticate(t *testing.T) {
	t.Parallel()
	r, _ := mustNewPostgresRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, err := r.Create(ctx, CreateUserInput{Username: "Finder", Email: "Finder@Example.com", Password: "pw"})
	require.NoError(t, err)

	got, err := r.FindByUsername(ctx, "finder")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = r.FindByUsername(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err), "got %v", err)

	u, err := r.Authenticate(ctx, "finder@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = r.Authenticate(ctx, "finder@example.com", "nope")
	assert.True(t, apperr.IsUnauthorized(err), "got %v", err)
}
