package migrations

import (
	"io/fs"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsOrderedMigrations(t *testing.T) {
	t.Parallel()

	names, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_sessions.sql"}, names)
}

func TestFS_SessionsHasNoForeignKey(t *testing.T) {
	t.Parallel()

	b, err := fs.ReadFile(FS, "00002_create_sessions.sql")
	require.NoError(t, err)
	assert.NotContains(t, string(b), "REFERENCES")
}

func TestToMigration(t *testing.T) {
	t.Parallel()

	got := toMigration(&goose.Source{Path: "00001_create_users.sql", Version: 1})
	assert.Equal(t, Migration{Version: 1, Name: "create_users", Path: "00001_create_users.sql"}, got)
}

func TestNew_NilPool(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNilPool)
}
