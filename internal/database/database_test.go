package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(os.Stdout)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDBCreatesDirectory(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := NewDB(path, &logger)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)
}

func TestNewDBNilLogger(t *testing.T) {
	db, err := NewDB(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
