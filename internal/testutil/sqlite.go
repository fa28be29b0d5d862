package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/finassist/internal/storage"
	"github.com/stretchr/testify/require"
)

// SetupTestDB creates a migrated SQLite store in a temporary directory that
// is closed when the test ends.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "finassist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}
