// Package dbtest opens throwaway SQLite stores for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/db"
)

// Open returns a migrated SQLite connection in a temp dir, closed on cleanup.
func Open(t testing.TB) *db.Connection {
	t.Helper()
	conn, err := db.Open(context.Background(), db.Config{
		Driver: db.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
