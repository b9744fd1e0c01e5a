package storage

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

// OpenTest returns a migrated sqlite database living in a temp dir that is
// removed with the test.
func OpenTest(t testing.TB) *sql.DB {
	t.Helper()

	cfg := Config{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "spendwise.db"),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := Open(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
