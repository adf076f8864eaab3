package testfixtures

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/shift-roster/internal/persistence"
	"github.com/example/shift-roster/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite store
// for integration-style persistence tests.
type SQLiteHarness struct {
	Pool        *sqlite.ConnectionPool
	Employees   persistence.EmployeeRepository
	ShiftCodes  persistence.ShiftCodeRepository
	Assignments persistence.AssignmentRepository
	Users       persistence.UserRepository
	Sessions    persistence.SessionRepository
	Settings    persistence.SettingRepository
	Audit       persistence.AuditRepository
	Backup      persistence.BackupStore

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a temporary store file that
// is migrated automatically. Callers may optionally invoke Close, but the
// helper also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "roster.db")

	pool, err := sqlite.NewConnectionPool(path)
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool, slog.New(slog.DiscardHandler)); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate store: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:        pool,
		Employees:   sqlite.NewEmployeeRepository(pool),
		ShiftCodes:  sqlite.NewShiftCodeRepository(pool),
		Assignments: sqlite.NewAssignmentRepository(pool),
		Users:       sqlite.NewUserRepository(pool),
		Sessions:    sqlite.NewSessionRepository(pool),
		Settings:    sqlite.NewSettingRepository(pool),
		Audit:       sqlite.NewAuditRepository(pool),
		Backup:      sqlite.NewBackupStore(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
