package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/example/shift-roster/internal/persistence"
)

// ConnectionPool manages the SQLite database handle with transaction support.
// The store is single-writer; Reopen exists so a restored snapshot file can be
// picked up without restarting the process.
type ConnectionPool struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewConnectionPool opens the SQLite file at path and applies the session pragmas.
func NewConnectionPool(path string) (*ConnectionPool, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	return &ConnectionPool{db: db, path: path}, nil
}

func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// Snapshots copy the store as a single file, so the rollback journal mode
	// stays at its single-file default instead of WAL.
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// Path returns the location of the live store file.
func (cp *ConnectionPool) Path() string {
	return cp.path
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	return cp.db
}

// Close closes the database handle.
func (cp *ConnectionPool) Close() error {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.DB().PingContext(ctx)
}

// Reopen discards the current handle and reopens the store file. Used after a
// snapshot has been restored over the live store.
func (cp *ConnectionPool) Reopen(ctx context.Context) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if cp.db != nil {
		if err := cp.db.Close(); err != nil {
			return fmt.Errorf("failed to close stale handle: %w", err)
		}
	}

	db, err := openDatabase(cp.path)
	if err != nil {
		return err
	}
	cp.db = db
	return cp.db.PingContext(ctx)
}

// SnapshotTo writes a consistent copy of the live store to dst using
// VACUUM INTO, which serializes against writers inside SQLite itself.
func (cp *ConnectionPool) SnapshotTo(ctx context.Context, dst string) error {
	if _, err := cp.DB().ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("failed to snapshot store to %s: %w", dst, err)
	}
	return nil
}

// IntegrityCheck runs SQLite's integrity check against the live store.
func (cp *ConnectionPool) IntegrityCheck(ctx context.Context) error {
	var result string
	if err := cp.DB().QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed to run: %w", err)
	}
	if !strings.EqualFold(result, "ok") {
		return fmt.Errorf("store failed integrity check: %s", result)
	}
	return nil
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn within a database transaction. If fn returns an
// error the transaction is rolled back, otherwise it is committed.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// QueryHelper provides helper methods for common query patterns.
type QueryHelper struct {
	pool *ConnectionPool
}

// NewQueryHelper creates a new query helper.
func NewQueryHelper(pool *ConnectionPool) *QueryHelper {
	return &QueryHelper{pool: pool}
}

// QueryRow executes a query that returns a single row.
func (qh *QueryHelper) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return qh.pool.DB().QueryRowContext(ctx, query, args...)
}

// Query executes a query that returns multiple rows.
func (qh *QueryHelper) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return qh.pool.DB().QueryContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows.
func (qh *QueryHelper) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return qh.pool.DB().ExecContext(ctx, query, args...)
}

// ErrorMapper maps SQLite driver errors to persistence layer sentinels.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError translates SQLite-specific errors into the persistence sentinels.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}

	return err
}
