package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// migrationStep is one versioned schema change. Steps run in order inside a
// transaction and are recorded in schema_migrations exactly once.
type migrationStep struct {
	Version     string
	Description string
	Statements  []string
}

var migrations = []migrationStep{
	{
		Version:     "001",
		Description: "base schema: employees, shift codes, assignments, users, settings",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS employees (
				id TEXT PRIMARY KEY,
				sequence INTEGER NOT NULL,
				title TEXT NOT NULL,
				full_name TEXT NOT NULL,
				national_id TEXT NOT NULL UNIQUE,
				department TEXT NOT NULL,
				status TEXT NOT NULL,
				shift_start TEXT,
				shift_end TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS shift_codes (
				code TEXT PRIMARY KEY,
				label TEXT NOT NULL,
				color TEXT NOT NULL,
				hours INTEGER NOT NULL CHECK (hours >= 0)
			)`,
			`CREATE TABLE IF NOT EXISTS assignments (
				employee_id TEXT NOT NULL REFERENCES employees(id),
				year INTEGER NOT NULL,
				month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
				day INTEGER NOT NULL CHECK (day BETWEEN 1 AND 31),
				code TEXT,
				UNIQUE (employee_id, year, month, day)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_assignments_month ON assignments (year, month)`,
			`CREATE TABLE IF NOT EXISTS users (
				username TEXT PRIMARY KEY,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL,
				display_name TEXT NOT NULL,
				department TEXT,
				employee_id TEXT REFERENCES employees(id),
				must_change_password INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				type TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT ''
			)`,
		},
	},
	{
		Version:     "002",
		Description: "sessions and audit trail",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL REFERENCES users(username),
				token TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				revoked_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS audit_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				action TEXT NOT NULL,
				details TEXT NOT NULL DEFAULT '',
				username TEXT NOT NULL DEFAULT 'system',
				timestamp TEXT NOT NULL
			)`,
		},
	},
}

// Migrate applies every pending schema migration in sequential order.
func Migrate(ctx context.Context, pool *ConnectionPool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	_, err := pool.DB().ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := pool.DB().QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to read applied versions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read applied versions: %w", err)
	}

	for _, step := range migrations {
		if applied[step.Version] {
			continue
		}

		start := time.Now()
		err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range step.Statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %s statement failed: %w", step.Version, err)
				}
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
				step.Version, step.Description, time.Now().UTC().Format(time.RFC3339),
			)
			if err != nil {
				return fmt.Errorf("failed to record migration %s: %w", step.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "migration applied",
			"version", step.Version,
			"description", step.Description,
			"duration", time.Since(start),
		)
	}

	return nil
}
