package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

// BackupStore implements persistence.BackupStore: whole-database export and
// atomic replace used by the JSON backup archive.
type BackupStore struct {
	pool        *ConnectionPool
	employees   *EmployeeRepository
	shiftCodes  *ShiftCodeRepository
	assignments *AssignmentRepository
	users       *UserRepository
	settings    *SettingRepository
	mapper      *ErrorMapper
}

// NewBackupStore creates a backup store over the shared connection pool.
func NewBackupStore(pool *ConnectionPool) *BackupStore {
	return &BackupStore{
		pool:        pool,
		employees:   NewEmployeeRepository(pool),
		shiftCodes:  NewShiftCodeRepository(pool),
		assignments: NewAssignmentRepository(pool),
		users:       NewUserRepository(pool),
		settings:    NewSettingRepository(pool),
		mapper:      NewErrorMapper(),
	}
}

// ExportAll reads every entity table into one dump.
func (s *BackupStore) ExportAll(ctx context.Context) (persistence.Dump, error) {
	var dump persistence.Dump
	var err error

	if dump.Employees, err = s.employees.ListEmployees(ctx); err != nil {
		return persistence.Dump{}, err
	}
	if dump.ShiftCodes, err = s.shiftCodes.ListShiftCodes(ctx); err != nil {
		return persistence.Dump{}, err
	}
	if dump.Users, err = s.users.ListUsers(ctx); err != nil {
		return persistence.Dump{}, err
	}
	if dump.Settings, err = s.settings.ListSettings(ctx); err != nil {
		return persistence.Dump{}, err
	}

	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT employee_id, year, month, day, code
		FROM assignments
		ORDER BY year ASC, month ASC, employee_id ASC, day ASC
	`)
	if err != nil {
		return persistence.Dump{}, s.mapper.MapError(err)
	}
	defer rows.Close()

	if dump.Assignments, err = s.assignments.collect(rows); err != nil {
		return persistence.Dump{}, err
	}

	return dump, nil
}

// ImportAll replaces the contents of every entity table with the dump inside a
// single transaction. A failure partway through leaves the store untouched.
func (s *BackupStore) ImportAll(ctx context.Context, dump persistence.Dump) error {
	now := time.Now().UTC().Format(time.RFC3339)

	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		// Children first so foreign keys stay satisfied during the wipe.
		for _, table := range []string{"sessions", "assignments", "users", "employees", "shift_codes", "settings"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return s.mapper.MapError(err)
			}
		}

		for _, e := range dump.Employees {
			createdAt := e.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now().UTC()
			}
			_, err := tx.Exec(`
				INSERT INTO employees (`+employeeColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, e.ID, e.Sequence, e.Title, e.FullName, e.NationalID, e.Department,
				string(e.Status), e.ShiftStart, e.ShiftEnd,
				createdAt.Format(time.RFC3339), now)
			if err != nil {
				return s.mapper.MapError(err)
			}
		}

		for _, sc := range dump.ShiftCodes {
			_, err := tx.Exec(
				"INSERT INTO shift_codes (code, label, color, hours) VALUES (?, ?, ?, ?)",
				sc.Code, sc.Label, sc.Color, sc.Hours,
			)
			if err != nil {
				return s.mapper.MapError(err)
			}
		}

		for _, u := range dump.Users {
			createdAt := u.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now().UTC()
			}
			_, err := tx.Exec(`
				INSERT INTO users (`+userColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, normalizeUsername(u.Username), u.PasswordHash, string(u.Role), u.DisplayName,
				u.Department, u.EmployeeID, u.MustChangePassword,
				createdAt.Format(time.RFC3339), now)
			if err != nil {
				return s.mapper.MapError(err)
			}
		}

		for _, a := range dump.Assignments {
			_, err := tx.Exec(
				"INSERT OR REPLACE INTO assignments (employee_id, year, month, day, code) VALUES (?, ?, ?, ?, ?)",
				a.EmployeeID, a.Year, a.Month, a.Day, a.Code,
			)
			if err != nil {
				return s.mapper.MapError(err)
			}
		}

		for _, st := range dump.Settings {
			_, err := tx.Exec(
				"INSERT INTO settings (key, value, type, description) VALUES (?, ?, ?, ?)",
				st.Key, st.Value, string(st.Type), st.Description,
			)
			if err != nil {
				return s.mapper.MapError(err)
			}
		}

		return nil
	})
}
