package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/shift-roster/internal/persistence"
)

// AssignmentRepository implements persistence.AssignmentRepository using SQLite.
type AssignmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAssignmentRepository creates a new SQLite assignment repository.
func NewAssignmentRepository(pool *ConnectionPool) *AssignmentRepository {
	return &AssignmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertMonth writes every assignment in one transaction. INSERT OR REPLACE
// keeps the one-row-per-(employee, year, month, day) invariant. A nil code
// clears an existing row's code to NULL and never creates a row: a missing row
// and a NULL code are equivalent, so blank cells stay free. Returns the number
// of rows written or cleared.
func (r *AssignmentRepository) UpsertMonth(ctx context.Context, assignments []persistence.Assignment) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	written := 0
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		upsert, err := tx.Prepare(`
			INSERT OR REPLACE INTO assignments (employee_id, year, month, day, code)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return r.mapper.MapError(err)
		}
		defer upsert.Close()

		clearStmt, err := tx.Prepare(`
			UPDATE assignments SET code = NULL
			WHERE employee_id = ? AND year = ? AND month = ? AND day = ?
		`)
		if err != nil {
			return r.mapper.MapError(err)
		}
		defer clearStmt.Close()

		for _, a := range assignments {
			if a.Code == nil {
				result, err := clearStmt.Exec(a.EmployeeID, a.Year, a.Month, a.Day)
				if err != nil {
					return r.mapper.MapError(err)
				}
				if affected, err := result.RowsAffected(); err == nil {
					written += int(affected)
				}
				continue
			}
			if _, err := upsert.Exec(a.EmployeeID, a.Year, a.Month, a.Day, a.Code); err != nil {
				return r.mapper.MapError(err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return written, nil
}

// ListMonth returns every assignment row stored for the given month.
func (r *AssignmentRepository) ListMonth(ctx context.Context, year, month int) ([]persistence.Assignment, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT employee_id, year, month, day, code
		FROM assignments
		WHERE year = ? AND month = ?
		ORDER BY employee_id ASC, day ASC
	`, year, month)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ListEmployeeMonth returns the stored assignment rows for one employee's month.
func (r *AssignmentRepository) ListEmployeeMonth(ctx context.Context, employeeID string, year, month int) ([]persistence.Assignment, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT employee_id, year, month, day, code
		FROM assignments
		WHERE employee_id = ? AND year = ? AND month = ?
		ORDER BY day ASC
	`, employeeID, year, month)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *AssignmentRepository) collect(rows *sql.Rows) ([]persistence.Assignment, error) {
	var assignments []persistence.Assignment
	for rows.Next() {
		var a persistence.Assignment
		if err := rows.Scan(&a.EmployeeID, &a.Year, &a.Month, &a.Day, &a.Code); err != nil {
			return nil, r.mapper.MapError(err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return assignments, nil
}
