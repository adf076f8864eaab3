package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

// EmployeeRepository implements persistence.EmployeeRepository using SQLite.
type EmployeeRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEmployeeRepository creates a new SQLite employee repository.
func NewEmployeeRepository(pool *ConnectionPool) *EmployeeRepository {
	return &EmployeeRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const employeeColumns = "id, sequence, title, full_name, national_id, department, status, shift_start, shift_end, created_at, updated_at"

// CreateEmployee inserts a new employee into the database.
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" || strings.TrimSpace(employee.NationalID) == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		employee.ID,
		employee.Sequence,
		employee.Title,
		employee.FullName,
		strings.TrimSpace(employee.NationalID),
		employee.Department,
		string(employee.Status),
		employee.ShiftStart,
		employee.ShiftEnd,
		employee.CreatedAt.Format(time.RFC3339),
		employee.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateEmployee updates an existing employee.
func (r *EmployeeRepository) UpdateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" {
		return persistence.ErrNotFound
	}

	employee.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE employees
		SET sequence = ?, title = ?, full_name = ?, national_id = ?, department = ?,
		    status = ?, shift_start = ?, shift_end = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		employee.Sequence,
		employee.Title,
		employee.FullName,
		strings.TrimSpace(employee.NationalID),
		employee.Department,
		string(employee.Status),
		employee.ShiftStart,
		employee.ShiftEnd,
		employee.UpdatedAt.Format(time.RFC3339),
		employee.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetEmployee retrieves an employee by ID.
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	if id == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	return r.scanEmployee(row)
}

// GetEmployeeByNationalID retrieves an employee by their unique national ID.
func (r *EmployeeRepository) GetEmployeeByNationalID(ctx context.Context, nationalID string) (persistence.Employee, error) {
	trimmed := strings.TrimSpace(nationalID)
	if trimmed == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE national_id = ?", trimmed)
	return r.scanEmployee(row)
}

// ListEmployees returns all employees ordered by sequence number then name.
func (r *EmployeeRepository) ListEmployees(ctx context.Context) ([]persistence.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees ORDER BY sequence ASC, full_name ASC"

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var employees []persistence.Employee
	for rows.Next() {
		employee, err := r.scanEmployeeRow(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return employees, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *EmployeeRepository) scanEmployee(row *sql.Row) (persistence.Employee, error) {
	employee, err := scanEmployeeFrom(row)
	if err != nil {
		return persistence.Employee{}, r.mapper.MapError(err)
	}
	return employee, nil
}

func (r *EmployeeRepository) scanEmployeeRow(rows *sql.Rows) (persistence.Employee, error) {
	employee, err := scanEmployeeFrom(rows)
	if err != nil {
		return persistence.Employee{}, r.mapper.MapError(err)
	}
	return employee, nil
}

func scanEmployeeFrom(scanner rowScanner) (persistence.Employee, error) {
	var employee persistence.Employee
	var status, createdAtStr, updatedAtStr string

	err := scanner.Scan(
		&employee.ID,
		&employee.Sequence,
		&employee.Title,
		&employee.FullName,
		&employee.NationalID,
		&employee.Department,
		&status,
		&employee.ShiftStart,
		&employee.ShiftEnd,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Employee{}, err
	}

	employee.Status = persistence.EmployeeStatus(status)
	if employee.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Employee{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if employee.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Employee{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return employee, nil
}
