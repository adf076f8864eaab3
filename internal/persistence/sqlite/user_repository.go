package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = "username, password_hash, role, display_name, department, employee_id, must_change_password, created_at, updated_at"

// CreateUser inserts a new user account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if strings.TrimSpace(user.Username) == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		normalizeUsername(user.Username),
		user.PasswordHash,
		string(user.Role),
		user.DisplayName,
		user.Department,
		user.EmployeeID,
		user.MustChangePassword,
		user.CreatedAt.Format(time.RFC3339),
		user.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateUser updates an existing user account.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if strings.TrimSpace(user.Username) == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET password_hash = ?, role = ?, display_name = ?, department = ?,
		    employee_id = ?, must_change_password = ?, updated_at = ?
		WHERE username = ?
	`

	result, err := r.helper.Exec(ctx, query,
		user.PasswordHash,
		string(user.Role),
		user.DisplayName,
		user.Department,
		user.EmployeeID,
		user.MustChangePassword,
		user.UpdatedAt.Format(time.RFC3339),
		normalizeUsername(user.Username),
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

// GetUser retrieves a user by username.
func (r *UserRepository) GetUser(ctx context.Context, username string) (persistence.User, error) {
	if strings.TrimSpace(username) == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?",
		normalizeUsername(username),
	)

	user, err := scanUserFrom(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// ListUsers returns all user accounts ordered by username.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY username ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUserFrom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return users, nil
}

// DeleteUser removes a user account and its sessions.
func (r *UserRepository) DeleteUser(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		normalized := normalizeUsername(username)

		if _, err := tx.Exec("DELETE FROM sessions WHERE username = ?", normalized); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := tx.Exec("DELETE FROM users WHERE username = ?", normalized)
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
	})
}

func scanUserFrom(scanner rowScanner) (persistence.User, error) {
	var user persistence.User
	var role, createdAtStr, updatedAtStr string
	var department sql.NullString

	err := scanner.Scan(
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.DisplayName,
		&department,
		&user.EmployeeID,
		&user.MustChangePassword,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.User{}, err
	}

	user.Role = persistence.Role(role)
	user.Department = department.String
	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return user, nil
}

// normalizeUsername normalizes usernames for consistent storage and lookup.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
