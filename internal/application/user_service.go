package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

// UserService orchestrates validation, authorization, and persistence for user
// accounts. Linking a user to an employee is always an explicit admin action
// against the employee's store ID; there is no name-based matching.
type UserService struct {
	users     persistence.UserRepository
	employees persistence.EmployeeRepository
	audit     AuditRecorder
	hash      func(password string) (string, error)
	now       func() time.Time
	logger    *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, employees persistence.EmployeeRepository, audit AuditRecorder, now func() time.Time, logger *slog.Logger) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:     users,
		employees: employees,
		audit:     audit,
		hash: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		now:    now,
		logger: defaultLogger(logger),
	}
}

func (s *UserService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new account for administrators.
func (s *UserService) CreateUser(ctx context.Context, principal Principal, input UserInput) (persistence.User, error) {
	if !principal.IsAdmin() {
		return persistence.User{}, ErrUnauthorized
	}

	normalized := normalizeUserInput(input)
	vErr := validateUserInput(normalized, true)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	if err := s.checkEmployeeLink(ctx, normalized.EmployeeID); err != nil {
		return persistence.User{}, err
	}

	hash, err := s.hash(normalized.Password)
	if err != nil {
		return persistence.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := persistence.User{
		Username:     normalized.Username,
		PasswordHash: hash,
		Role:         normalized.Role,
		DisplayName:  normalized.DisplayName,
		Department:   normalized.Department,
		EmployeeID:   normalized.EmployeeID,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.User{}, fmt.Errorf("username %s: %w", user.Username, ErrAlreadyExists)
		}
		return persistence.User{}, err
	}

	s.recordAudit(ctx, principal, "crear_usuario", user.Username)
	s.log(ctx, "CreateUser").With("username", user.Username).InfoContext(ctx, "user created")
	return user, nil
}

// UpdateUser updates an existing account for administrators. An empty password
// keeps the stored hash.
func (s *UserService) UpdateUser(ctx context.Context, principal Principal, username string, input UserInput) (persistence.User, error) {
	if !principal.IsAdmin() {
		return persistence.User{}, ErrUnauthorized
	}

	existing, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}

	normalized := normalizeUserInput(input)
	normalized.Username = existing.Username
	vErr := validateUserInput(normalized, false)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	if err := s.checkEmployeeLink(ctx, normalized.EmployeeID); err != nil {
		return persistence.User{}, err
	}

	updated := existing
	updated.Role = normalized.Role
	updated.DisplayName = normalized.DisplayName
	updated.Department = normalized.Department
	updated.EmployeeID = normalized.EmployeeID
	if normalized.Password != "" {
		hash, err := s.hash(normalized.Password)
		if err != nil {
			return persistence.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		updated.PasswordHash = hash
		updated.MustChangePassword = false
	}

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}

	s.recordAudit(ctx, principal, "actualizar_usuario", updated.Username)
	s.log(ctx, "UpdateUser").With("username", updated.Username).InfoContext(ctx, "user updated")
	return updated, nil
}

// ChangePassword lets any principal rotate their own password, clearing the
// forced-reset flag set for imported accounts.
func (s *UserService) ChangePassword(ctx context.Context, principal Principal, newPassword string) error {
	if strings.TrimSpace(principal.Username) == "" {
		return ErrUnauthorized
	}
	if len(newPassword) < 6 {
		vErr := &ValidationError{}
		vErr.add("password", "la contraseña debe tener al menos 6 caracteres")
		return vErr
	}

	user, err := s.users.GetUser(ctx, principal.Username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hash
	user.MustChangePassword = false
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	s.recordAudit(ctx, principal, "cambiar_contrasena", principal.Username)
	return nil
}

// GetUser retrieves one account by username.
func (s *UserService) GetUser(ctx context.Context, principal Principal, username string) (persistence.User, error) {
	if !principal.IsAdmin() && !strings.EqualFold(principal.Username, username) {
		return persistence.User{}, ErrUnauthorized
	}

	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}
	return user, nil
}

// ListUsers returns every account for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.users.ListUsers(ctx)
}

// DeleteUser removes an account for administrators.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, username string) error {
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if strings.EqualFold(principal.Username, username) {
		vErr := &ValidationError{}
		vErr.add("username", "no puede eliminar su propia cuenta")
		return vErr
	}

	if err := s.users.DeleteUser(ctx, username); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.recordAudit(ctx, principal, "eliminar_usuario", username)
	return nil
}

func (s *UserService) checkEmployeeLink(ctx context.Context, employeeID *string) error {
	if employeeID == nil || s.employees == nil {
		return nil
	}
	if _, err := s.employees.GetEmployee(ctx, *employeeID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("employee_id", "el empleado vinculado no existe")
			return vErr
		}
		return err
	}
	return nil
}

func (s *UserService) recordAudit(ctx context.Context, principal Principal, action, details string) {
	if s.audit == nil {
		return
	}
	entry := persistence.AuditEntry{
		Action:    action,
		Details:   details,
		Username:  principal.Username,
		Timestamp: s.now().UTC(),
	}
	if err := s.audit.AppendAudit(ctx, entry); err != nil {
		s.log(ctx, "recordAudit").WarnContext(ctx, "failed to append audit entry", "error", err, "action", action)
	}
}

func normalizeUserInput(input UserInput) UserInput {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Department = strings.TrimSpace(input.Department)
	if input.EmployeeID != nil && strings.TrimSpace(*input.EmployeeID) == "" {
		input.EmployeeID = nil
	}
	return input
}

func validateUserInput(input UserInput, passwordRequired bool) *ValidationError {
	vErr := &ValidationError{}
	if input.Username == "" {
		vErr.add("username", "el usuario es obligatorio")
	}
	if input.DisplayName == "" {
		vErr.add("display_name", "el nombre es obligatorio")
	}
	if passwordRequired && len(input.Password) < 6 {
		vErr.add("password", "la contraseña debe tener al menos 6 caracteres")
	}
	if !passwordRequired && input.Password != "" && len(input.Password) < 6 {
		vErr.add("password", "la contraseña debe tener al menos 6 caracteres")
	}
	switch input.Role {
	case persistence.RoleAdmin, persistence.RoleSupervisor, persistence.RoleEmployee:
	default:
		vErr.add("role", "rol desconocido")
	}
	return vErr
}
