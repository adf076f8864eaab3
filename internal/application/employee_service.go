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

// EmployeeService orchestrates validation, authorization, and persistence for
// employee records.
type EmployeeService struct {
	employees   persistence.EmployeeRepository
	audit       AuditRecorder
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEmployeeService wires dependencies for the employee service.
func NewEmployeeService(employees persistence.EmployeeRepository, audit AuditRecorder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EmployeeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EmployeeService{
		employees:   employees,
		audit:       audit,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EmployeeService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EmployeeService", operation, attrs...)
}

// CreateEmployee validates input and persists a new employee for administrators.
func (s *EmployeeService) CreateEmployee(ctx context.Context, principal Principal, input EmployeeInput) (persistence.Employee, error) {
	if !principal.IsAdmin() {
		return persistence.Employee{}, ErrUnauthorized
	}

	normalized := normalizeEmployeeInput(input)
	if vErr := validateEmployeeInput(normalized); vErr.HasErrors() {
		return persistence.Employee{}, vErr
	}

	employee := persistence.Employee{
		ID:         s.idGenerator(),
		Sequence:   normalized.Sequence,
		Title:      normalized.Title,
		FullName:   normalized.FullName,
		NationalID: normalized.NationalID,
		Department: normalized.Department,
		Status:     normalized.Status,
		ShiftStart: normalized.ShiftStart,
		ShiftEnd:   normalized.ShiftEnd,
	}

	if err := s.employees.CreateEmployee(ctx, employee); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.Employee{}, fmt.Errorf("national ID %s: %w", employee.NationalID, ErrAlreadyExists)
		}
		return persistence.Employee{}, err
	}

	s.recordAudit(ctx, principal, "crear_empleado", employee.FullName)
	s.log(ctx, "CreateEmployee").With("employee_id", employee.ID).InfoContext(ctx, "employee created")
	return employee, nil
}

// UpdateEmployee validates input and updates an existing employee for administrators.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, principal Principal, employeeID string, input EmployeeInput) (persistence.Employee, error) {
	if !principal.IsAdmin() {
		return persistence.Employee{}, ErrUnauthorized
	}

	existing, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Employee{}, ErrNotFound
		}
		return persistence.Employee{}, err
	}

	normalized := normalizeEmployeeInput(input)
	if vErr := validateEmployeeInput(normalized); vErr.HasErrors() {
		return persistence.Employee{}, vErr
	}

	updated := existing
	updated.Sequence = normalized.Sequence
	updated.Title = normalized.Title
	updated.FullName = normalized.FullName
	updated.NationalID = normalized.NationalID
	updated.Department = normalized.Department
	updated.Status = normalized.Status
	updated.ShiftStart = normalized.ShiftStart
	updated.ShiftEnd = normalized.ShiftEnd

	if err := s.employees.UpdateEmployee(ctx, updated); err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			return persistence.Employee{}, ErrNotFound
		case errors.Is(err, persistence.ErrDuplicate):
			return persistence.Employee{}, fmt.Errorf("national ID %s: %w", updated.NationalID, ErrAlreadyExists)
		}
		return persistence.Employee{}, err
	}

	s.recordAudit(ctx, principal, "actualizar_empleado", updated.FullName)
	s.log(ctx, "UpdateEmployee").With("employee_id", updated.ID).InfoContext(ctx, "employee updated")
	return updated, nil
}

// GetEmployee retrieves one employee record.
func (s *EmployeeService) GetEmployee(ctx context.Context, employeeID string) (persistence.Employee, error) {
	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Employee{}, ErrNotFound
		}
		return persistence.Employee{}, err
	}
	return employee, nil
}

// ListEmployees returns every employee in roster order.
func (s *EmployeeService) ListEmployees(ctx context.Context) ([]persistence.Employee, error) {
	return s.employees.ListEmployees(ctx)
}

// Deactivate flips an employee to inactive status. Admin flows never hard-delete.
func (s *EmployeeService) Deactivate(ctx context.Context, principal Principal, employeeID string) (persistence.Employee, error) {
	if !principal.IsAdmin() {
		return persistence.Employee{}, ErrUnauthorized
	}

	existing, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Employee{}, ErrNotFound
		}
		return persistence.Employee{}, err
	}

	existing.Status = persistence.StatusInactive
	if err := s.employees.UpdateEmployee(ctx, existing); err != nil {
		return persistence.Employee{}, err
	}

	s.recordAudit(ctx, principal, "desactivar_empleado", existing.FullName)
	return existing, nil
}

func (s *EmployeeService) recordAudit(ctx context.Context, principal Principal, action, details string) {
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

func normalizeEmployeeInput(input EmployeeInput) EmployeeInput {
	input.Title = strings.TrimSpace(input.Title)
	input.FullName = strings.TrimSpace(input.FullName)
	input.NationalID = strings.TrimSpace(input.NationalID)
	input.Department = strings.TrimSpace(input.Department)
	if input.Status == "" {
		input.Status = persistence.StatusActive
	}
	return input
}

func validateEmployeeInput(input EmployeeInput) *ValidationError {
	vErr := &ValidationError{}
	if input.FullName == "" {
		vErr.add("full_name", "el nombre es obligatorio")
	}
	if input.NationalID == "" {
		vErr.add("national_id", "la cédula es obligatoria")
	}
	if input.Title == "" {
		vErr.add("title", "el cargo es obligatorio")
	}
	if input.Department == "" {
		vErr.add("department", "el departamento es obligatorio")
	}
	if input.Sequence < 0 {
		vErr.add("sequence", "el número debe ser positivo")
	}
	switch input.Status {
	case persistence.StatusActive, persistence.StatusVacation, persistence.StatusLeave, persistence.StatusInactive:
	default:
		vErr.add("status", "estado desconocido")
	}
	return vErr
}
