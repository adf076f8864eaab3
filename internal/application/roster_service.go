package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/example/shift-roster/internal/persistence"
	"github.com/example/shift-roster/internal/roster"
)

// RosterService implements the month-grid operations: load, save, per-employee
// month view, and the CSV/XLSX exports.
type RosterService struct {
	employees   persistence.EmployeeRepository
	assignments persistence.AssignmentRepository
	codes       persistence.ShiftCodeRepository
	audit       AuditRecorder
	now         func() time.Time
	logger      *slog.Logger
}

// NewRosterService wires dependencies for the roster service.
func NewRosterService(
	employees persistence.EmployeeRepository,
	assignments persistence.AssignmentRepository,
	codes persistence.ShiftCodeRepository,
	audit AuditRecorder,
	now func() time.Time,
	logger *slog.Logger,
) *RosterService {
	if now == nil {
		now = time.Now
	}
	return &RosterService{
		employees:   employees,
		assignments: assignments,
		codes:       codes,
		audit:       audit,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RosterService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RosterService", operation, attrs...)
}

// LoadMonth builds the wide grid for one month: every employee in sequence
// order, one cell per calendar day.
func (s *RosterService) LoadMonth(ctx context.Context, year, month int) ([]roster.Row, error) {
	if !roster.ValidMonth(year, month) {
		return nil, monthValidationError(year, month)
	}

	employees, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	return roster.AssignmentsToGrid(employees, assignments, year, month), nil
}

// SaveMonth decomposes an edited grid into per-day upserts and persists them in
// one transaction. Rows whose national ID matches no employee are reported in
// the result, never silently dropped.
func (s *RosterService) SaveMonth(ctx context.Context, principal Principal, rows []roster.Row, year, month int) (SaveMonthResult, error) {
	if !principal.CanEditRoster() {
		return SaveMonthResult{}, ErrUnauthorized
	}
	if !roster.ValidMonth(year, month) {
		return SaveMonthResult{}, monthValidationError(year, month)
	}

	employees, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return SaveMonthResult{}, err
	}
	byNationalID := make(map[string]string, len(employees))
	for _, e := range employees {
		byNationalID[e.NationalID] = e.ID
	}

	assignments, skipped := roster.GridToAssignments(rows, year, month, func(nationalID string) (string, bool) {
		id, ok := byNationalID[strings.TrimSpace(nationalID)]
		return id, ok
	})

	written, err := s.assignments.UpsertMonth(ctx, assignments)
	if err != nil {
		return SaveMonthResult{}, err
	}

	result := SaveMonthResult{Written: written, SkippedIDs: skipped}

	s.recordAudit(ctx, principal, "guardar_malla", fmt.Sprintf("%d/%d: %d celdas, %d filas omitidas", month, year, written, len(skipped)))
	logger := s.log(ctx, "SaveMonth", "year", year, "month", month)
	if len(skipped) > 0 {
		logger.WarnContext(ctx, "grid rows skipped during save", "written", written, "skipped", skipped)
	} else {
		logger.InfoContext(ctx, "month grid saved", "written", written)
	}

	return result, nil
}

// GetEmployeeMonth returns one employee's month as a total-domain map: exactly
// DaysInMonth keys, empty string for unassigned days. Downstream calendar
// rendering depends on every day being present.
func (s *RosterService) GetEmployeeMonth(ctx context.Context, principal Principal, employeeID string, year, month int) (map[int]string, error) {
	if !roster.ValidMonth(year, month) {
		return nil, monthValidationError(year, month)
	}
	// Employees may only read their own linked month.
	if !principal.CanEditRoster() {
		if principal.EmployeeID == nil || *principal.EmployeeID != employeeID {
			return nil, ErrUnauthorized
		}
	}

	if _, err := s.employees.GetEmployee(ctx, employeeID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	assignments, err := s.assignments.ListEmployeeMonth(ctx, employeeID, year, month)
	if err != nil {
		return nil, err
	}

	days := roster.DaysInMonth(year, month)
	result := make(map[int]string, days)
	for day := 1; day <= days; day++ {
		result[day] = ""
	}
	for _, a := range assignments {
		if a.Day < 1 || a.Day > days || a.Code == nil {
			continue
		}
		result[a.Day] = *a.Code
	}

	return result, nil
}

// ExportCSV writes the month grid as CSV to w.
func (s *RosterService) ExportCSV(ctx context.Context, w io.Writer, year, month int) error {
	rows, err := s.LoadMonth(ctx, year, month)
	if err != nil {
		return err
	}
	return roster.WriteCSV(w, rows, year, month)
}

// ExportXLSX writes the month grid as a styled workbook to w.
func (s *RosterService) ExportXLSX(ctx context.Context, w io.Writer, year, month int) error {
	rows, err := s.LoadMonth(ctx, year, month)
	if err != nil {
		return err
	}

	codes, err := s.codes.ListShiftCodes(ctx)
	if err != nil {
		return err
	}
	registry := make(map[string]persistence.ShiftCode, len(codes))
	for _, code := range codes {
		registry[code.Code] = code
	}

	return roster.WriteXLSX(w, rows, registry, year, month)
}

func (s *RosterService) recordAudit(ctx context.Context, principal Principal, action, details string) {
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

func monthValidationError(year, month int) *ValidationError {
	vErr := &ValidationError{}
	if month < 1 || month > 12 {
		vErr.add("month", "el mes debe estar entre 1 y 12")
	}
	if year < 1 {
		vErr.add("year", "el año no es válido")
	}
	return vErr
}
