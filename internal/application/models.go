package application

import (
	"context"

	"github.com/example/shift-roster/internal/persistence"
)

// Principal identifies the authenticated actor behind a service call.
type Principal struct {
	Username           string
	Role               persistence.Role
	EmployeeID         *string
	MustChangePassword bool
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == persistence.RoleAdmin
}

// CanEditRoster reports whether the principal may save the month grid.
// Supervisors manage the roster day to day; admins can do everything.
func (p Principal) CanEditRoster() bool {
	return p.Role == persistence.RoleAdmin || p.Role == persistence.RoleSupervisor
}

// EmployeeInput carries the editable attributes of an employee record.
type EmployeeInput struct {
	Sequence   int
	Title      string
	FullName   string
	NationalID string
	Department string
	Status     persistence.EmployeeStatus
	ShiftStart *string
	ShiftEnd   *string
}

// UserInput carries the editable attributes of a user account. Password is the
// plaintext to hash; empty keeps the stored hash on update.
type UserInput struct {
	Username    string
	Password    string
	Role        persistence.Role
	DisplayName string
	Department  string
	EmployeeID  *string
}

// SaveMonthResult reports the outcome of persisting an edited month grid.
type SaveMonthResult struct {
	Written    int
	SkippedIDs []string
}

// AuditRecorder appends audit trail entries. Services treat it as optional and
// never fail an operation because the trail could not be written.
type AuditRecorder interface {
	AppendAudit(ctx context.Context, entry persistence.AuditEntry) error
}
