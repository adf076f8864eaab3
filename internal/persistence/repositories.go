package persistence

import (
	"context"
	"time"
)

// EmployeeRepository exposes CRUD operations for employees.
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, employee Employee) error
	UpdateEmployee(ctx context.Context, employee Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	GetEmployeeByNationalID(ctx context.Context, nationalID string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// ShiftCodeRepository stores the shift code registry.
type ShiftCodeRepository interface {
	UpsertShiftCode(ctx context.Context, code ShiftCode) error
	GetShiftCode(ctx context.Context, code string) (ShiftCode, error)
	ListShiftCodes(ctx context.Context) ([]ShiftCode, error)
	// DeleteShiftCode removes a code and nulls matching assignment references.
	DeleteShiftCode(ctx context.Context, code string) error
}

// AssignmentRepository stores per-day shift assignments.
type AssignmentRepository interface {
	// UpsertMonth writes every assignment in one transaction. A nil code clears
	// the cell; the uniqueness of (employee, year, month, day) is enforced by
	// insert-or-replace semantics. Returns the number of rows written.
	UpsertMonth(ctx context.Context, assignments []Assignment) (int, error)
	ListMonth(ctx context.Context, year, month int) ([]Assignment, error)
	ListEmployeeMonth(ctx context.Context, employeeID string, year, month int) ([]Assignment, error)
}

// UserRepository exposes CRUD operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, username string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// SettingRepository stores the typed configuration registry.
type SettingRepository interface {
	UpsertSetting(ctx context.Context, setting Setting) error
	GetSetting(ctx context.Context, key string) (Setting, error)
	ListSettings(ctx context.Context) ([]Setting, error)
}

// AuditRepository appends and lists audit trail entries.
type AuditRepository interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

// BackupStore exposes whole-database export and replace used by JSON backups.
// ImportAll must be atomic: either every table is replaced or none is.
type BackupStore interface {
	ExportAll(ctx context.Context) (Dump, error)
	ImportAll(ctx context.Context, dump Dump) error
}
