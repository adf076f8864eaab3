package persistence

import "time"

// EmployeeStatus enumerates the lifecycle states of an employee record.
// Employees are never hard-deleted by admin flows; they move to StatusInactive.
type EmployeeStatus string

const (
	StatusActive   EmployeeStatus = "Activo"
	StatusVacation EmployeeStatus = "Vacaciones"
	StatusLeave    EmployeeStatus = "Permiso"
	StatusInactive EmployeeStatus = "Inactivo"
)

// Employee represents a staff member appearing on the roster grid.
type Employee struct {
	ID         string
	Sequence   int
	Title      string
	FullName   string
	NationalID string
	Department string
	Status     EmployeeStatus
	ShiftStart *string
	ShiftEnd   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ShiftCode describes a short roster code such as a work window or an absence.
type ShiftCode struct {
	Code  string
	Label string
	Color string
	Hours int
}

// Assignment links one employee to at most one shift code on a calendar day.
// A missing row and a row with a NULL code are equivalent: unassigned.
type Assignment struct {
	EmployeeID string
	Year       int
	Month      int
	Day        int
	Code       *string
}

// Role enumerates the authorization tiers of a user account.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleEmployee   Role = "employee"
)

// User represents an authentication principal. The optional EmployeeID is an
// explicit admin-confirmed link, never inferred from name similarity.
type User struct {
	Username           string
	PasswordHash       string
	Role               Role
	DisplayName        string
	Department         string
	EmployeeID         *string
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	Username  string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SettingType declares how a configuration value string is interpreted.
type SettingType string

const (
	SettingText    SettingType = "text"
	SettingNumber  SettingType = "number"
	SettingBoolean SettingType = "boolean"
	SettingList    SettingType = "list"
)

// Setting is one typed key/value configuration entry.
type Setting struct {
	Key         string
	Value       string
	Type        SettingType
	Description string
}

// AuditEntry records a mutating action for the audit trail.
type AuditEntry struct {
	ID        int64
	Action    string
	Details   string
	Username  string
	Timestamp time.Time
}

// Dump is a full copy of every entity table, used by the backup archive.
type Dump struct {
	Employees   []Employee
	ShiftCodes  []ShiftCode
	Users       []User
	Assignments []Assignment
	Settings    []Setting
}
