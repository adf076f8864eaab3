package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/shift-roster/internal/application"
	"github.com/example/shift-roster/internal/persistence"
)

var (
	employeeCounter uint64
	userCounter     uint64
	sessionCounter  uint64
)

var referenceTime = time.Date(2025, time.February, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Employee fixtures ----------------------------

// EmployeeFixture represents a deterministic employee record that can be
// materialised for application or persistence tests.
type EmployeeFixture struct {
	ID         string
	Sequence   int
	Title      string
	FullName   string
	NationalID string
	Department string
	Status     persistence.EmployeeStatus
	ShiftStart *string
	ShiftEnd   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EmployeeOption configures the generated employee fixture.
type EmployeeOption func(*EmployeeFixture)

// NewEmployeeFixture returns a deterministic employee fixture with optional
// overrides.
func NewEmployeeFixture(opts ...EmployeeOption) EmployeeFixture {
	idx := atomic.AddUint64(&employeeCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EmployeeFixture{
		ID:         fmt.Sprintf("emp-%03d", idx),
		Sequence:   int(idx),
		Title:      "AUXILIAR",
		FullName:   fmt.Sprintf("EMPLEADO %03d", idx),
		NationalID: fmt.Sprintf("%08d", 10000000+idx),
		Department: "Tienda",
		Status:     persistence.StatusActive,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEmployeeID overrides the generated employee ID.
func WithEmployeeID(id string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.ID = id
	}
}

// WithEmployeeSequence overrides the grid ordering position.
func WithEmployeeSequence(sequence int) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Sequence = sequence
	}
}

// WithEmployeeFullName overrides the generated full name.
func WithEmployeeFullName(name string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.FullName = name
	}
}

// WithEmployeeNationalID overrides the generated national ID.
func WithEmployeeNationalID(id string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.NationalID = id
	}
}

// WithEmployeeDepartment overrides the department.
func WithEmployeeDepartment(department string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Department = department
	}
}

// WithEmployeeStatus overrides the lifecycle status.
func WithEmployeeStatus(status persistence.EmployeeStatus) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Status = status
	}
}

// WithEmployeeShift sets the default shift window.
func WithEmployeeShift(start, end string) EmployeeOption {
	return func(f *EmployeeFixture) {
		s, e := start, end
		f.ShiftStart = &s
		f.ShiftEnd = &e
	}
}

// Persistence returns the fixture as a persistence.Employee value.
func (f EmployeeFixture) Persistence() persistence.Employee {
	return persistence.Employee{
		ID:         f.ID,
		Sequence:   f.Sequence,
		Title:      f.Title,
		FullName:   f.FullName,
		NationalID: f.NationalID,
		Department: f.Department,
		Status:     f.Status,
		ShiftStart: copyStringPtr(f.ShiftStart),
		ShiftEnd:   copyStringPtr(f.ShiftEnd),
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// Input returns the fixture as an application.EmployeeInput.
func (f EmployeeFixture) Input() application.EmployeeInput {
	return application.EmployeeInput{
		Sequence:   f.Sequence,
		Title:      f.Title,
		FullName:   f.FullName,
		NationalID: f.NationalID,
		Department: f.Department,
		Status:     f.Status,
		ShiftStart: copyStringPtr(f.ShiftStart),
		ShiftEnd:   copyStringPtr(f.ShiftEnd),
	}
}

// ------------------------------ User fixtures ------------------------------

// UserFixture represents a deterministic user account record.
type UserFixture struct {
	Username           string
	PasswordHash       string
	Role               persistence.Role
	DisplayName        string
	Department         string
	EmployeeID         *string
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		Username:     fmt.Sprintf("usuario%03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         persistence.RoleEmployee,
		DisplayName:  fmt.Sprintf("Usuario %03d", idx),
		Department:   "Tienda",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
	}
}

// WithUserRole overrides the authorization role.
func WithUserRole(role persistence.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserEmployeeID links the account to an employee record.
func WithUserEmployeeID(employeeID string) UserOption {
	return func(f *UserFixture) {
		id := employeeID
		f.EmployeeID = &id
	}
}

// WithMustChangePassword flags the account for a forced password reset.
func WithMustChangePassword(must bool) UserOption {
	return func(f *UserFixture) {
		f.MustChangePassword = must
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		Username:           f.Username,
		PasswordHash:       f.PasswordHash,
		Role:               f.Role,
		DisplayName:        f.DisplayName,
		Department:         f.Department,
		EmployeeID:         copyStringPtr(f.EmployeeID),
		MustChangePassword: f.MustChangePassword,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{
		Username:           f.Username,
		Role:               f.Role,
		EmployeeID:         copyStringPtr(f.EmployeeID),
		MustChangePassword: f.MustChangePassword,
	}
}

// ---------------------------- Session fixtures -----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	Username  string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		Username:  fmt.Sprintf("usuario%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(8 * time.Hour),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUsername sets the owning account name.
func WithSessionUsername(username string) SessionOption {
	return func(f *SessionFixture) {
		f.Username = username
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revoked timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	var revoked *time.Time
	if f.RevokedAt != nil {
		t := *f.RevokedAt
		revoked = &t
	}
	return persistence.Session{
		ID:        f.ID,
		Username:  f.Username,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: revoked,
	}
}

// --------------------------- Assignment fixtures ---------------------------

// NewAssignment returns an assignment for the given employee and day. An empty
// code yields a nil pointer, the stored representation of an unassigned day.
func NewAssignment(employeeID string, year, month, day int, code string) persistence.Assignment {
	assignment := persistence.Assignment{
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		Day:        day,
	}
	if code != "" {
		assignment.Code = &code
	}
	return assignment
}

// helper to deep copy optional strings.
func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
