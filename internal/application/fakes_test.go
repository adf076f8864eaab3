package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

// In-memory repositories used by the service tests.

type memEmployees struct {
	byID map[string]persistence.Employee
}

func newMemEmployees(employees ...persistence.Employee) *memEmployees {
	m := &memEmployees{byID: make(map[string]persistence.Employee)}
	for _, e := range employees {
		m.byID[e.ID] = e
	}
	return m
}

func (m *memEmployees) CreateEmployee(_ context.Context, employee persistence.Employee) error {
	for _, existing := range m.byID {
		if existing.NationalID == employee.NationalID {
			return persistence.ErrDuplicate
		}
	}
	m.byID[employee.ID] = employee
	return nil
}

func (m *memEmployees) UpdateEmployee(_ context.Context, employee persistence.Employee) error {
	if _, ok := m.byID[employee.ID]; !ok {
		return persistence.ErrNotFound
	}
	for id, existing := range m.byID {
		if id != employee.ID && existing.NationalID == employee.NationalID {
			return persistence.ErrDuplicate
		}
	}
	m.byID[employee.ID] = employee
	return nil
}

func (m *memEmployees) GetEmployee(_ context.Context, id string) (persistence.Employee, error) {
	employee, ok := m.byID[id]
	if !ok {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	return employee, nil
}

func (m *memEmployees) GetEmployeeByNationalID(_ context.Context, nationalID string) (persistence.Employee, error) {
	for _, employee := range m.byID {
		if employee.NationalID == nationalID {
			return employee, nil
		}
	}
	return persistence.Employee{}, persistence.ErrNotFound
}

func (m *memEmployees) ListEmployees(context.Context) ([]persistence.Employee, error) {
	employees := make([]persistence.Employee, 0, len(m.byID))
	for _, employee := range m.byID {
		employees = append(employees, employee)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].Sequence < employees[j].Sequence })
	return employees, nil
}

type memAssignments struct {
	cells map[string]persistence.Assignment
}

func newMemAssignments() *memAssignments {
	return &memAssignments{cells: make(map[string]persistence.Assignment)}
}

func assignmentKey(a persistence.Assignment) string {
	return fmt.Sprintf("%s|%d|%d|%d", a.EmployeeID, a.Year, a.Month, a.Day)
}

// UpsertMonth mirrors the store semantics: nil codes clear existing rows and
// never create one.
func (m *memAssignments) UpsertMonth(_ context.Context, assignments []persistence.Assignment) (int, error) {
	written := 0
	for _, a := range assignments {
		key := assignmentKey(a)
		if a.Code == nil {
			if existing, ok := m.cells[key]; ok {
				existing.Code = nil
				m.cells[key] = existing
				written++
			}
			continue
		}
		m.cells[key] = a
		written++
	}
	return written, nil
}

func (m *memAssignments) ListMonth(_ context.Context, year, month int) ([]persistence.Assignment, error) {
	var out []persistence.Assignment
	for _, a := range m.cells {
		if a.Year == year && a.Month == month {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssignments) ListEmployeeMonth(_ context.Context, employeeID string, year, month int) ([]persistence.Assignment, error) {
	var out []persistence.Assignment
	for _, a := range m.cells {
		if a.EmployeeID == employeeID && a.Year == year && a.Month == month {
			out = append(out, a)
		}
	}
	return out, nil
}

type memCodes struct {
	byCode map[string]persistence.ShiftCode
}

func newMemCodes(codes ...persistence.ShiftCode) *memCodes {
	m := &memCodes{byCode: make(map[string]persistence.ShiftCode)}
	for _, c := range codes {
		m.byCode[c.Code] = c
	}
	return m
}

func (m *memCodes) UpsertShiftCode(_ context.Context, code persistence.ShiftCode) error {
	m.byCode[code.Code] = code
	return nil
}

func (m *memCodes) GetShiftCode(_ context.Context, code string) (persistence.ShiftCode, error) {
	c, ok := m.byCode[code]
	if !ok {
		return persistence.ShiftCode{}, persistence.ErrNotFound
	}
	return c, nil
}

func (m *memCodes) ListShiftCodes(context.Context) ([]persistence.ShiftCode, error) {
	codes := make([]persistence.ShiftCode, 0, len(m.byCode))
	for _, c := range m.byCode {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].Code < codes[j].Code })
	return codes, nil
}

func (m *memCodes) DeleteShiftCode(_ context.Context, code string) error {
	if _, ok := m.byCode[code]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.byCode, code)
	return nil
}

type memUsers struct {
	byName map[string]persistence.User
}

func newMemUsers(users ...persistence.User) *memUsers {
	m := &memUsers{byName: make(map[string]persistence.User)}
	for _, u := range users {
		m.byName[u.Username] = u
	}
	return m
}

func (m *memUsers) CreateUser(_ context.Context, user persistence.User) error {
	if _, ok := m.byName[user.Username]; ok {
		return persistence.ErrDuplicate
	}
	m.byName[user.Username] = user
	return nil
}

func (m *memUsers) UpdateUser(_ context.Context, user persistence.User) error {
	if _, ok := m.byName[user.Username]; !ok {
		return persistence.ErrNotFound
	}
	m.byName[user.Username] = user
	return nil
}

func (m *memUsers) GetUser(_ context.Context, username string) (persistence.User, error) {
	user, ok := m.byName[strings.ToLower(username)]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) ListUsers(context.Context) ([]persistence.User, error) {
	users := make([]persistence.User, 0, len(m.byName))
	for _, u := range m.byName {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *memUsers) DeleteUser(_ context.Context, username string) error {
	if _, ok := m.byName[username]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.byName, username)
	return nil
}

type memSessions struct {
	byToken map[string]persistence.Session
}

func newMemSessions() *memSessions {
	return &memSessions{byToken: make(map[string]persistence.Session)}
}

func (m *memSessions) CreateSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	m.byToken[session.Token] = session
	return session, nil
}

func (m *memSessions) GetSession(_ context.Context, token string) (persistence.Session, error) {
	session, ok := m.byToken[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (m *memSessions) RevokeSession(_ context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	session, ok := m.byToken[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	m.byToken[token] = session
	return session, nil
}

func (m *memSessions) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	for token, session := range m.byToken {
		if !session.ExpiresAt.After(reference) {
			delete(m.byToken, token)
		}
	}
	return nil
}

type memSettings struct {
	byKey map[string]persistence.Setting
}

func newMemSettings(settings ...persistence.Setting) *memSettings {
	m := &memSettings{byKey: make(map[string]persistence.Setting)}
	for _, s := range settings {
		m.byKey[s.Key] = s
	}
	return m
}

func (m *memSettings) UpsertSetting(_ context.Context, setting persistence.Setting) error {
	m.byKey[setting.Key] = setting
	return nil
}

func (m *memSettings) GetSetting(_ context.Context, key string) (persistence.Setting, error) {
	setting, ok := m.byKey[key]
	if !ok {
		return persistence.Setting{}, persistence.ErrNotFound
	}
	return setting, nil
}

func (m *memSettings) ListSettings(context.Context) ([]persistence.Setting, error) {
	settings := make([]persistence.Setting, 0, len(m.byKey))
	for _, s := range m.byKey {
		settings = append(settings, s)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

type memAudit struct {
	entries []persistence.AuditEntry
}

func (m *memAudit) AppendAudit(_ context.Context, entry persistence.AuditEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAudit) ListAudit(_ context.Context, limit int) ([]persistence.AuditEntry, error) {
	out := make([]persistence.AuditEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memAudit) lastAction() string {
	if len(m.entries) == 0 {
		return ""
	}
	return m.entries[len(m.entries)-1].Action
}

// Fixed test identities.

func adminPrincipal() Principal {
	return Principal{Username: "admin", Role: persistence.RoleAdmin}
}

func supervisorPrincipal() Principal {
	return Principal{Username: "super", Role: persistence.RoleSupervisor}
}

func employeePrincipal(employeeID string) Principal {
	p := Principal{Username: "emp", Role: persistence.RoleEmployee}
	if employeeID != "" {
		p.EmployeeID = &employeeID
	}
	return p
}

func fixedClock() time.Time {
	return time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }
