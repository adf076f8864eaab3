package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

// ArchiveVersion tags the JSON document format written by ExportJSON.
const ArchiveVersion = "1.0"

// Document is the full-store JSON archive. Table keys match the format the
// admin tooling has always exchanged.
type Document struct {
	Employees   []EmployeeRecord         `json:"employees"`
	ShiftCodes  []ShiftCodeRecord        `json:"codigos_turno"`
	Users       []UserRecord             `json:"usuarios"`
	Assignments []AssignmentRecord       `json:"malla_turnos"`
	Settings    map[string]SettingRecord `json:"configuracion"`
	ExportDate  string                   `json:"export_date"`
	Version     string                   `json:"version"`
}

// EmployeeRecord is the archive form of an employee row.
type EmployeeRecord struct {
	ID         string  `json:"id"`
	Sequence   int     `json:"sequence"`
	Title      string  `json:"title"`
	FullName   string  `json:"full_name"`
	NationalID string  `json:"national_id"`
	Department string  `json:"department"`
	Status     string  `json:"status"`
	ShiftStart *string `json:"shift_start,omitempty"`
	ShiftEnd   *string `json:"shift_end,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}

// ShiftCodeRecord is the archive form of a shift code.
type ShiftCodeRecord struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Color string `json:"color"`
	Hours int    `json:"hours"`
}

// UserRecord is the archive form of a user account. The only secret material
// carried is the already-hashed password.
type UserRecord struct {
	Username           string  `json:"username"`
	PasswordHash       string  `json:"password_hash,omitempty"`
	Role               string  `json:"role"`
	DisplayName        string  `json:"display_name"`
	Department         string  `json:"department"`
	EmployeeID         *string `json:"employee_id,omitempty"`
	MustChangePassword bool    `json:"must_change_password"`
	CreatedAt          string  `json:"created_at,omitempty"`
	UpdatedAt          string  `json:"updated_at,omitempty"`
}

// AssignmentRecord is the archive form of one employee-day assignment.
type AssignmentRecord struct {
	EmployeeID string  `json:"employee_id"`
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Day        int     `json:"day"`
	Code       *string `json:"code"`
}

// SettingRecord is the archive form of one configuration entry, keyed by the
// setting name in the document.
type SettingRecord struct {
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ImportResult reports how many rows each table received.
type ImportResult struct {
	Employees   int
	ShiftCodes  int
	Users       int
	Assignments int
	Settings    int
}

// Archiver serializes the whole store to the JSON document and replaces it
// from one. Imports snapshot the live store first as a safety net.
type Archiver struct {
	store           persistence.BackupStore
	snapshots       *Manager
	placeholderHash string
	now             func() time.Time
	logger          *slog.Logger
}

// NewArchiver wires an archiver. placeholderHash is assigned to imported users
// that carry no password hash; such users must reset their password before
// they can authenticate.
func NewArchiver(store persistence.BackupStore, snapshots *Manager, placeholderHash string, now func() time.Time, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{store: store, snapshots: snapshots, placeholderHash: placeholderHash, now: now, logger: logger}
}

// ExportJSON reads every entity table into one archive document.
func (a *Archiver) ExportJSON(ctx context.Context) (Document, error) {
	dump, err := a.store.ExportAll(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("failed to export store: %w", err)
	}

	doc := Document{
		Employees:   make([]EmployeeRecord, 0, len(dump.Employees)),
		ShiftCodes:  make([]ShiftCodeRecord, 0, len(dump.ShiftCodes)),
		Users:       make([]UserRecord, 0, len(dump.Users)),
		Assignments: make([]AssignmentRecord, 0, len(dump.Assignments)),
		Settings:    make(map[string]SettingRecord, len(dump.Settings)),
		ExportDate:  a.now().UTC().Format(time.RFC3339),
		Version:     ArchiveVersion,
	}

	for _, e := range dump.Employees {
		doc.Employees = append(doc.Employees, EmployeeRecord{
			ID:         e.ID,
			Sequence:   e.Sequence,
			Title:      e.Title,
			FullName:   e.FullName,
			NationalID: e.NationalID,
			Department: e.Department,
			Status:     string(e.Status),
			ShiftStart: e.ShiftStart,
			ShiftEnd:   e.ShiftEnd,
			CreatedAt:  formatTime(e.CreatedAt),
			UpdatedAt:  formatTime(e.UpdatedAt),
		})
	}
	for _, c := range dump.ShiftCodes {
		doc.ShiftCodes = append(doc.ShiftCodes, ShiftCodeRecord{Code: c.Code, Label: c.Label, Color: c.Color, Hours: c.Hours})
	}
	for _, u := range dump.Users {
		doc.Users = append(doc.Users, UserRecord{
			Username:           u.Username,
			PasswordHash:       u.PasswordHash,
			Role:               string(u.Role),
			DisplayName:        u.DisplayName,
			Department:         u.Department,
			EmployeeID:         u.EmployeeID,
			MustChangePassword: u.MustChangePassword,
			CreatedAt:          formatTime(u.CreatedAt),
			UpdatedAt:          formatTime(u.UpdatedAt),
		})
	}
	for _, s := range dump.Assignments {
		doc.Assignments = append(doc.Assignments, AssignmentRecord{
			EmployeeID: s.EmployeeID,
			Year:       s.Year,
			Month:      s.Month,
			Day:        s.Day,
			Code:       s.Code,
		})
	}
	for _, s := range dump.Settings {
		doc.Settings[s.Key] = SettingRecord{Value: s.Value, Type: string(s.Type), Description: s.Description}
	}

	a.logger.InfoContext(ctx, "store exported",
		"employees", len(doc.Employees),
		"shift_codes", len(doc.ShiftCodes),
		"users", len(doc.Users),
		"assignments", len(doc.Assignments),
		"settings", len(doc.Settings))
	return doc, nil
}

// ImportJSON replaces every entity table with the document's contents. A
// snapshot of the current store is taken first; the replacement itself is
// all-or-nothing. Users without a password hash receive the placeholder hash
// and are flagged for a forced password change.
func (a *Archiver) ImportJSON(ctx context.Context, doc Document) (ImportResult, error) {
	if doc.Version != ArchiveVersion {
		return ImportResult{}, fmt.Errorf("unsupported archive version %q, want %q", doc.Version, ArchiveVersion)
	}

	if _, err := a.snapshots.CreateSnapshot(ctx); err != nil && !errors.Is(err, ErrNoStore) {
		return ImportResult{}, fmt.Errorf("refusing to import without a safety snapshot: %w", err)
	}

	now := a.now().UTC()
	dump := persistence.Dump{
		Employees:   make([]persistence.Employee, 0, len(doc.Employees)),
		ShiftCodes:  make([]persistence.ShiftCode, 0, len(doc.ShiftCodes)),
		Users:       make([]persistence.User, 0, len(doc.Users)),
		Assignments: make([]persistence.Assignment, 0, len(doc.Assignments)),
		Settings:    make([]persistence.Setting, 0, len(doc.Settings)),
	}

	for _, e := range doc.Employees {
		status := persistence.EmployeeStatus(e.Status)
		if status == "" {
			status = persistence.StatusActive
		}
		dump.Employees = append(dump.Employees, persistence.Employee{
			ID:         e.ID,
			Sequence:   e.Sequence,
			Title:      e.Title,
			FullName:   e.FullName,
			NationalID: e.NationalID,
			Department: e.Department,
			Status:     status,
			ShiftStart: e.ShiftStart,
			ShiftEnd:   e.ShiftEnd,
			CreatedAt:  parseTime(e.CreatedAt, now),
			UpdatedAt:  parseTime(e.UpdatedAt, now),
		})
	}
	for _, c := range doc.ShiftCodes {
		dump.ShiftCodes = append(dump.ShiftCodes, persistence.ShiftCode{Code: c.Code, Label: c.Label, Color: c.Color, Hours: c.Hours})
	}
	for _, u := range doc.Users {
		user := persistence.User{
			Username:           u.Username,
			PasswordHash:       u.PasswordHash,
			Role:               persistence.Role(u.Role),
			DisplayName:        u.DisplayName,
			Department:         u.Department,
			EmployeeID:         u.EmployeeID,
			MustChangePassword: u.MustChangePassword,
			CreatedAt:          parseTime(u.CreatedAt, now),
			UpdatedAt:          parseTime(u.UpdatedAt, now),
		}
		if user.PasswordHash == "" {
			user.PasswordHash = a.placeholderHash
			user.MustChangePassword = true
		}
		dump.Users = append(dump.Users, user)
	}
	for _, s := range doc.Assignments {
		dump.Assignments = append(dump.Assignments, persistence.Assignment{
			EmployeeID: s.EmployeeID,
			Year:       s.Year,
			Month:      s.Month,
			Day:        s.Day,
			Code:       s.Code,
		})
	}
	for key, s := range doc.Settings {
		settingType := persistence.SettingType(s.Type)
		if settingType == "" {
			settingType = persistence.SettingText
		}
		dump.Settings = append(dump.Settings, persistence.Setting{Key: key, Value: s.Value, Type: settingType, Description: s.Description})
	}

	if err := a.store.ImportAll(ctx, dump); err != nil {
		return ImportResult{}, fmt.Errorf("failed to import archive: %w", err)
	}

	result := ImportResult{
		Employees:   len(dump.Employees),
		ShiftCodes:  len(dump.ShiftCodes),
		Users:       len(dump.Users),
		Assignments: len(dump.Assignments),
		Settings:    len(dump.Settings),
	}
	a.logger.InfoContext(ctx, "store imported",
		"employees", result.Employees,
		"shift_codes", result.ShiftCodes,
		"users", result.Users,
		"assignments", result.Assignments,
		"settings", result.Settings)
	return result, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fallback
	}
	return t.UTC()
}
