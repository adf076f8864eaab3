package backup

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shift-roster/internal/persistence"
)

const testPlaceholderHash = "!temporary-password-reset-required"

// memoryStore holds a Dump in memory, standing in for the SQLite BackupStore.
type memoryStore struct {
	dump      persistence.Dump
	importErr error
}

func (m *memoryStore) ExportAll(context.Context) (persistence.Dump, error) {
	return m.dump, nil
}

func (m *memoryStore) ImportAll(_ context.Context, dump persistence.Dump) error {
	if m.importErr != nil {
		return m.importErr
	}
	m.dump = dump
	return nil
}

func newTestArchiver(t *testing.T, store *memoryStore) (*Archiver, *fakeStore) {
	t.Helper()
	live := &fakeStore{path: filepath.Join(t.TempDir(), "roster.db")}
	clock := &tickingClock{current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	manager, err := NewManager(live, t.TempDir(), 3, clock.now, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return NewArchiver(store, manager, testPlaceholderHash, clock.now, slog.New(slog.DiscardHandler)), live
}

func code(c string) *string { return &c }

func TestExportJSONDocumentShape(t *testing.T) {
	store := &memoryStore{dump: persistence.Dump{
		Employees: []persistence.Employee{{
			ID:         "emp-1",
			Sequence:   1,
			FullName:   "García López, María",
			NationalID: "12345678",
			Department: "Tienda",
			Status:     persistence.StatusActive,
			CreatedAt:  time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
		}},
		ShiftCodes: []persistence.ShiftCode{{Code: "VC", Label: "Vacaciones", Color: "#9B5DE5"}},
		Users: []persistence.User{{
			Username:     "admin",
			PasswordHash: "$argon2id$...",
			Role:         persistence.RoleAdmin,
			DisplayName:  "Administrador",
		}},
		Assignments: []persistence.Assignment{{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 15, Code: code("VC")}},
		Settings:    []persistence.Setting{{Key: "formato_hora", Value: "24 horas", Type: persistence.SettingText}},
	}}
	archiver, _ := newTestArchiver(t, store)

	doc, err := archiver.ExportJSON(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ArchiveVersion, doc.Version)
	assert.Equal(t, "2026-03-10T12:00:01Z", doc.ExportDate)
	require.Len(t, doc.Employees, 1)
	assert.Equal(t, "2026-01-05T08:00:00Z", doc.Employees[0].CreatedAt)
	require.Len(t, doc.Assignments, 1)
	assert.Equal(t, 15, doc.Assignments[0].Day)
	require.Contains(t, doc.Settings, "formato_hora")
	assert.Equal(t, "24 horas", doc.Settings["formato_hora"].Value)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	for _, key := range []string{"employees", "codigos_turno", "usuarios", "malla_turnos", "configuracion", "export_date", "version"} {
		assert.Contains(t, string(raw), `"`+key+`"`)
	}
	assert.Contains(t, string(raw), "$argon2id$", "hashes are the only secret material carried")
}

func TestImportJSONReplacesStore(t *testing.T) {
	store := &memoryStore{dump: persistence.Dump{
		Employees: []persistence.Employee{{ID: "stale", NationalID: "999"}},
	}}
	archiver, live := newTestArchiver(t, store)
	require.NoError(t, os.WriteFile(live.path, []byte("live"), 0o640))

	doc := Document{
		Version: ArchiveVersion,
		Employees: []EmployeeRecord{
			{ID: "emp-1", Sequence: 1, FullName: "Pérez, Juan", NationalID: "111", Department: "Cajas", Status: "Activo"},
			{ID: "emp-2", Sequence: 2, FullName: "Ruiz, Ana", NationalID: "222", Department: "Tienda"},
		},
		ShiftCodes:  []ShiftCodeRecord{{Code: "15", Label: "8 AM - 5 PM", Color: "#4ECDC4", Hours: 8}},
		Assignments: []AssignmentRecord{{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 15, Code: code("15")}},
		Settings:    map[string]SettingRecord{"inicio_semana": {Value: "Lunes", Type: "text"}},
	}

	result, err := archiver.ImportJSON(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Employees: 2, ShiftCodes: 1, Assignments: 1, Settings: 1}, result)

	require.Len(t, store.dump.Employees, 2)
	assert.Equal(t, "111", store.dump.Employees[0].NationalID)
	assert.Equal(t, persistence.StatusActive, store.dump.Employees[1].Status, "missing status defaults to active")
}

func TestImportJSONAssignsPlaceholderHash(t *testing.T) {
	store := &memoryStore{}
	archiver, _ := newTestArchiver(t, store)

	doc := Document{
		Version: ArchiveVersion,
		Users: []UserRecord{
			{Username: "admin", PasswordHash: "$argon2id$kept", Role: "admin"},
			{Username: "imported", Role: "employee"},
		},
	}

	_, err := archiver.ImportJSON(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, store.dump.Users, 2)
	assert.Equal(t, "$argon2id$kept", store.dump.Users[0].PasswordHash)
	assert.False(t, store.dump.Users[0].MustChangePassword)
	assert.Equal(t, testPlaceholderHash, store.dump.Users[1].PasswordHash)
	assert.True(t, store.dump.Users[1].MustChangePassword, "imported users without a hash must rotate their password")
}

func TestImportJSONTakesSafetySnapshot(t *testing.T) {
	store := &memoryStore{}
	archiver, live := newTestArchiver(t, store)
	require.NoError(t, os.WriteFile(live.path, []byte("pre-import"), 0o640))

	_, err := archiver.ImportJSON(context.Background(), Document{Version: ArchiveVersion})
	require.NoError(t, err)

	snapshots, err := archiver.snapshots.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	data, err := os.ReadFile(snapshots[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "pre-import", string(data))
}

func TestImportJSONRejectsUnknownVersion(t *testing.T) {
	store := &memoryStore{dump: persistence.Dump{
		Settings: []persistence.Setting{{Key: "keep", Value: "me", Type: persistence.SettingText}},
	}}
	archiver, _ := newTestArchiver(t, store)

	_, err := archiver.ImportJSON(context.Background(), Document{Version: "9.9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive version")
	assert.Len(t, store.dump.Settings, 1, "store is untouched on rejection")
}
