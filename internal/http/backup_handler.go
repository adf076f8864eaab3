package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/shift-roster/internal/application"
	"github.com/example/shift-roster/internal/backup"
	"github.com/example/shift-roster/internal/persistence"
)

type backupService interface {
	ListSnapshots(ctx context.Context, principal application.Principal) ([]backup.Snapshot, error)
	CreateSnapshot(ctx context.Context, principal application.Principal) (backup.Snapshot, error)
	RestoreSnapshot(ctx context.Context, principal application.Principal, id string) error
	ExportJSON(ctx context.Context, principal application.Principal) (backup.Document, error)
	ImportJSON(ctx context.Context, principal application.Principal, doc backup.Document) (backup.ImportResult, error)
}

type auditService interface {
	List(ctx context.Context, principal application.Principal, limit int) ([]persistence.AuditEntry, error)
}

// BackupHandler serves the snapshot, archive, and audit trail endpoints.
type BackupHandler struct {
	service   backupService
	audit     auditService
	responder responder
	logger    *slog.Logger
}

// NewBackupHandler wires dependencies for the backup endpoints.
func NewBackupHandler(service backupService, audit auditService, logger *slog.Logger) *BackupHandler {
	base := defaultLogger(logger)
	return &BackupHandler{service: service, audit: audit, responder: newResponder(base), logger: base}
}

func (h *BackupHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "BackupHandler", operation, attrs...)
}

// List handles GET /backups.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	snapshots, err := h.service.ListSnapshots(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]snapshotDTO, 0, len(snapshots))
	for _, s := range snapshots {
		payload = append(payload, toSnapshotDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Create handles POST /backups.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	snapshot, err := h.service.CreateSnapshot(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Create").ErrorContext(r.Context(), "snapshot failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create").InfoContext(r.Context(), "snapshot created", "snapshot_id", snapshot.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSnapshotDTO(snapshot))
}

// Restore handles POST /backups/{id}/restore.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id, _ := SnapshotIDFromContext(r.Context())

	if err := h.service.RestoreSnapshot(r.Context(), principal, id); err != nil {
		h.log(r.Context(), "Restore").ErrorContext(r.Context(), "restore failed", "error", err, "snapshot_id", id)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Restore").InfoContext(r.Context(), "snapshot restored", "snapshot_id", id)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Export handles GET /backups/export.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	doc, err := h.service.ExportJSON(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Export").ErrorContext(r.Context(), "export failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=roster-export.json")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, doc)
}

// Import handles POST /backups/import.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var doc backup.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.ImportJSON(r.Context(), principal, doc)
	if err != nil {
		h.log(r.Context(), "Import").ErrorContext(r.Context(), "import failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Import").InfoContext(r.Context(), "archive imported",
		"employees", result.Employees, "users", result.Users, "assignments", result.Assignments)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, importResultDTO{
		Employees:   result.Employees,
		ShiftCodes:  result.ShiftCodes,
		Users:       result.Users,
		Assignments: result.Assignments,
		Settings:    result.Settings,
	})
}

// Audit handles GET /audit?limit=.
func (h *BackupHandler) Audit(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			limit = value
		}
	}

	entries, err := h.audit.List(r.Context(), principal, limit)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]auditEntryDTO, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, auditEntryDTO{
			Action:    entry.Action,
			Details:   entry.Details,
			Username:  entry.Username,
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

type snapshotDTO struct {
	ID        string `json:"id"`
	Size      int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
}

func toSnapshotDTO(s backup.Snapshot) snapshotDTO {
	return snapshotDTO{
		ID:        s.ID,
		Size:      s.Size,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type importResultDTO struct {
	Employees   int `json:"employees"`
	ShiftCodes  int `json:"codigos_turno"`
	Users       int `json:"usuarios"`
	Assignments int `json:"malla_turnos"`
	Settings    int `json:"configuracion"`
}

type auditEntryDTO struct {
	Action    string `json:"action"`
	Details   string `json:"details"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}
