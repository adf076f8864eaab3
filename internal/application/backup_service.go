package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/shift-roster/internal/backup"
	"github.com/example/shift-roster/internal/persistence"
)

// BackupService exposes snapshot and archive operations to administrators.
type BackupService struct {
	snapshots *backup.Manager
	archiver  *backup.Archiver
	audit     AuditRecorder
	now       func() time.Time
	logger    *slog.Logger
}

// NewBackupService wires dependencies for the backup service.
func NewBackupService(snapshots *backup.Manager, archiver *backup.Archiver, audit AuditRecorder, now func() time.Time, logger *slog.Logger) *BackupService {
	if now == nil {
		now = time.Now
	}
	return &BackupService{snapshots: snapshots, archiver: archiver, audit: audit, now: now, logger: defaultLogger(logger)}
}

func (s *BackupService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BackupService", operation, attrs...)
}

// ListSnapshots returns the available snapshots, newest first.
func (s *BackupService) ListSnapshots(ctx context.Context, principal Principal) ([]backup.Snapshot, error) {
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.snapshots.ListSnapshots()
}

// CreateSnapshot takes a snapshot of the live store for administrators.
func (s *BackupService) CreateSnapshot(ctx context.Context, principal Principal) (backup.Snapshot, error) {
	if !principal.IsAdmin() {
		return backup.Snapshot{}, ErrUnauthorized
	}

	snapshot, err := s.snapshots.CreateSnapshot(ctx)
	if err != nil {
		return backup.Snapshot{}, err
	}

	s.recordAudit(ctx, principal, "crear_respaldo", snapshot.ID)
	return snapshot, nil
}

// RestoreSnapshot replaces the live store with the named snapshot.
func (s *BackupService) RestoreSnapshot(ctx context.Context, principal Principal, id string) error {
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	if err := s.snapshots.RestoreSnapshot(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, principal, "restaurar_respaldo", id)
	s.log(ctx, "RestoreSnapshot").With("snapshot_id", id).InfoContext(ctx, "store restored from snapshot")
	return nil
}

// ExportJSON serializes the whole store into one archive document.
func (s *BackupService) ExportJSON(ctx context.Context, principal Principal) (backup.Document, error) {
	if !principal.IsAdmin() {
		return backup.Document{}, ErrUnauthorized
	}

	doc, err := s.archiver.ExportJSON(ctx)
	if err != nil {
		return backup.Document{}, err
	}

	s.recordAudit(ctx, principal, "exportar_json", doc.ExportDate)
	return doc, nil
}

// ImportJSON replaces the whole store with an archive document.
func (s *BackupService) ImportJSON(ctx context.Context, principal Principal, doc backup.Document) (backup.ImportResult, error) {
	if !principal.IsAdmin() {
		return backup.ImportResult{}, ErrUnauthorized
	}

	result, err := s.archiver.ImportJSON(ctx, doc)
	if err != nil {
		return backup.ImportResult{}, err
	}

	s.recordAudit(ctx, principal, "importar_json", fmt.Sprintf("empleados=%d usuarios=%d", result.Employees, result.Users))
	return result, nil
}

func (s *BackupService) recordAudit(ctx context.Context, principal Principal, action, details string) {
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
