package application

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ShiftCodeService manages the shift code registry.
type ShiftCodeService struct {
	codes  persistence.ShiftCodeRepository
	audit  AuditRecorder
	now    func() time.Time
	logger *slog.Logger
}

// NewShiftCodeService wires dependencies for the shift code service.
func NewShiftCodeService(codes persistence.ShiftCodeRepository, audit AuditRecorder, now func() time.Time, logger *slog.Logger) *ShiftCodeService {
	if now == nil {
		now = time.Now
	}
	return &ShiftCodeService{codes: codes, audit: audit, now: now, logger: defaultLogger(logger)}
}

func (s *ShiftCodeService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ShiftCodeService", operation, attrs...)
}

// GetAll returns the full registry as a code-keyed map.
func (s *ShiftCodeService) GetAll(ctx context.Context) (map[string]persistence.ShiftCode, error) {
	codes, err := s.codes.ListShiftCodes(ctx)
	if err != nil {
		return nil, err
	}

	registry := make(map[string]persistence.ShiftCode, len(codes))
	for _, code := range codes {
		registry[code.Code] = code
	}
	return registry, nil
}

// List returns the registry in stable code order.
func (s *ShiftCodeService) List(ctx context.Context) ([]persistence.ShiftCode, error) {
	return s.codes.ListShiftCodes(ctx)
}

// Upsert validates and stores one shift code definition for administrators.
func (s *ShiftCodeService) Upsert(ctx context.Context, principal Principal, code persistence.ShiftCode) (persistence.ShiftCode, error) {
	if !principal.IsAdmin() {
		return persistence.ShiftCode{}, ErrUnauthorized
	}

	code.Code = strings.TrimSpace(code.Code)
	code.Label = strings.TrimSpace(code.Label)
	code.Color = strings.TrimSpace(code.Color)

	vErr := &ValidationError{}
	if code.Code == "" {
		vErr.add("code", "el código es obligatorio")
	}
	if code.Label == "" {
		vErr.add("label", "la descripción es obligatoria")
	}
	if !hexColorPattern.MatchString(code.Color) {
		vErr.add("color", "el color debe tener formato #RRGGBB")
	}
	if code.Hours < 0 || code.Hours > 24 {
		vErr.add("hours", "las horas deben estar entre 0 y 24")
	}
	if vErr.HasErrors() {
		return persistence.ShiftCode{}, vErr
	}

	if err := s.codes.UpsertShiftCode(ctx, code); err != nil {
		return persistence.ShiftCode{}, err
	}

	s.recordAudit(ctx, principal, "actualizar_codigo", code.Code)
	s.log(ctx, "Upsert").With("code", code.Code).InfoContext(ctx, "shift code stored")
	return code, nil
}

// Delete removes a code for administrators. Assignments referencing it are
// nulled by the repository, never deleted.
func (s *ShiftCodeService) Delete(ctx context.Context, principal Principal, code string) error {
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	if err := s.codes.DeleteShiftCode(ctx, code); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.recordAudit(ctx, principal, "eliminar_codigo", code)
	s.log(ctx, "Delete").With("code", code).InfoContext(ctx, "shift code deleted")
	return nil
}

func (s *ShiftCodeService) recordAudit(ctx context.Context, principal Principal, action, details string) {
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
