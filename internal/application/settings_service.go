package application

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

// SettingsService exposes the typed configuration registry. Values are stored
// as strings with a declared type and decoded through typed accessors instead
// of the untyped nested maps the registry grew out of.
type SettingsService struct {
	settings persistence.SettingRepository
	audit    AuditRecorder
	now      func() time.Time
	logger   *slog.Logger
}

// NewSettingsService wires dependencies for the settings service.
func NewSettingsService(settings persistence.SettingRepository, audit AuditRecorder, now func() time.Time, logger *slog.Logger) *SettingsService {
	if now == nil {
		now = time.Now
	}
	return &SettingsService{settings: settings, audit: audit, now: now, logger: defaultLogger(logger)}
}

func (s *SettingsService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SettingsService", operation, attrs...)
}

// List returns every configuration entry.
func (s *SettingsService) List(ctx context.Context) ([]persistence.Setting, error) {
	return s.settings.ListSettings(ctx)
}

// Put validates and stores one entry for administrators.
func (s *SettingsService) Put(ctx context.Context, principal Principal, setting persistence.Setting) error {
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	setting.Key = strings.TrimSpace(setting.Key)
	vErr := &ValidationError{}
	if setting.Key == "" {
		vErr.add("key", "la clave es obligatoria")
	}
	switch setting.Type {
	case persistence.SettingText, persistence.SettingList:
	case persistence.SettingNumber:
		if _, err := strconv.Atoi(strings.TrimSpace(setting.Value)); err != nil {
			vErr.add("value", "el valor debe ser numérico")
		}
	case persistence.SettingBoolean:
		v := strings.TrimSpace(setting.Value)
		if v != "0" && v != "1" && v != "true" && v != "false" {
			vErr.add("value", "el valor debe ser booleano")
		}
	default:
		vErr.add("type", "tipo de configuración desconocido")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if err := s.settings.UpsertSetting(ctx, setting); err != nil {
		return err
	}

	if s.audit != nil {
		entry := persistence.AuditEntry{
			Action:    "actualizar_configuracion",
			Details:   setting.Key,
			Username:  principal.Username,
			Timestamp: s.now().UTC(),
		}
		if err := s.audit.AppendAudit(ctx, entry); err != nil {
			s.log(ctx, "Put").WarnContext(ctx, "failed to append audit entry", "error", err)
		}
	}
	return nil
}

// Text returns a text setting, or fallback when the key is absent.
func (s *SettingsService) Text(ctx context.Context, key, fallback string) (string, error) {
	setting, err := s.settings.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fallback, nil
		}
		return "", err
	}
	return setting.Value, nil
}

// Number returns a numeric setting, or fallback when absent or malformed.
func (s *SettingsService) Number(ctx context.Context, key string, fallback int) (int, error) {
	setting, err := s.settings.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fallback, nil
		}
		return 0, err
	}
	value, err := strconv.Atoi(strings.TrimSpace(setting.Value))
	if err != nil {
		return fallback, nil
	}
	return value, nil
}

// Bool returns a boolean setting, or fallback when absent.
func (s *SettingsService) Bool(ctx context.Context, key string, fallback bool) (bool, error) {
	setting, err := s.settings.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fallback, nil
		}
		return false, err
	}
	v := strings.TrimSpace(setting.Value)
	return v == "1" || v == "true", nil
}

// ListValues returns a comma-list setting split into trimmed, non-empty items.
func (s *SettingsService) ListValues(ctx context.Context, key string) ([]string, error) {
	setting, err := s.settings.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	parts := strings.Split(setting.Value, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values, nil
}
