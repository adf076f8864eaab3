package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/shift-roster/internal/application"
	"github.com/example/shift-roster/internal/persistence"
)

type settingsService interface {
	List(ctx context.Context) ([]persistence.Setting, error)
	Put(ctx context.Context, principal application.Principal, setting persistence.Setting) error
}

// SettingsHandler serves the typed configuration registry endpoints.
type SettingsHandler struct {
	service   settingsService
	responder responder
	logger    *slog.Logger
}

// NewSettingsHandler wires dependencies for the settings endpoints.
func NewSettingsHandler(service settingsService, logger *slog.Logger) *SettingsHandler {
	base := defaultLogger(logger)
	return &SettingsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SettingsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "SettingsHandler", operation, attrs...)
}

// List handles GET /settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.List(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list settings", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]settingDTO, 0, len(settings))
	for _, s := range settings {
		payload = append(payload, toSettingDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Put handles PUT /settings.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req settingDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.service.Put(r.Context(), principal, req.toSetting()); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Put").InfoContext(r.Context(), "setting stored", "key", req.Key)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type settingDTO struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

func (d settingDTO) toSetting() persistence.Setting {
	return persistence.Setting{
		Key:         d.Key,
		Value:       d.Value,
		Type:        persistence.SettingType(d.Type),
		Description: d.Description,
	}
}

func toSettingDTO(s persistence.Setting) settingDTO {
	return settingDTO{Key: s.Key, Value: s.Value, Type: string(s.Type), Description: s.Description}
}
