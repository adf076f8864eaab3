package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/shift-roster/internal/application"
	"github.com/example/shift-roster/internal/persistence"
)

type shiftCodeService interface {
	List(ctx context.Context) ([]persistence.ShiftCode, error)
	Upsert(ctx context.Context, principal application.Principal, code persistence.ShiftCode) (persistence.ShiftCode, error)
	Delete(ctx context.Context, principal application.Principal, code string) error
}

// ShiftCodeHandler serves the shift code registry endpoints.
type ShiftCodeHandler struct {
	service   shiftCodeService
	responder responder
	logger    *slog.Logger
}

// NewShiftCodeHandler wires dependencies for the shift code endpoints.
func NewShiftCodeHandler(service shiftCodeService, logger *slog.Logger) *ShiftCodeHandler {
	base := defaultLogger(logger)
	return &ShiftCodeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ShiftCodeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ShiftCodeHandler", operation, attrs...)
}

// List handles GET /shift-codes.
func (h *ShiftCodeHandler) List(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.List(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list shift codes", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]shiftCodeDTO, 0, len(codes))
	for _, code := range codes {
		payload = append(payload, shiftCodeDTO(code))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Upsert handles PUT /shift-codes.
func (h *ShiftCodeHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req shiftCodeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	stored, err := h.service.Upsert(r.Context(), principal, persistence.ShiftCode(req))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Upsert").InfoContext(r.Context(), "shift code stored", "code", stored.Code)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftCodeDTO(stored))
}

// Delete handles DELETE /shift-codes/{code}.
func (h *ShiftCodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	code, _ := ShiftCodeFromContext(r.Context())

	if err := h.service.Delete(r.Context(), principal, code); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete").InfoContext(r.Context(), "shift code deleted", "code", code)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type shiftCodeDTO struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Color string `json:"color"`
	Hours int    `json:"hours"`
}
