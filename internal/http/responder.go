package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/shift-roster/internal/application"
	"github.com/example/shift-roster/internal/backup"
	"github.com/example/shift-roster/internal/logging"
)

var (
	errBadRequestBody      = errors.New("el formato de la solicitud no es válido")
	errInvalidMonth        = errors.New("los parámetros year y month no son válidos")
	errMissingSessionToken = errors.New("debe iniciar sesión para continuar")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application and backup errors to HTTP responses with
// user-facing Spanish messages.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("error desconocido"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "no tiene permisos para realizar esta operación",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "usuario o contraseña incorrectos",
		})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "la sesión ha expirado, inicie sesión nuevamente",
		})
	case errors.Is(err, application.ErrPasswordChangeRequired):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_PASSWORD_CHANGE_REQUIRED",
			Message:   "debe cambiar su contraseña antes de continuar",
		})
	case errors.Is(err, application.ErrNotFound), errors.Is(err, backup.ErrSnapshotNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "el recurso solicitado no existe"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "el recurso ya existe"})
	case errors.Is(err, backup.ErrNoStore):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "todavía no existe una base de datos para respaldar"})
	case errors.Is(err, backup.ErrLocked):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "otra operación de respaldo está en curso"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "los datos ingresados no son válidos",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "ocurrió un error interno en el servidor"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "la solicitud no es válida"
	case http.StatusUnauthorized:
		return "debe iniciar sesión para continuar"
	case http.StatusForbidden:
		return "no tiene permisos para realizar esta operación"
	case http.StatusNotFound:
		return "el recurso solicitado no existe"
	case http.StatusConflict:
		return "la solicitud entra en conflicto con el estado actual"
	case http.StatusUnprocessableEntity:
		return "los datos ingresados no son válidos"
	default:
		return "ocurrió un error interno en el servidor"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
