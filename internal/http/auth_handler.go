package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/shift-roster/internal/application"
)

type authService interface {
	Authenticate(ctx context.Context, username, password string) (application.AuthenticateResult, error)
	Logout(ctx context.Context, token string) error
}

type passwordChanger interface {
	ChangePassword(ctx context.Context, principal application.Principal, newPassword string) error
}

// AuthHandler serves login, logout, and the password rotation endpoint.
type AuthHandler struct {
	service   authService
	passwords passwordChanger
	responder responder
	logger    *slog.Logger
}

// NewAuthHandler wires dependencies for the auth endpoints.
func NewAuthHandler(service authService, passwords passwordChanger, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, passwords: passwords, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// CreateSession handles POST /sessions.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateSession", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	logger := h.log(r.Context(), "CreateSession", "username", username)

	result, err := h.service.Authenticate(r.Context(), username, req.Password)
	if err != nil {
		logger.ErrorContext(r.Context(), "authentication rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, result.Token, result.ExpiresAt)
	w.Header().Set("X-Session-Token", result.Token)

	logger.InfoContext(r.Context(), "user authenticated", "role", result.User.Role)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, loginResponse{
		Token:              result.Token,
		ExpiresAt:          result.ExpiresAt.UTC().Format(time.RFC3339),
		Username:           result.User.Username,
		Role:               string(result.User.Role),
		DisplayName:        result.User.DisplayName,
		MustChangePassword: result.MustChangePassword,
	})
}

// DeleteCurrentSession handles DELETE /sessions/current.
func (h *AuthHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	token := extractTokenFromRequest(r)
	if token == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		h.log(r.Context(), "DeleteCurrentSession").ErrorContext(r.Context(), "failed to revoke session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	clearSessionCookie(w)
	h.log(r.Context(), "DeleteCurrentSession").InfoContext(r.Context(), "session revoked")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ChangePassword handles PUT /sessions/password for the acting principal.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.passwords.ChangePassword(r.Context(), principal, req.NewPassword); err != nil {
		if !isClientError(err) {
			h.log(r.Context(), "ChangePassword").ErrorContext(r.Context(), "failed to change password", "error", err)
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "ChangePassword").InfoContext(r.Context(), "password rotated", "username", principal.Username)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func isClientError(err error) bool {
	var vErr *application.ValidationError
	return errors.As(err, &vErr) ||
		errors.Is(err, application.ErrUnauthorized) ||
		errors.Is(err, application.ErrNotFound)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token              string `json:"token"`
	ExpiresAt          string `json:"expires_at"`
	Username           string `json:"username"`
	Role               string `json:"role"`
	DisplayName        string `json:"display_name"`
	MustChangePassword bool   `json:"must_change_password"`
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     "session_token",
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie("session_token"); err == nil {
		return cookie.Value
	}
	return ""
}
