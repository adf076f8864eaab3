package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/shift-roster/internal/application"
	"github.com/example/shift-roster/internal/persistence"
)

type userService interface {
	CreateUser(ctx context.Context, principal application.Principal, input application.UserInput) (persistence.User, error)
	UpdateUser(ctx context.Context, principal application.Principal, username string, input application.UserInput) (persistence.User, error)
	GetUser(ctx context.Context, principal application.Principal, username string) (persistence.User, error)
	ListUsers(ctx context.Context, principal application.Principal) ([]persistence.User, error)
	DeleteUser(ctx context.Context, principal application.Principal, username string) error
}

// UserHandler serves the account management endpoints.
type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

// NewUserHandler wires dependencies for the user endpoints.
func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]userDTO, 0, len(users))
	for _, u := range users {
		payload = append(payload, toUserDTO(u))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Get handles GET /users/{username}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	username, _ := UsernameFromContext(r.Context())

	user, err := h.service.GetUser(r.Context(), principal, username)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.CreateUser(r.Context(), principal, req.toInput())
	if err != nil {
		if !isClientError(err) {
			h.log(r.Context(), "Create").ErrorContext(r.Context(), "failed to create user", "error", err, "error_kind", application.ErrorKind(err))
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create").InfoContext(r.Context(), "user created", "username", user.Username)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

// Update handles PUT /users/{username}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	username, _ := UsernameFromContext(r.Context())

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), principal, username, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// Delete handles DELETE /users/{username}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	username, _ := UsernameFromContext(r.Context())

	if err := h.service.DeleteUser(r.Context(), principal, username); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete").InfoContext(r.Context(), "user deleted", "username", username)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type userRequest struct {
	Username    string  `json:"username"`
	Password    string  `json:"password,omitempty"`
	Role        string  `json:"role"`
	DisplayName string  `json:"display_name"`
	Department  string  `json:"department"`
	EmployeeID  *string `json:"employee_id,omitempty"`
}

func (d userRequest) toInput() application.UserInput {
	return application.UserInput{
		Username:    d.Username,
		Password:    d.Password,
		Role:        persistence.Role(d.Role),
		DisplayName: d.DisplayName,
		Department:  d.Department,
		EmployeeID:  d.EmployeeID,
	}
}

// userDTO never carries the password hash.
type userDTO struct {
	Username           string  `json:"username"`
	Role               string  `json:"role"`
	DisplayName        string  `json:"display_name"`
	Department         string  `json:"department"`
	EmployeeID         *string `json:"employee_id,omitempty"`
	MustChangePassword bool    `json:"must_change_password"`
}

func toUserDTO(u persistence.User) userDTO {
	return userDTO{
		Username:           u.Username,
		Role:               string(u.Role),
		DisplayName:        u.DisplayName,
		Department:         u.Department,
		EmployeeID:         u.EmployeeID,
		MustChangePassword: u.MustChangePassword,
	}
}
