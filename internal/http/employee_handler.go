package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/shift-roster/internal/application"
	"github.com/example/shift-roster/internal/persistence"
)

type employeeService interface {
	CreateEmployee(ctx context.Context, principal application.Principal, input application.EmployeeInput) (persistence.Employee, error)
	UpdateEmployee(ctx context.Context, principal application.Principal, employeeID string, input application.EmployeeInput) (persistence.Employee, error)
	GetEmployee(ctx context.Context, employeeID string) (persistence.Employee, error)
	ListEmployees(ctx context.Context) ([]persistence.Employee, error)
	Deactivate(ctx context.Context, principal application.Principal, employeeID string) (persistence.Employee, error)
}

// EmployeeHandler serves the employee CRUD endpoints.
type EmployeeHandler struct {
	service   employeeService
	responder responder
	logger    *slog.Logger
}

// NewEmployeeHandler wires dependencies for the employee endpoints.
func NewEmployeeHandler(service employeeService, logger *slog.Logger) *EmployeeHandler {
	base := defaultLogger(logger)
	return &EmployeeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EmployeeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "EmployeeHandler", operation, attrs...)
}

// List handles GET /employees.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list employees", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]employeeDTO, 0, len(employees))
	for _, e := range employees {
		payload = append(payload, toEmployeeDTO(e))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Get handles GET /employees/{id}.
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	employeeID, _ := EmployeeIDFromContext(r.Context())

	employee, err := h.service.GetEmployee(r.Context(), employeeID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEmployeeDTO(employee))
}

// Create handles POST /employees.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req employeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	employee, err := h.service.CreateEmployee(r.Context(), principal, req.toInput())
	if err != nil {
		if !isClientError(err) {
			h.log(r.Context(), "Create").ErrorContext(r.Context(), "failed to create employee", "error", err, "error_kind", application.ErrorKind(err))
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create").InfoContext(r.Context(), "employee created", "employee_id", employee.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEmployeeDTO(employee))
}

// Update handles PUT /employees/{id}.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	employeeID, _ := EmployeeIDFromContext(r.Context())

	var req employeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	employee, err := h.service.UpdateEmployee(r.Context(), principal, employeeID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEmployeeDTO(employee))
}

// Deactivate handles DELETE /employees/{id}. The record is kept with inactive
// status; roster history never loses its employee.
func (h *EmployeeHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	employeeID, _ := EmployeeIDFromContext(r.Context())

	employee, err := h.service.Deactivate(r.Context(), principal, employeeID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Deactivate").InfoContext(r.Context(), "employee deactivated", "employee_id", employee.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEmployeeDTO(employee))
}

type employeeDTO struct {
	ID         string  `json:"id,omitempty"`
	Sequence   int     `json:"sequence"`
	Title      string  `json:"title"`
	FullName   string  `json:"full_name"`
	NationalID string  `json:"national_id"`
	Department string  `json:"department"`
	Status     string  `json:"status"`
	ShiftStart *string `json:"shift_start,omitempty"`
	ShiftEnd   *string `json:"shift_end,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}

func (d employeeDTO) toInput() application.EmployeeInput {
	return application.EmployeeInput{
		Sequence:   d.Sequence,
		Title:      d.Title,
		FullName:   d.FullName,
		NationalID: d.NationalID,
		Department: d.Department,
		Status:     persistence.EmployeeStatus(d.Status),
		ShiftStart: d.ShiftStart,
		ShiftEnd:   d.ShiftEnd,
	}
}

func toEmployeeDTO(e persistence.Employee) employeeDTO {
	dto := employeeDTO{
		ID:         e.ID,
		Sequence:   e.Sequence,
		Title:      e.Title,
		FullName:   e.FullName,
		NationalID: e.NationalID,
		Department: e.Department,
		Status:     string(e.Status),
		ShiftStart: e.ShiftStart,
		ShiftEnd:   e.ShiftEnd,
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !e.UpdatedAt.IsZero() {
		dto.UpdatedAt = e.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
