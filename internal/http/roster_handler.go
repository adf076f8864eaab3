package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/shift-roster/internal/application"
	"github.com/example/shift-roster/internal/persistence"
	"github.com/example/shift-roster/internal/roster"
)

type rosterService interface {
	LoadMonth(ctx context.Context, year, month int) ([]roster.Row, error)
	SaveMonth(ctx context.Context, principal application.Principal, rows []roster.Row, year, month int) (application.SaveMonthResult, error)
	GetEmployeeMonth(ctx context.Context, principal application.Principal, employeeID string, year, month int) (map[int]string, error)
	ExportCSV(ctx context.Context, w io.Writer, year, month int) error
	ExportXLSX(ctx context.Context, w io.Writer, year, month int) error
}

// RosterHandler serves the month grid endpoints. Grid payloads key cells by
// the display day key; day numbers stay structured ints everywhere else.
type RosterHandler struct {
	service   rosterService
	responder responder
	logger    *slog.Logger
}

// NewRosterHandler wires dependencies for the roster endpoints.
func NewRosterHandler(service rosterService, logger *slog.Logger) *RosterHandler {
	base := defaultLogger(logger)
	return &RosterHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RosterHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "RosterHandler", operation, attrs...)
}

// Load handles GET /roster?year=&month=.
func (h *RosterHandler) Load(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthFromQuery(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
		return
	}

	rows, err := h.service.LoadMonth(r.Context(), year, month)
	if err != nil {
		h.log(r.Context(), "Load").ErrorContext(r.Context(), "failed to load month grid", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := gridResponse{Year: year, Month: month, Days: roster.DaysInMonth(year, month)}
	payload.Rows = make([]gridRowDTO, 0, len(rows))
	for _, row := range rows {
		payload.Rows = append(payload.Rows, toGridRowDTO(row, year, month))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Save handles PUT /roster?year=&month=.
func (h *RosterHandler) Save(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	year, month, ok := monthFromQuery(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
		return
	}

	var req saveGridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	rows := make([]roster.Row, 0, len(req.Rows))
	for _, dto := range req.Rows {
		row, err := dto.toRow(year, month)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
			return
		}
		rows = append(rows, row)
	}

	result, err := h.service.SaveMonth(r.Context(), principal, rows, year, month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Save").InfoContext(r.Context(), "month grid saved", "year", year, "month", month, "written", result.Written)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, saveGridResponse{
		Written:    result.Written,
		SkippedIDs: result.SkippedIDs,
	})
}

// EmployeeMonth handles GET /employees/{id}/roster?year=&month=. The response
// carries every day of the month, empty string when unassigned.
func (h *RosterHandler) EmployeeMonth(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	employeeID, _ := EmployeeIDFromContext(r.Context())
	year, month, ok := monthFromQuery(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
		return
	}

	days, err := h.service.GetEmployeeMonth(r.Context(), principal, employeeID, year, month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	cells := make(map[string]string, len(days))
	for day, code := range days {
		cells[strconv.Itoa(day)] = code
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeeMonthResponse{
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		Days:       cells,
	})
}

// Export handles GET /roster/export?year=&month=&format=csv|xlsx.
func (h *RosterHandler) Export(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthFromQuery(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=malla-%d-%02d.csv", year, month))
		if err := h.service.ExportCSV(r.Context(), w, year, month); err != nil {
			h.log(r.Context(), "Export").ErrorContext(r.Context(), "csv export failed", "error", err)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=malla-%d-%02d.xlsx", year, month))
		if err := h.service.ExportXLSX(r.Context(), w, year, month); err != nil {
			h.log(r.Context(), "Export").ErrorContext(r.Context(), "xlsx export failed", "error", err)
		}
	default:
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, fmt.Errorf("formato de exportación desconocido: %s", format))
	}
}

func monthFromQuery(r *http.Request) (year, month int, ok bool) {
	var err error
	year, err = strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, false
	}
	month, err = strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return 0, 0, false
	}
	return year, month, roster.ValidMonth(year, month)
}

type gridResponse struct {
	Year  int          `json:"year"`
	Month int          `json:"month"`
	Days  int          `json:"days"`
	Rows  []gridRowDTO `json:"rows"`
}

type gridRowDTO struct {
	EmployeeID string            `json:"employee_id,omitempty"`
	Sequence   int               `json:"sequence"`
	Title      string            `json:"title"`
	FullName   string            `json:"full_name"`
	NationalID string            `json:"national_id"`
	Department string            `json:"department"`
	Status     string            `json:"status"`
	Cells      map[string]string `json:"cells"`
}

func toGridRowDTO(row roster.Row, year, month int) gridRowDTO {
	cells := make(map[string]string, len(row.Cells))
	for day, code := range row.Cells {
		cells[roster.FormatDayKey(day, month, year)] = code
	}
	return gridRowDTO{
		EmployeeID: row.EmployeeID,
		Sequence:   row.Sequence,
		Title:      row.Title,
		FullName:   row.FullName,
		NationalID: row.NationalID,
		Department: row.Department,
		Status:     string(row.Status),
		Cells:      cells,
	}
}

func (d gridRowDTO) toRow(year, month int) (roster.Row, error) {
	cells := make(map[int]string, len(d.Cells))
	for key, code := range d.Cells {
		day, err := roster.ParseDayKey(key, month, year)
		if err != nil {
			return roster.Row{}, err
		}
		cells[day] = code
	}
	return roster.Row{
		EmployeeID: d.EmployeeID,
		Sequence:   d.Sequence,
		Title:      d.Title,
		FullName:   d.FullName,
		NationalID: d.NationalID,
		Department: d.Department,
		Status:     persistence.EmployeeStatus(d.Status),
		Cells:      cells,
	}, nil
}

type saveGridRequest struct {
	Rows []gridRowDTO `json:"rows"`
}

type saveGridResponse struct {
	Written    int      `json:"written"`
	SkippedIDs []string `json:"skipped_ids,omitempty"`
}

type employeeMonthResponse struct {
	EmployeeID string            `json:"employee_id"`
	Year       int               `json:"year"`
	Month      int               `json:"month"`
	Days       map[string]string `json:"days"`
}
