package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/workdesk/internal/application"
	"github.com/example/workdesk/internal/persistence"
)

type attendanceService interface {
	CheckIn(ctx context.Context, principal application.Principal, latitude, longitude float64) (persistence.AttendanceRecord, error)
	CheckOut(ctx context.Context, principal application.Principal, latitude, longitude float64) (persistence.AttendanceRecord, error)
	ListAttendance(ctx context.Context, principal application.Principal, userID string) ([]persistence.AttendanceRecord, error)
}

type AttendanceHandler struct {
	service   attendanceService
	responder responder
	logger    *slog.Logger
}

func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	base := defaultLogger(logger)
	return &AttendanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CheckIn", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode check-in request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CheckIn", "principal_id", principal.UserID)

	record, err := h.service.CheckIn(r.Context(), principal, req.Latitude, req.Longitude)
	if err != nil {
		logger.ErrorContext(r.Context(), "check-in failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("record_id", record.ID).InfoContext(r.Context(), "checked in")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, attendanceResponse{Record: toAttendanceDTO(record)})
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CheckOut", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode check-out request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CheckOut", "principal_id", principal.UserID)

	record, err := h.service.CheckOut(r.Context(), principal, req.Latitude, req.Longitude)
	if err != nil {
		logger.ErrorContext(r.Context(), "check-out failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("record_id", record.ID).InfoContext(r.Context(), "checked out")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendanceResponse{Record: toAttendanceDTO(record)})
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))

	records, err := h.service.ListAttendance(r.Context(), principal, userID)
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID, "user_id", userID).ErrorContext(r.Context(), "attendance list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAttendanceResponse{Records: toAttendanceDTOs(records)})
}

type attendanceRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type attendanceResponse struct {
	Record attendanceDTO `json:"record"`
}

type listAttendanceResponse struct {
	Records []attendanceDTO `json:"records"`
}

type attendanceDTO struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Date      string  `json:"date"`
	CheckIn   string  `json:"check_in"`
	CheckOut  *string `json:"check_out,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

func toAttendanceDTO(record persistence.AttendanceRecord) attendanceDTO {
	dto := attendanceDTO{
		ID:        record.ID,
		UserID:    record.UserID,
		Date:      record.Date,
		CheckIn:   record.CheckIn.UTC().Format(time.RFC3339Nano),
		Latitude:  record.Latitude,
		Longitude: record.Longitude,
		Address:   record.Address,
	}
	if record.CheckOut != nil {
		checkOut := record.CheckOut.UTC().Format(time.RFC3339Nano)
		dto.CheckOut = &checkOut
	}
	return dto
}

func toAttendanceDTOs(records []persistence.AttendanceRecord) []attendanceDTO {
	if len(records) == 0 {
		return nil
	}
	out := make([]attendanceDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toAttendanceDTO(record))
	}
	return out
}
