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

type welfareService interface {
	BookSession(ctx context.Context, principal application.Principal, date, slot string) (persistence.TrainingSession, error)
	CancelSession(ctx context.Context, principal application.Principal, sessionID string) error
	ListSessions(ctx context.Context, principal application.Principal, date string) ([]persistence.TrainingSession, error)
	CreateLocker(ctx context.Context, principal application.Principal, label string) (persistence.Locker, error)
	AssignLocker(ctx context.Context, principal application.Principal, lockerID, userID string) (persistence.Locker, error)
	ReleaseLocker(ctx context.Context, principal application.Principal, lockerID string) (persistence.Locker, error)
	ListLockers(ctx context.Context, principal application.Principal) ([]persistence.Locker, error)
}

type WelfareHandler struct {
	service   welfareService
	responder responder
	logger    *slog.Logger
}

func NewWelfareHandler(service welfareService, logger *slog.Logger) *WelfareHandler {
	base := defaultLogger(logger)
	return &WelfareHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *WelfareHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "WelfareHandler", operation, attrs...)
}

func (h *WelfareHandler) BookSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "BookSession", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "BookSession", "principal_id", principal.UserID, "date", req.Date, "slot", req.Slot)

	session, err := h.service.BookSession(r.Context(), principal, strings.TrimSpace(req.Date), strings.TrimSpace(req.Slot))
	if err != nil {
		logger.ErrorContext(r.Context(), "session booking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", session.ID).InfoContext(r.Context(), "session booked")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{Session: toSessionDTO(session)})
}

func (h *WelfareHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "CancelSession", "principal_id", principal.UserID, "session_id", sessionID)
	if err := h.service.CancelSession(r.Context(), principal, sessionID); err != nil {
		logger.ErrorContext(r.Context(), "session cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *WelfareHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	sessions, err := h.service.ListSessions(r.Context(), principal, date)
	if err != nil {
		h.log(r.Context(), "ListSessions", "date", date).ErrorContext(r.Context(), "session list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

func (h *WelfareHandler) CreateLocker(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req lockerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateLocker", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode locker request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateLocker", "principal_id", principal.UserID)

	locker, err := h.service.CreateLocker(r.Context(), principal, strings.TrimSpace(req.Label))
	if err != nil {
		logger.ErrorContext(r.Context(), "locker creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("locker_id", locker.ID).InfoContext(r.Context(), "locker created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, lockerResponse{Locker: toLockerDTO(locker)})
}

func (h *WelfareHandler) AssignLocker(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	lockerID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(lockerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req assignLockerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "AssignLocker", "locker_id", lockerID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode assignment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = principal.UserID
	}

	logger := h.log(r.Context(), "AssignLocker", "principal_id", principal.UserID, "locker_id", lockerID, "user_id", userID)

	locker, err := h.service.AssignLocker(r.Context(), principal, lockerID, userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "locker assignment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "locker assigned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lockerResponse{Locker: toLockerDTO(locker)})
}

func (h *WelfareHandler) ReleaseLocker(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	lockerID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(lockerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ReleaseLocker", "principal_id", principal.UserID, "locker_id", lockerID)

	locker, err := h.service.ReleaseLocker(r.Context(), principal, lockerID)
	if err != nil {
		logger.ErrorContext(r.Context(), "locker release failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "locker released")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lockerResponse{Locker: toLockerDTO(locker)})
}

func (h *WelfareHandler) ListLockers(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	lockers, err := h.service.ListLockers(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListLockers", "principal_id", principal.UserID).ErrorContext(r.Context(), "locker list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listLockersResponse{Lockers: toLockerDTOs(lockers)})
}

type bookSessionRequest struct {
	Date string `json:"date"`
	Slot string `json:"slot"`
}

type sessionResponse struct {
	Session trainingSessionDTO `json:"session"`
}

type listSessionsResponse struct {
	Sessions []trainingSessionDTO `json:"sessions"`
}

type trainingSessionDTO struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Date      string  `json:"date"`
	Slot      string  `json:"slot"`
	EventID   *string `json:"event_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func toSessionDTO(session persistence.TrainingSession) trainingSessionDTO {
	return trainingSessionDTO{
		ID:        session.ID,
		UserID:    session.UserID,
		Date:      session.Date,
		Slot:      session.Slot,
		EventID:   session.EventID,
		CreatedAt: session.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toSessionDTOs(sessions []persistence.TrainingSession) []trainingSessionDTO {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]trainingSessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionDTO(session))
	}
	return out
}

type lockerRequest struct {
	Label string `json:"label"`
}

type assignLockerRequest struct {
	UserID string `json:"user_id"`
}

type lockerResponse struct {
	Locker lockerDTO `json:"locker"`
}

type listLockersResponse struct {
	Lockers []lockerDTO `json:"lockers"`
}

type lockerDTO struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	AssigneeID *string `json:"assignee_id,omitempty"`
	UpdatedAt  string  `json:"updated_at"`
}

func toLockerDTO(locker persistence.Locker) lockerDTO {
	return lockerDTO{
		ID:         locker.ID,
		Label:      locker.Label,
		AssigneeID: locker.AssigneeID,
		UpdatedAt:  locker.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toLockerDTOs(lockers []persistence.Locker) []lockerDTO {
	if len(lockers) == 0 {
		return nil
	}
	out := make([]lockerDTO, 0, len(lockers))
	for _, locker := range lockers {
		out = append(out, toLockerDTO(locker))
	}
	return out
}
