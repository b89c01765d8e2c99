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

type approvalService interface {
	SubmitExpense(ctx context.Context, principal application.Principal, input application.ExpenseInput) (persistence.ApprovalRequest, error)
	Approve(ctx context.Context, principal application.Principal, requestID string) (persistence.ApprovalRequest, error)
	Reject(ctx context.Context, principal application.Principal, requestID, reason string) (persistence.ApprovalRequest, error)
	GetRequest(ctx context.Context, principal application.Principal, requestID string) (persistence.ApprovalRequest, error)
	ListRequests(ctx context.Context, principal application.Principal) ([]persistence.ApprovalRequest, error)
	ListExpenses(ctx context.Context, principal application.Principal) ([]persistence.ExpenseItem, error)
}

type ApprovalHandler struct {
	service   approvalService
	responder responder
	logger    *slog.Logger
}

func NewApprovalHandler(service approvalService, logger *slog.Logger) *ApprovalHandler {
	base := defaultLogger(logger)
	return &ApprovalHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ApprovalHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ApprovalHandler", operation, attrs...)
}

func (h *ApprovalHandler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SubmitExpense", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode expense request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	incurredOn, err := parseDateField(req.IncurredOn)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "SubmitExpense", "principal_id", principal.UserID)

	request, err := h.service.SubmitExpense(r.Context(), principal, application.ExpenseInput{
		Category:    strings.TrimSpace(req.Category),
		AmountMinor: req.AmountMinor,
		IncurredOn:  incurredOn,
		Memo:        req.Memo,
		ApproverIDs: req.ApproverIDs,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "expense submission failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("request_id", request.ID).InfoContext(r.Context(), "expense submitted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, approvalResponse{Request: toApprovalDTO(request)})
}

func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Approve", "principal_id", principal.UserID, "request_id", requestID)

	request, err := h.service.Approve(r.Context(), principal, requestID)
	if err != nil {
		logger.ErrorContext(r.Context(), "approval failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", request.Status).InfoContext(r.Context(), "request approved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, approvalResponse{Request: toApprovalDTO(request)})
}

func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Reject", "request_id", requestID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode rejection request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Reject", "principal_id", principal.UserID, "request_id", requestID)

	request, err := h.service.Reject(r.Context(), principal, requestID, req.Reason)
	if err != nil {
		logger.ErrorContext(r.Context(), "rejection failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "request rejected")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, approvalResponse{Request: toApprovalDTO(request)})
}

func (h *ApprovalHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	request, err := h.service.GetRequest(r.Context(), principal, requestID)
	if err != nil {
		h.log(r.Context(), "GetRequest", "request_id", requestID).ErrorContext(r.Context(), "request fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, approvalResponse{Request: toApprovalDTO(request)})
}

func (h *ApprovalHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	requests, err := h.service.ListRequests(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListRequests", "principal_id", principal.UserID).ErrorContext(r.Context(), "request list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listApprovalsResponse{Requests: toApprovalDTOs(requests)})
}

func (h *ApprovalHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	expenses, err := h.service.ListExpenses(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListExpenses", "principal_id", principal.UserID).ErrorContext(r.Context(), "expense list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listExpensesResponse{Expenses: toExpenseDTOs(expenses)})
}

type expenseRequest struct {
	Category    string   `json:"category"`
	AmountMinor int64    `json:"amount_minor"`
	IncurredOn  string   `json:"incurred_on"`
	Memo        *string  `json:"memo"`
	ApproverIDs []string `json:"approver_ids"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type approvalResponse struct {
	Request approvalDTO `json:"request"`
}

type listApprovalsResponse struct {
	Requests []approvalDTO `json:"requests"`
}

type listExpensesResponse struct {
	Expenses []expenseDTO `json:"expenses"`
}

type approvalDTO struct {
	ID          string            `json:"id"`
	ExpenseID   string            `json:"expense_id"`
	ApplicantID string            `json:"applicant_id"`
	Steps       []approvalStepDTO `json:"steps"`
	CurrentStep int               `json:"current_step"`
	Status      string            `json:"status"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

type approvalStepDTO struct {
	ApproverID string  `json:"approver_id"`
	Status     string  `json:"status"`
	Reason     *string `json:"reason,omitempty"`
	DecidedAt  *string `json:"decided_at,omitempty"`
}

func toApprovalDTO(request persistence.ApprovalRequest) approvalDTO {
	steps := make([]approvalStepDTO, 0, len(request.Steps))
	for _, step := range request.Steps {
		dto := approvalStepDTO{
			ApproverID: step.ApproverID,
			Status:     step.Status,
			Reason:     step.Reason,
		}
		if step.DecidedAt != nil {
			decidedAt := step.DecidedAt.UTC().Format(time.RFC3339Nano)
			dto.DecidedAt = &decidedAt
		}
		steps = append(steps, dto)
	}
	return approvalDTO{
		ID:          request.ID,
		ExpenseID:   request.ExpenseID,
		ApplicantID: request.ApplicantID,
		Steps:       steps,
		CurrentStep: request.CurrentStep,
		Status:      request.Status,
		CreatedAt:   request.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   request.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toApprovalDTOs(requests []persistence.ApprovalRequest) []approvalDTO {
	if len(requests) == 0 {
		return nil
	}
	out := make([]approvalDTO, 0, len(requests))
	for _, request := range requests {
		out = append(out, toApprovalDTO(request))
	}
	return out
}

type expenseDTO struct {
	ID          string  `json:"id"`
	ApplicantID string  `json:"applicant_id"`
	Category    string  `json:"category"`
	AmountMinor int64   `json:"amount_minor"`
	IncurredOn  string  `json:"incurred_on"`
	Memo        *string `json:"memo,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toExpenseDTOs(expenses []persistence.ExpenseItem) []expenseDTO {
	if len(expenses) == 0 {
		return nil
	}
	out := make([]expenseDTO, 0, len(expenses))
	for _, expense := range expenses {
		out = append(out, expenseDTO{
			ID:          expense.ID,
			ApplicantID: expense.ApplicantID,
			Category:    expense.Category,
			AmountMinor: expense.AmountMinor,
			IncurredOn:  expense.IncurredOn.UTC().Format("2006-01-02"),
			Memo:        expense.Memo,
			CreatedAt:   expense.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
