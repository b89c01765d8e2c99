package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/workdesk/internal/approval"
	"github.com/example/workdesk/internal/persistence"
)

// ApprovalService manages expense submissions and their approval chains.
// Decisions load the request, run the pure chain transition, and persist the
// result; nothing is written when the transition is rejected.
type ApprovalService struct {
	approvals   persistence.ApprovalRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewApprovalService constructs an ApprovalService with the provided dependencies.
func NewApprovalService(approvals persistence.ApprovalRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ApprovalService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ApprovalService{
		approvals:   approvals,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ApprovalService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ApprovalService", operation, attrs...)
}

// SubmitExpense records an expense and opens its approval request in one flow.
func (s *ApprovalService) SubmitExpense(ctx context.Context, principal Principal, input ExpenseInput) (request persistence.ApprovalRequest, err error) {
	if s == nil {
		err = fmt.Errorf("ApprovalService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SubmitExpense", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "expense submission failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("request_id", request.ID).InfoContext(ctx, "expense submitted")
	}()

	if err = validateExpenseInput(input); err != nil {
		return
	}

	now := s.now()
	expense := persistence.ExpenseItem{
		ID:          s.idGenerator(),
		ApplicantID: principal.UserID,
		Category:    strings.TrimSpace(input.Category),
		AmountMinor: input.AmountMinor,
		IncurredOn:  input.IncurredOn,
		Memo:        input.Memo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = mapRepoError("submit expense", s.approvals.CreateExpense(ctx, expense)); err != nil {
		return
	}

	request, err = approval.NewRequest(s.idGenerator(), expense.ID, principal.UserID, input.ApproverIDs, now)
	if err != nil {
		err = mapChainError(err)
		request = persistence.ApprovalRequest{}
		return
	}
	if err = mapRepoError("submit expense", s.approvals.CreateRequest(ctx, request)); err != nil {
		request = persistence.ApprovalRequest{}
	}
	return
}

// Approve records the principal's approval at the current step.
func (s *ApprovalService) Approve(ctx context.Context, principal Principal, requestID string) (request persistence.ApprovalRequest, err error) {
	if s == nil {
		err = fmt.Errorf("ApprovalService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Approve", "principal_id", principal.UserID, "request_id", requestID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "approval failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", request.Status, "current_step", request.CurrentStep).InfoContext(ctx, "request approved")
	}()

	request, err = s.approvals.GetRequest(ctx, requestID)
	if err != nil {
		err = mapRepoError("approve", err)
		return
	}

	request, err = approval.Approve(request, principal.UserID, s.now())
	if err != nil {
		err = mapChainError(err)
		request = persistence.ApprovalRequest{}
		return
	}
	if err = mapRepoError("approve", s.approvals.UpdateRequest(ctx, request)); err != nil {
		request = persistence.ApprovalRequest{}
	}
	return
}

// Reject records the principal's rejection with a mandatory reason.
func (s *ApprovalService) Reject(ctx context.Context, principal Principal, requestID, reason string) (request persistence.ApprovalRequest, err error) {
	if s == nil {
		err = fmt.Errorf("ApprovalService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Reject", "principal_id", principal.UserID, "request_id", requestID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "rejection failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "request rejected")
	}()

	request, err = s.approvals.GetRequest(ctx, requestID)
	if err != nil {
		err = mapRepoError("reject", err)
		return
	}

	request, err = approval.Reject(request, principal.UserID, reason, s.now())
	if err != nil {
		err = mapChainError(err)
		request = persistence.ApprovalRequest{}
		return
	}
	if err = mapRepoError("reject", s.approvals.UpdateRequest(ctx, request)); err != nil {
		request = persistence.ApprovalRequest{}
	}
	return
}

// GetRequest returns a request visible to its applicant, its approvers, or an admin.
func (s *ApprovalService) GetRequest(ctx context.Context, principal Principal, requestID string) (persistence.ApprovalRequest, error) {
	if s == nil {
		return persistence.ApprovalRequest{}, fmt.Errorf("ApprovalService is nil")
	}

	request, err := s.approvals.GetRequest(ctx, requestID)
	if err != nil {
		return persistence.ApprovalRequest{}, mapRepoError("get request", err)
	}
	if !canSeeRequest(request, principal) {
		return persistence.ApprovalRequest{}, ErrUnauthorized
	}
	return request, nil
}

// ListRequests returns the principal's own requests, or all for admins.
func (s *ApprovalService) ListRequests(ctx context.Context, principal Principal) ([]persistence.ApprovalRequest, error) {
	if s == nil {
		return nil, fmt.Errorf("ApprovalService is nil")
	}

	applicantID := principal.UserID
	if principal.IsAdmin {
		applicantID = ""
	}
	requests, err := s.approvals.ListRequests(ctx, applicantID)
	if err != nil {
		return nil, mapRepoError("list requests", err)
	}
	return requests, nil
}

// ListExpenses returns the principal's own expenses, or all for admins.
func (s *ApprovalService) ListExpenses(ctx context.Context, principal Principal) ([]persistence.ExpenseItem, error) {
	if s == nil {
		return nil, fmt.Errorf("ApprovalService is nil")
	}

	applicantID := principal.UserID
	if principal.IsAdmin {
		applicantID = ""
	}
	expenses, err := s.approvals.ListExpenses(ctx, applicantID)
	if err != nil {
		return nil, mapRepoError("list expenses", err)
	}
	return expenses, nil
}

func canSeeRequest(request persistence.ApprovalRequest, principal Principal) bool {
	if principal.IsAdmin || request.ApplicantID == principal.UserID {
		return true
	}
	for _, step := range request.Steps {
		if step.ApproverID == principal.UserID {
			return true
		}
	}
	return false
}

func mapChainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, approval.ErrTerminal):
		return ErrConflict
	case errors.Is(err, approval.ErrNotCurrentApprover):
		return ErrUnauthorized
	case errors.Is(err, approval.ErrReasonRequired):
		vErr := &ValidationError{}
		vErr.add("reason", "반려 사유를 입력해 주세요")
		return vErr
	case errors.Is(err, approval.ErrNoApprovers):
		vErr := &ValidationError{}
		vErr.add("approverIds", "결재자를 한 명 이상 지정해 주세요")
		return vErr
	}
	return err
}

func validateExpenseInput(input ExpenseInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Category) == "" {
		vErr.add("category", "비용 분류를 입력해 주세요")
	}
	if input.AmountMinor <= 0 {
		vErr.add("amount", "금액은 0보다 커야 합니다")
	}
	if input.IncurredOn.IsZero() {
		vErr.add("incurredOn", "지출일을 입력해 주세요")
	}
	if len(input.ApproverIDs) == 0 {
		vErr.add("approverIds", "결재자를 한 명 이상 지정해 주세요")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
