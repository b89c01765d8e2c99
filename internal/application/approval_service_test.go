package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/workdesk/internal/approval"
	"github.com/example/workdesk/internal/testfixtures"
)

func TestApprovalService_SubmitExpense(t *testing.T) {
	t.Parallel()

	validInput := func() ExpenseInput {
		return ExpenseInput{
			Category:    "교통비",
			AmountMinor: 12500,
			IncurredOn:  testfixtures.ReferenceTime(),
			ApproverIDs: []string{"manager", "director"},
		}
	}

	t.Run("records the expense and opens a pending chain", func(t *testing.T) {
		t.Parallel()

		approvals := newApprovalRepositoryStub()
		svc := NewApprovalService(approvals, testfixtures.NewIDGenerator("exp").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)

		request, err := svc.SubmitExpense(context.Background(), Principal{UserID: "user-1"}, validInput())
		if err != nil {
			t.Fatalf("SubmitExpense failed: %v", err)
		}
		if request.Status != approval.StatusPending || request.CurrentStep != 0 {
			t.Fatalf("unexpected request state %+v", request)
		}
		if len(request.Steps) != 2 {
			t.Fatalf("expected one step per approver, got %d", len(request.Steps))
		}
		if len(approvals.expenses) != 1 || len(approvals.requests) != 1 {
			t.Fatalf("expected one expense and one request, got %d/%d", len(approvals.expenses), len(approvals.requests))
		}
		expense, err := approvals.GetExpense(context.Background(), request.ExpenseID)
		if err != nil {
			t.Fatalf("expense not stored: %v", err)
		}
		if expense.ApplicantID != "user-1" {
			t.Fatalf("unexpected applicant %q", expense.ApplicantID)
		}
	})

	t.Run("rejects incomplete submissions", func(t *testing.T) {
		t.Parallel()

		svc := NewApprovalService(newApprovalRepositoryStub(), nil, nil, nil)

		_, err := svc.SubmitExpense(context.Background(), Principal{UserID: "user-1"}, ExpenseInput{})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
		for _, field := range []string{"category", "amount", "incurredOn", "approverIds"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected a field error for %q, got %v", field, vErr.FieldErrors)
			}
		}
	})
}

func TestApprovalService_Decisions(t *testing.T) {
	t.Parallel()

	submit := func(t *testing.T, svc *ApprovalService) string {
		t.Helper()
		request, err := svc.SubmitExpense(context.Background(), Principal{UserID: "user-1"}, ExpenseInput{
			Category:    "도서",
			AmountMinor: 30000,
			IncurredOn:  testfixtures.ReferenceTime(),
			ApproverIDs: []string{"manager", "director"},
		})
		if err != nil {
			t.Fatalf("SubmitExpense failed: %v", err)
		}
		return request.ID
	}

	t.Run("approvals advance in order and finish the chain", func(t *testing.T) {
		t.Parallel()

		approvals := newApprovalRepositoryStub()
		svc := NewApprovalService(approvals, testfixtures.NewIDGenerator("req").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)
		requestID := submit(t, svc)

		request, err := svc.Approve(context.Background(), Principal{UserID: "manager"}, requestID)
		if err != nil {
			t.Fatalf("first approval failed: %v", err)
		}
		if request.Status != approval.StatusPending || request.CurrentStep != 1 {
			t.Fatalf("expected the cursor to advance, got %+v", request)
		}

		request, err = svc.Approve(context.Background(), Principal{UserID: "director"}, requestID)
		if err != nil {
			t.Fatalf("final approval failed: %v", err)
		}
		if request.Status != approval.StatusApproved {
			t.Fatalf("expected APPROVED, got %q", request.Status)
		}
	})

	t.Run("only the current approver may decide", func(t *testing.T) {
		t.Parallel()

		svc := NewApprovalService(newApprovalRepositoryStub(), testfixtures.NewIDGenerator("req").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)
		requestID := submit(t, svc)

		if _, err := svc.Approve(context.Background(), Principal{UserID: "director"}, requestID); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for out-of-order approval, got %v", err)
		}
	})

	t.Run("rejection terminates the chain and requires a reason", func(t *testing.T) {
		t.Parallel()

		approvals := newApprovalRepositoryStub()
		svc := NewApprovalService(approvals, testfixtures.NewIDGenerator("req").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)
		requestID := submit(t, svc)

		_, err := svc.Reject(context.Background(), Principal{UserID: "manager"}, requestID, "  ")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error for a blank reason, got %v", err)
		}

		request, err := svc.Reject(context.Background(), Principal{UserID: "manager"}, requestID, "영수증 누락")
		if err != nil {
			t.Fatalf("Reject failed: %v", err)
		}
		if request.Status != approval.StatusRejected {
			t.Fatalf("expected REJECTED, got %q", request.Status)
		}

		// A terminal request accepts no further decisions.
		if _, err := svc.Approve(context.Background(), Principal{UserID: "director"}, requestID); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict on a terminal request, got %v", err)
		}
	})
}

func TestApprovalService_Visibility(t *testing.T) {
	t.Parallel()

	approvals := newApprovalRepositoryStub()
	svc := NewApprovalService(approvals, testfixtures.NewIDGenerator("req").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)

	request, err := svc.SubmitExpense(context.Background(), Principal{UserID: "user-1"}, ExpenseInput{
		Category:    "식비",
		AmountMinor: 9000,
		IncurredOn:  testfixtures.ReferenceTime(),
		ApproverIDs: []string{"manager"},
	})
	if err != nil {
		t.Fatalf("SubmitExpense failed: %v", err)
	}

	cases := []struct {
		name      string
		principal Principal
		wantErr   error
	}{
		{name: "applicant sees the request", principal: Principal{UserID: "user-1"}},
		{name: "approver sees the request", principal: Principal{UserID: "manager"}},
		{name: "admin sees the request", principal: Principal{UserID: "other", IsAdmin: true}},
		{name: "strangers are refused", principal: Principal{UserID: "stranger"}, wantErr: ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetRequest(context.Background(), tc.principal, request.ID)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("GetRequest failed: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
