package approval

import (
	"errors"
	"testing"
	"time"
)

func TestApproveAdvancesCursor(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	request, err := NewRequest("req-1", "exp-1", "user-1", []string{"mgr-1", "mgr-2"}, now)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}

	t.Run("intermediate approval keeps request pending", func(t *testing.T) {
		updated, err := Approve(request, "mgr-1", now.Add(time.Hour))
		if err != nil {
			t.Fatalf("Approve returned error: %v", err)
		}
		if updated.Status != StatusPending {
			t.Fatalf("expected status %s, got %s", StatusPending, updated.Status)
		}
		if updated.CurrentStep != 1 {
			t.Fatalf("expected cursor 1, got %d", updated.CurrentStep)
		}
		if updated.Steps[0].Status != StatusApproved {
			t.Fatalf("expected first step approved, got %s", updated.Steps[0].Status)
		}
		if updated.Steps[0].DecidedAt == nil {
			t.Fatal("expected decided timestamp on first step")
		}
	})

	t.Run("final approval is terminal", func(t *testing.T) {
		first, err := Approve(request, "mgr-1", now.Add(time.Hour))
		if err != nil {
			t.Fatalf("Approve returned error: %v", err)
		}
		final, err := Approve(first, "mgr-2", now.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("Approve returned error: %v", err)
		}
		if final.Status != StatusApproved {
			t.Fatalf("expected status %s, got %s", StatusApproved, final.Status)
		}

		if _, err := Approve(final, "mgr-2", now.Add(3*time.Hour)); !errors.Is(err, ErrTerminal) {
			t.Fatalf("expected ErrTerminal, got %v", err)
		}
		if _, err := Reject(final, "mgr-2", "too late", now.Add(3*time.Hour)); !errors.Is(err, ErrTerminal) {
			t.Fatalf("expected ErrTerminal, got %v", err)
		}
	})

	t.Run("only the current approver may decide", func(t *testing.T) {
		if _, err := Approve(request, "mgr-2", now); !errors.Is(err, ErrNotCurrentApprover) {
			t.Fatalf("expected ErrNotCurrentApprover, got %v", err)
		}
	})

	t.Run("original request is not mutated", func(t *testing.T) {
		if _, err := Approve(request, "mgr-1", now); err != nil {
			t.Fatalf("Approve returned error: %v", err)
		}
		if request.Steps[0].Status != StatusPending {
			t.Fatalf("expected input steps untouched, got %s", request.Steps[0].Status)
		}
		if request.CurrentStep != 0 {
			t.Fatalf("expected input cursor untouched, got %d", request.CurrentStep)
		}
	})
}

func TestRejectRequiresReason(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	request, err := NewRequest("req-1", "exp-1", "user-1", []string{"mgr-1", "mgr-2"}, now)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}

	t.Run("blank reason leaves state unchanged", func(t *testing.T) {
		if _, err := Reject(request, "mgr-1", "   ", now); !errors.Is(err, ErrReasonRequired) {
			t.Fatalf("expected ErrReasonRequired, got %v", err)
		}
		if request.Status != StatusPending || request.CurrentStep != 0 {
			t.Fatal("expected request unchanged after invalid rejection")
		}
	})

	t.Run("rejection terminates the request", func(t *testing.T) {
		rejected, err := Reject(request, "mgr-1", "missing receipt", now.Add(time.Hour))
		if err != nil {
			t.Fatalf("Reject returned error: %v", err)
		}
		if rejected.Status != StatusRejected {
			t.Fatalf("expected status %s, got %s", StatusRejected, rejected.Status)
		}
		if rejected.Steps[0].Reason == nil || *rejected.Steps[0].Reason != "missing receipt" {
			t.Fatal("expected rejection reason recorded on the step")
		}

		if _, err := Approve(rejected, "mgr-2", now.Add(2*time.Hour)); !errors.Is(err, ErrTerminal) {
			t.Fatalf("expected ErrTerminal after rejection, got %v", err)
		}
	})
}

func TestNewRequestRequiresApprovers(t *testing.T) {
	t.Parallel()

	if _, err := NewRequest("req-1", "exp-1", "user-1", nil, time.Now()); !errors.Is(err, ErrNoApprovers) {
		t.Fatalf("expected ErrNoApprovers, got %v", err)
	}
}
