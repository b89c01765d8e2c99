// Package approval implements the ordered expense approval chain. A request
// carries its steps; only the step at the cursor may decide, and a terminal
// request never changes again.
package approval

import (
	"errors"
	"strings"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

// Statuses shared by steps and requests.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

var (
	// ErrTerminal is returned when deciding on an already approved or
	// rejected request.
	ErrTerminal = errors.New("approval: request is terminal")
	// ErrNotCurrentApprover is returned when the decider is not the approver
	// at the current step.
	ErrNotCurrentApprover = errors.New("approval: not the current approver")
	// ErrReasonRequired is returned when a rejection carries no reason.
	ErrReasonRequired = errors.New("approval: rejection reason required")
	// ErrNoApprovers is returned when a request is built without steps.
	ErrNoApprovers = errors.New("approval: at least one approver required")
)

// NewRequest builds a pending request with one step per approver, in order.
func NewRequest(id, expenseID, applicantID string, approverIDs []string, now time.Time) (persistence.ApprovalRequest, error) {
	if len(approverIDs) == 0 {
		return persistence.ApprovalRequest{}, ErrNoApprovers
	}

	steps := make([]persistence.ApprovalStep, len(approverIDs))
	for i, approverID := range approverIDs {
		steps[i] = persistence.ApprovalStep{
			ApproverID: approverID,
			Status:     StatusPending,
		}
	}
	return persistence.ApprovalRequest{
		ID:          id,
		ExpenseID:   expenseID,
		ApplicantID: applicantID,
		Steps:       steps,
		CurrentStep: 0,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Approve records the current step's approval. The cursor advances while
// steps remain; approving the final step makes the request APPROVED.
func Approve(request persistence.ApprovalRequest, approverID string, now time.Time) (persistence.ApprovalRequest, error) {
	if request.Status != StatusPending {
		return persistence.ApprovalRequest{}, ErrTerminal
	}
	if err := checkCurrentApprover(request, approverID); err != nil {
		return persistence.ApprovalRequest{}, err
	}

	request.Steps = cloneSteps(request.Steps)
	step := &request.Steps[request.CurrentStep]
	step.Status = StatusApproved
	step.DecidedAt = &now

	if request.CurrentStep == len(request.Steps)-1 {
		request.Status = StatusApproved
	} else {
		request.CurrentStep++
	}
	request.UpdatedAt = now
	return request, nil
}

// Reject records a rejection at the current step and terminates the request.
// The reason is mandatory and must not be blank.
func Reject(request persistence.ApprovalRequest, approverID, reason string, now time.Time) (persistence.ApprovalRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return persistence.ApprovalRequest{}, ErrReasonRequired
	}
	if request.Status != StatusPending {
		return persistence.ApprovalRequest{}, ErrTerminal
	}
	if err := checkCurrentApprover(request, approverID); err != nil {
		return persistence.ApprovalRequest{}, err
	}

	request.Steps = cloneSteps(request.Steps)
	step := &request.Steps[request.CurrentStep]
	step.Status = StatusRejected
	step.Reason = &reason
	step.DecidedAt = &now

	request.Status = StatusRejected
	request.UpdatedAt = now
	return request, nil
}

func checkCurrentApprover(request persistence.ApprovalRequest, approverID string) error {
	if request.CurrentStep < 0 || request.CurrentStep >= len(request.Steps) {
		return ErrTerminal
	}
	if request.Steps[request.CurrentStep].ApproverID != approverID {
		return ErrNotCurrentApprover
	}
	return nil
}

func cloneSteps(steps []persistence.ApprovalStep) []persistence.ApprovalStep {
	out := make([]persistence.ApprovalStep, len(steps))
	copy(out, steps)
	return out
}
