package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/workdesk/internal/persistence"
)

// ApprovalRepository implements persistence.ApprovalRepository using SQLite.
// A request row and its ordered step rows are always written together.
type ApprovalRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewApprovalRepository creates a new SQLite approval repository.
func NewApprovalRepository(pool *ConnectionPool) *ApprovalRepository {
	return &ApprovalRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const expenseColumns = "id, applicant_id, category, amount_minor, incurred_on, memo, created_at, updated_at"
const requestColumns = "id, expense_id, applicant_id, current_step, status, created_at, updated_at"

// CreateExpense inserts an expense item.
func (r *ApprovalRepository) CreateExpense(ctx context.Context, expense persistence.ExpenseItem) error {
	if expense.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		expense.ID,
		expense.ApplicantID,
		expense.Category,
		expense.AmountMinor,
		formatTime(expense.IncurredOn),
		nullString(expense.Memo),
		formatTime(expense.CreatedAt),
		formatTime(expense.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetExpense retrieves an expense by ID.
func (r *ApprovalRepository) GetExpense(ctx context.Context, id string) (persistence.ExpenseItem, error) {
	if id == "" {
		return persistence.ExpenseItem{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)

	var expense persistence.ExpenseItem
	var memo sql.NullString
	var incurredOn, createdAt, updatedAt string

	err := row.Scan(&expense.ID, &expense.ApplicantID, &expense.Category, &expense.AmountMinor, &incurredOn, &memo, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ExpenseItem{}, persistence.ErrNotFound
		}
		return persistence.ExpenseItem{}, r.mapper.MapError(err)
	}
	expense.Memo = fromNullString(memo)
	if expense.IncurredOn, err = parseTime(incurredOn, "incurred_on"); err != nil {
		return persistence.ExpenseItem{}, err
	}
	if expense.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.ExpenseItem{}, err
	}
	if expense.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.ExpenseItem{}, err
	}
	return expense, nil
}

// ListExpenses returns an applicant's expenses in creation order.
func (r *ApprovalRepository) ListExpenses(ctx context.Context, applicantID string) ([]persistence.ExpenseItem, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	if applicantID != "" {
		query = `SELECT ` + expenseColumns + ` FROM expenses WHERE applicant_id = ? ORDER BY created_at ASC, id ASC`
		args = append(args, applicantID)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var expenses []persistence.ExpenseItem
	for rows.Next() {
		var expense persistence.ExpenseItem
		var memo sql.NullString
		var incurredOn, createdAt, updatedAt string

		if err := rows.Scan(&expense.ID, &expense.ApplicantID, &expense.Category, &expense.AmountMinor, &incurredOn, &memo, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		expense.Memo = fromNullString(memo)
		if expense.IncurredOn, err = parseTime(incurredOn, "incurred_on"); err != nil {
			return nil, err
		}
		if expense.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if expense.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return expenses, nil
}

// CreateRequest inserts a request and its steps in one transaction.
func (r *ApprovalRepository) CreateRequest(ctx context.Context, request persistence.ApprovalRequest) error {
	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO approval_requests (` + requestColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.helper.ExecTx(tx, query,
			request.ID,
			request.ExpenseID,
			request.ApplicantID,
			request.CurrentStep,
			request.Status,
			formatTime(request.CreatedAt),
			formatTime(request.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertStepsTx(tx, request.ID, request.Steps)
	})
}

// UpdateRequest rewrites the request row and its step rows in one transaction.
func (r *ApprovalRepository) UpdateRequest(ctx context.Context, request persistence.ApprovalRequest) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE approval_requests
			SET current_step = ?, status = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := r.helper.ExecTx(tx, query,
			request.CurrentStep,
			request.Status,
			formatTime(request.UpdatedAt),
			request.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if err := requireRowsAffected(result); err != nil {
			return err
		}
		if _, err := r.helper.ExecTx(tx, `DELETE FROM approval_steps WHERE request_id = ?`, request.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertStepsTx(tx, request.ID, request.Steps)
	})
}

// GetRequest retrieves a request with its ordered steps.
func (r *ApprovalRepository) GetRequest(ctx context.Context, id string) (persistence.ApprovalRequest, error) {
	if id == "" {
		return persistence.ApprovalRequest{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+requestColumns+` FROM approval_requests WHERE id = ?`, id)

	var request persistence.ApprovalRequest
	var createdAt, updatedAt string

	err := row.Scan(&request.ID, &request.ExpenseID, &request.ApplicantID, &request.CurrentStep, &request.Status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ApprovalRequest{}, persistence.ErrNotFound
		}
		return persistence.ApprovalRequest{}, r.mapper.MapError(err)
	}
	if request.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.ApprovalRequest{}, err
	}
	if request.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.ApprovalRequest{}, err
	}
	if request.Steps, err = r.listSteps(ctx, id); err != nil {
		return persistence.ApprovalRequest{}, err
	}
	return request, nil
}

// ListRequests returns an applicant's requests with steps in creation order.
func (r *ApprovalRepository) ListRequests(ctx context.Context, applicantID string) ([]persistence.ApprovalRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	if applicantID != "" {
		query = `SELECT ` + requestColumns + ` FROM approval_requests WHERE applicant_id = ? ORDER BY created_at ASC, id ASC`
		args = append(args, applicantID)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var requests []persistence.ApprovalRequest
	for rows.Next() {
		var request persistence.ApprovalRequest
		var createdAt, updatedAt string

		if err := rows.Scan(&request.ID, &request.ExpenseID, &request.ApplicantID, &request.CurrentStep, &request.Status, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if request.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if request.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range requests {
		if requests[i].Steps, err = r.listSteps(ctx, requests[i].ID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (r *ApprovalRepository) insertStepsTx(tx *sql.Tx, requestID string, steps []persistence.ApprovalStep) error {
	for position, step := range steps {
		_, err := r.helper.ExecTx(tx, `
			INSERT INTO approval_steps (request_id, position, approver_id, status, reason, decided_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			requestID,
			position,
			step.ApproverID,
			step.Status,
			nullString(step.Reason),
			formatNullTime(step.DecidedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *ApprovalRepository) listSteps(ctx context.Context, requestID string) ([]persistence.ApprovalStep, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT approver_id, status, reason, decided_at FROM approval_steps
		WHERE request_id = ?
		ORDER BY position ASC
	`, requestID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var steps []persistence.ApprovalStep
	for rows.Next() {
		var step persistence.ApprovalStep
		var reason, decidedAt sql.NullString

		if err := rows.Scan(&step.ApproverID, &step.Status, &reason, &decidedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		step.Reason = fromNullString(reason)
		if step.DecidedAt, err = parseNullTime(decidedAt, "decided_at"); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return steps, nil
}
