package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/workdesk/internal/persistence"
)

// WelfareRepository implements persistence.WelfareRepository using SQLite.
// The UNIQUE(date, slot) index on training_sessions is the authority for
// double-booking: a second insert for the same slot maps to ErrDuplicate.
type WelfareRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewWelfareRepository creates a new SQLite welfare repository.
func NewWelfareRepository(pool *ConnectionPool) *WelfareRepository {
	return &WelfareRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const lockerColumns = "id, label, assignee_id, created_at, updated_at"
const trainingColumns = "id, user_id, date, slot, event_id, created_at, updated_at"

// CreateLocker inserts a locker.
func (r *WelfareRepository) CreateLocker(ctx context.Context, locker persistence.Locker) error {
	if locker.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO lockers (` + lockerColumns + `)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		locker.ID,
		locker.Label,
		nullString(locker.AssigneeID),
		formatTime(locker.CreatedAt),
		formatTime(locker.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateLocker rewrites a locker, typically to assign or release it.
func (r *WelfareRepository) UpdateLocker(ctx context.Context, locker persistence.Locker) error {
	query := `
		UPDATE lockers
		SET label = ?, assignee_id = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		locker.Label,
		nullString(locker.AssigneeID),
		formatTime(locker.UpdatedAt),
		locker.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// GetLocker retrieves a locker by ID.
func (r *WelfareRepository) GetLocker(ctx context.Context, id string) (persistence.Locker, error) {
	if id == "" {
		return persistence.Locker{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+lockerColumns+` FROM lockers WHERE id = ?`, id)

	var locker persistence.Locker
	var assigneeID sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&locker.ID, &locker.Label, &assigneeID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Locker{}, persistence.ErrNotFound
		}
		return persistence.Locker{}, r.mapper.MapError(err)
	}
	locker.AssigneeID = fromNullString(assigneeID)
	if locker.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Locker{}, err
	}
	if locker.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Locker{}, err
	}
	return locker, nil
}

// ListLockers returns all lockers ordered by label.
func (r *WelfareRepository) ListLockers(ctx context.Context) ([]persistence.Locker, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+lockerColumns+` FROM lockers ORDER BY label ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var lockers []persistence.Locker
	for rows.Next() {
		var locker persistence.Locker
		var assigneeID sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&locker.ID, &locker.Label, &assigneeID, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		locker.AssigneeID = fromNullString(assigneeID)
		if locker.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if locker.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		lockers = append(lockers, locker)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return lockers, nil
}

// CreateTrainingSession inserts a booking; a taken slot maps to ErrDuplicate.
func (r *WelfareRepository) CreateTrainingSession(ctx context.Context, session persistence.TrainingSession) error {
	if session.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO training_sessions (` + trainingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Date,
		session.Slot,
		nullString(session.EventID),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// ListTrainingSessions returns bookings for a date, or all when date is empty,
// ordered by date then slot.
func (r *WelfareRepository) ListTrainingSessions(ctx context.Context, date string) ([]persistence.TrainingSession, error) {
	query := `SELECT ` + trainingColumns + ` FROM training_sessions ORDER BY date ASC, slot ASC, id ASC`
	args := []interface{}{}
	if date != "" {
		query = `SELECT ` + trainingColumns + ` FROM training_sessions WHERE date = ? ORDER BY date ASC, slot ASC, id ASC`
		args = append(args, date)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.TrainingSession
	for rows.Next() {
		var session persistence.TrainingSession
		var eventID sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&session.ID, &session.UserID, &session.Date, &session.Slot, &eventID, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		session.EventID = fromNullString(eventID)
		if session.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if session.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return sessions, nil
}

// DeleteTrainingSession removes a booking by ID.
func (r *WelfareRepository) DeleteTrainingSession(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM training_sessions WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}
