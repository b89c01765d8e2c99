package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/workdesk/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const eventColumns = "id, owner_id, project_id, title, start_at, end_at, source, created_at, updated_at"

// CreateEvent inserts a calendar event.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		event.ID,
		event.OwnerID,
		nullString(event.ProjectID),
		event.Title,
		formatTime(event.Start),
		formatTime(event.End),
		event.Source,
		formatTime(event.CreatedAt),
		formatTime(event.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateEvent rewrites an event row.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	query := `
		UPDATE events
		SET owner_id = ?, project_id = ?, title = ?, start_at = ?, end_at = ?, source = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		event.OwnerID,
		nullString(event.ProjectID),
		event.Title,
		formatTime(event.Start),
		formatTime(event.End),
		event.Source,
		formatTime(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.CalendarEvent, error) {
	if id == "" {
		return persistence.CalendarEvent{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)

	var event persistence.CalendarEvent
	var projectID sql.NullString
	var startAt, endAt, createdAt, updatedAt string

	err := row.Scan(
		&event.ID,
		&event.OwnerID,
		&projectID,
		&event.Title,
		&startAt,
		&endAt,
		&event.Source,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.CalendarEvent{}, persistence.ErrNotFound
		}
		return persistence.CalendarEvent{}, r.mapper.MapError(err)
	}
	return r.finishEvent(event, projectID, startAt, endAt, createdAt, updatedAt)
}

// ListEvents returns events matching the filter, ordered by start time.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.CalendarEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1 = 1`
	args := make([]interface{}, 0, 5)

	if filter.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *filter.ProjectID)
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.StartsAfter != nil {
		query += ` AND end_at > ?`
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		query += ` AND start_at < ?`
		args = append(args, formatTime(*filter.EndsBefore))
	}
	query += ` ORDER BY start_at ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.CalendarEvent
	for rows.Next() {
		var event persistence.CalendarEvent
		var projectID sql.NullString
		var startAt, endAt, createdAt, updatedAt string

		err := rows.Scan(
			&event.ID,
			&event.OwnerID,
			&projectID,
			&event.Title,
			&startAt,
			&endAt,
			&event.Source,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		event, err = r.finishEvent(event, projectID, startAt, endAt, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return events, nil
}

// DeleteEvent removes an event by ID.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

func (r *EventRepository) finishEvent(event persistence.CalendarEvent, projectID sql.NullString, startAt, endAt, createdAt, updatedAt string) (persistence.CalendarEvent, error) {
	var err error
	event.ProjectID = fromNullString(projectID)
	if event.Start, err = parseTime(startAt, "start_at"); err != nil {
		return persistence.CalendarEvent{}, err
	}
	if event.End, err = parseTime(endAt, "end_at"); err != nil {
		return persistence.CalendarEvent{}, err
	}
	if event.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.CalendarEvent{}, err
	}
	if event.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.CalendarEvent{}, err
	}
	return event, nil
}
