package sqlite

import (
	"context"

	"github.com/example/workdesk/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository using SQLite.
type NotificationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewNotificationRepository creates a new SQLite notification repository.
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const notificationColumns = "id, recipient_id, kind, room_id, message_id, body, read, created_at, updated_at"

// CreateNotification inserts a derived notification record.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	if notification.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		notification.ID,
		notification.RecipientID,
		notification.Kind,
		notification.RoomID,
		notification.MessageID,
		notification.Body,
		notification.Read,
		formatTime(notification.CreatedAt),
		formatTime(notification.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateNotification rewrites a notification, typically to flip Read.
func (r *NotificationRepository) UpdateNotification(ctx context.Context, notification persistence.Notification) error {
	query := `
		UPDATE notifications
		SET kind = ?, body = ?, read = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		notification.Kind,
		notification.Body,
		notification.Read,
		formatTime(notification.UpdatedAt),
		notification.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// ListNotifications returns a recipient's notifications in creation order.
func (r *NotificationRepository) ListNotifications(ctx context.Context, recipientID string) ([]persistence.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	if recipientID != "" {
		query = `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ? ORDER BY created_at ASC, id ASC`
		args = append(args, recipientID)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		var n persistence.Notification
		var createdAt, updatedAt string

		err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.Kind,
			&n.RoomID,
			&n.MessageID,
			&n.Body,
			&n.Read,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		if n.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if n.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return notifications, nil
}

// DeleteNotification removes a notification by ID.
func (r *NotificationRepository) DeleteNotification(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}
