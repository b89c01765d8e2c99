package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/workdesk/internal/persistence"
)

// ChatRepository implements persistence.ChatRepository using SQLite.
type ChatRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewChatRepository creates a new SQLite chat repository.
func NewChatRepository(pool *ConnectionPool) *ChatRepository {
	return &ChatRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const roomColumns = "id, name, project_id, created_at, updated_at"

// CreateRoom inserts a room and its member list in one transaction.
func (r *ChatRepository) CreateRoom(ctx context.Context, room persistence.ChatRoom) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO chat_rooms (` + roomColumns + `)
			VALUES (?, ?, ?, ?, ?)
		`
		_, err := r.helper.ExecTx(tx, query,
			room.ID,
			room.Name,
			nullString(room.ProjectID),
			formatTime(room.CreatedAt),
			formatTime(room.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		seen := make(map[string]struct{}, len(room.MemberIDs))
		for _, memberID := range room.MemberIDs {
			if _, ok := seen[memberID]; ok {
				continue
			}
			seen[memberID] = struct{}{}
			if _, err := r.helper.ExecTx(tx, `INSERT INTO chat_room_members (room_id, user_id) VALUES (?, ?)`, room.ID, memberID); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetRoom retrieves a room with its member list.
func (r *ChatRepository) GetRoom(ctx context.Context, id string) (persistence.ChatRoom, error) {
	if id == "" {
		return persistence.ChatRoom{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+roomColumns+` FROM chat_rooms WHERE id = ?`, id)

	var room persistence.ChatRoom
	var projectID sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&room.ID, &room.Name, &projectID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ChatRoom{}, persistence.ErrNotFound
		}
		return persistence.ChatRoom{}, r.mapper.MapError(err)
	}
	room.ProjectID = fromNullString(projectID)
	if room.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.ChatRoom{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.ChatRoom{}, err
	}
	if room.MemberIDs, err = r.listRoomMembers(ctx, id); err != nil {
		return persistence.ChatRoom{}, err
	}
	return room, nil
}

// ListRooms returns rooms the member belongs to, or all rooms when memberID
// is empty, ordered by creation timestamp then ID.
func (r *ChatRepository) ListRooms(ctx context.Context, memberID string) ([]persistence.ChatRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM chat_rooms ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	if memberID != "" {
		query = `
			SELECT ` + roomColumns + ` FROM chat_rooms
			WHERE id IN (SELECT room_id FROM chat_room_members WHERE user_id = ?)
			ORDER BY created_at ASC, id ASC
		`
		args = append(args, memberID)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.ChatRoom
	for rows.Next() {
		var room persistence.ChatRoom
		var projectID sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&room.ID, &room.Name, &projectID, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		room.ProjectID = fromNullString(projectID)
		if room.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if room.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range rooms {
		if rooms[i].MemberIDs, err = r.listRoomMembers(ctx, rooms[i].ID); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

// DeleteRoom removes a room; messages and memberships cascade.
func (r *ChatRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM chat_rooms WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// AppendMessage inserts a message into a room's log.
func (r *ChatRepository) AppendMessage(ctx context.Context, message persistence.ChatMessage) error {
	if message.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO chat_messages (id, room_id, author_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		message.ID,
		message.RoomID,
		message.AuthorID,
		message.Body,
		formatTime(message.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// GetMessage retrieves a message by ID.
func (r *ChatRepository) GetMessage(ctx context.Context, id string) (persistence.ChatMessage, error) {
	if id == "" {
		return persistence.ChatMessage{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT id, room_id, author_id, body, created_at FROM chat_messages WHERE id = ?`, id)

	var message persistence.ChatMessage
	var createdAt string
	err := row.Scan(&message.ID, &message.RoomID, &message.AuthorID, &message.Body, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ChatMessage{}, persistence.ErrNotFound
		}
		return persistence.ChatMessage{}, r.mapper.MapError(err)
	}
	if message.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.ChatMessage{}, err
	}
	return message, nil
}

// ListMessages returns a room's messages in append order.
func (r *ChatRepository) ListMessages(ctx context.Context, roomID string) ([]persistence.ChatMessage, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, room_id, author_id, body, created_at FROM chat_messages
		WHERE room_id = ?
		ORDER BY created_at ASC, id ASC
	`, roomID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var messages []persistence.ChatMessage
	for rows.Next() {
		var message persistence.ChatMessage
		var createdAt string
		if err := rows.Scan(&message.ID, &message.RoomID, &message.AuthorID, &message.Body, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if message.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return messages, nil
}

// DeleteMessage removes a message by ID.
func (r *ChatRepository) DeleteMessage(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM chat_messages WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

func (r *ChatRepository) listRoomMembers(ctx context.Context, roomID string) ([]string, error) {
	rows, err := r.helper.Query(ctx, `SELECT user_id FROM chat_room_members WHERE room_id = ? ORDER BY user_id ASC`, roomID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var memberIDs []string
	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		memberIDs = append(memberIDs, memberID)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return memberIDs, nil
}
