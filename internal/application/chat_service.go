package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

// ChatService manages rooms, message logs, and the notifications derived from
// them. Notifications are a pure function of the message and the viewer's
// active room; a member reading the room when the message lands never sees an
// unread notification for it.
type ChatService struct {
	chats         persistence.ChatRepository
	notifications persistence.NotificationRepository
	active        *activeRoomRegistry
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewChatService constructs a ChatService with the provided dependencies.
func NewChatService(chats persistence.ChatRepository, notifications persistence.NotificationRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ChatService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ChatService{
		chats:         chats,
		notifications: notifications,
		active:        newActiveRoomRegistry(),
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *ChatService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ChatService", operation, attrs...)
}

// SetActiveRoom records the room a user currently has open. An empty roomID
// clears the entry.
func (s *ChatService) SetActiveRoom(userID, roomID string) {
	if s == nil {
		return
	}
	s.active.Set(userID, roomID)
}

// ClearActiveRoom forgets the user's open room.
func (s *ChatService) ClearActiveRoom(userID string) {
	if s == nil {
		return
	}
	s.active.Clear(userID)
}

// CreateRoom creates a chat room; the creator is always a member.
func (s *ChatService) CreateRoom(ctx context.Context, principal Principal, input RoomInput) (room persistence.ChatRoom, err error) {
	if s == nil {
		err = fmt.Errorf("ChatService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "room creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if strings.TrimSpace(input.Name) == "" {
		vErr := &ValidationError{}
		vErr.add("name", "채팅방 이름을 입력해 주세요")
		err = vErr
		return
	}

	memberIDs := input.MemberIDs
	if !containsID(memberIDs, principal.UserID) {
		memberIDs = append(append([]string{}, memberIDs...), principal.UserID)
	}

	now := s.now()
	room = persistence.ChatRoom{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		ProjectID: input.ProjectID,
		MemberIDs: memberIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = mapRepoError("create room", s.chats.CreateRoom(ctx, room)); err != nil {
		room = persistence.ChatRoom{}
	}
	return
}

// ListRooms returns the principal's rooms.
func (s *ChatService) ListRooms(ctx context.Context, principal Principal) ([]persistence.ChatRoom, error) {
	if s == nil {
		return nil, fmt.Errorf("ChatService is nil")
	}
	rooms, err := s.chats.ListRooms(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError("list rooms", err)
	}
	return rooms, nil
}

// PostMessage appends a message and derives one notification per room member
// other than the author. Members whose active room is this room are
// suppressed: the message is considered already seen.
func (s *ChatService) PostMessage(ctx context.Context, principal Principal, roomID, body string) (message persistence.ChatMessage, err error) {
	if s == nil {
		err = fmt.Errorf("ChatService is nil")
		return
	}

	logger := s.loggerWith(ctx, "PostMessage", "principal_id", principal.UserID, "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "message post failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("message_id", message.ID).InfoContext(ctx, "message posted")
	}()

	if strings.TrimSpace(body) == "" {
		vErr := &ValidationError{}
		vErr.add("body", "메시지 내용을 입력해 주세요")
		err = vErr
		return
	}

	var room persistence.ChatRoom
	room, err = s.chats.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRepoError("post message", err)
		return
	}
	if !containsID(room.MemberIDs, principal.UserID) {
		err = ErrUnauthorized
		return
	}

	message = persistence.ChatMessage{
		ID:        s.idGenerator(),
		RoomID:    room.ID,
		AuthorID:  principal.UserID,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err = mapRepoError("post message", s.chats.AppendMessage(ctx, message)); err != nil {
		message = persistence.ChatMessage{}
		return
	}

	for _, memberID := range room.MemberIDs {
		notification, ok := DeriveNotification(message, memberID, s.active.Get(memberID))
		if !ok {
			continue
		}
		notification.ID = s.idGenerator()
		if createErr := s.notifications.CreateNotification(ctx, notification); createErr != nil {
			// The message is already appended; a failed notification must not
			// undo it. Log and move on to the remaining members.
			logger.ErrorContext(ctx, "notification creation failed",
				"recipient_id", memberID,
				"error", createErr,
				"error_kind", ErrorKind(mapRepoError("post message", createErr)),
			)
		}
	}
	return
}

// ListMessages returns a room's log for a member.
func (s *ChatService) ListMessages(ctx context.Context, principal Principal, roomID string) ([]persistence.ChatMessage, error) {
	if s == nil {
		return nil, fmt.Errorf("ChatService is nil")
	}

	room, err := s.chats.GetRoom(ctx, roomID)
	if err != nil {
		return nil, mapRepoError("list messages", err)
	}
	if !containsID(room.MemberIDs, principal.UserID) {
		return nil, ErrUnauthorized
	}

	messages, err := s.chats.ListMessages(ctx, roomID)
	if err != nil {
		return nil, mapRepoError("list messages", err)
	}
	return messages, nil
}

// DeleteMessage removes a message. Only the author or an admin may delete.
func (s *ChatService) DeleteMessage(ctx context.Context, principal Principal, messageID string) error {
	if s == nil {
		return fmt.Errorf("ChatService is nil")
	}

	message, err := s.chats.GetMessage(ctx, messageID)
	if err != nil {
		return mapRepoError("delete message", err)
	}
	if !principal.IsAdmin && message.AuthorID != principal.UserID {
		return ErrUnauthorized
	}
	return mapRepoError("delete message", s.chats.DeleteMessage(ctx, messageID))
}

// ListNotifications returns the principal's notifications.
func (s *ChatService) ListNotifications(ctx context.Context, principal Principal) ([]persistence.Notification, error) {
	if s == nil {
		return nil, fmt.Errorf("ChatService is nil")
	}
	notifications, err := s.notifications.ListNotifications(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError("list notifications", err)
	}
	return notifications, nil
}

// MarkNotificationRead flips a notification's read flag.
func (s *ChatService) MarkNotificationRead(ctx context.Context, principal Principal, notificationID string) error {
	if s == nil {
		return fmt.Errorf("ChatService is nil")
	}

	notifications, err := s.notifications.ListNotifications(ctx, principal.UserID)
	if err != nil {
		return mapRepoError("mark notification read", err)
	}
	for _, notification := range notifications {
		if notification.ID != notificationID {
			continue
		}
		if notification.Read {
			return nil
		}
		notification.Read = true
		notification.UpdatedAt = s.now()
		return mapRepoError("mark notification read", s.notifications.UpdateNotification(ctx, notification))
	}
	return ErrNotFound
}
