package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/workdesk/internal/persistence"
	"github.com/example/workdesk/internal/testfixtures"
)

func TestDeriveNotification(t *testing.T) {
	t.Parallel()

	message := persistence.ChatMessage{
		ID:        "msg-1",
		RoomID:    "room-1",
		AuthorID:  "alice",
		Body:      "회의록 공유합니다",
		CreatedAt: testfixtures.ReferenceTime(),
	}

	t.Run("derives an unread notification for another member", func(t *testing.T) {
		t.Parallel()

		notification, ok := DeriveNotification(message, "bob", "")
		if !ok {
			t.Fatal("expected a notification")
		}
		if notification.RecipientID != "bob" || notification.Kind != NotificationKindChatMessage {
			t.Fatalf("unexpected notification %+v", notification)
		}
		if notification.Read {
			t.Fatal("derived notifications start unread")
		}
		if notification.MessageID != message.ID || notification.RoomID != message.RoomID {
			t.Fatalf("notification must point back at its message, got %+v", notification)
		}
	})

	t.Run("never notifies the author", func(t *testing.T) {
		t.Parallel()

		if _, ok := DeriveNotification(message, "alice", ""); ok {
			t.Fatal("authors must not be notified of their own messages")
		}
	})

	t.Run("suppresses members reading the room", func(t *testing.T) {
		t.Parallel()

		if _, ok := DeriveNotification(message, "bob", "room-1"); ok {
			t.Fatal("a member with the room open has already seen the message")
		}
	})

	t.Run("members reading another room still get notified", func(t *testing.T) {
		t.Parallel()

		if _, ok := DeriveNotification(message, "bob", "room-2"); !ok {
			t.Fatal("expected a notification when a different room is open")
		}
	})
}

func TestChatService_PostMessage(t *testing.T) {
	t.Parallel()

	newService := func(chats *chatRepositoryStub, notifications *notificationRepositoryStub) *ChatService {
		clock := testfixtures.NewClock(time.Time{})
		ids := testfixtures.NewIDGenerator("chat")
		return NewChatService(chats, notifications, ids.NextFunc(), clock.NowFunc(), nil)
	}

	t.Run("fans out one notification per member except the author", func(t *testing.T) {
		t.Parallel()

		chats := newChatRepositoryStub()
		chats.seedRoom(persistence.ChatRoom{ID: "room-1", Name: "일반", MemberIDs: []string{"alice", "bob", "carol"}})
		notifications := newNotificationRepositoryStub()
		svc := newService(chats, notifications)

		message, err := svc.PostMessage(context.Background(), Principal{UserID: "alice"}, "room-1", "점심 어때요?")
		if err != nil {
			t.Fatalf("PostMessage failed: %v", err)
		}
		if len(chats.messages) != 1 {
			t.Fatalf("expected one appended message, got %d", len(chats.messages))
		}
		if len(notifications.notifications) != 2 {
			t.Fatalf("expected notifications for bob and carol, got %d", len(notifications.notifications))
		}
		recipients := map[string]bool{}
		for _, notification := range notifications.notifications {
			recipients[notification.RecipientID] = true
			if notification.MessageID != message.ID {
				t.Fatalf("notification not linked to message: %+v", notification)
			}
		}
		if !recipients["bob"] || !recipients["carol"] || recipients["alice"] {
			t.Fatalf("unexpected recipient set %v", recipients)
		}
	})

	t.Run("suppresses notifications for members with the room active", func(t *testing.T) {
		t.Parallel()

		chats := newChatRepositoryStub()
		chats.seedRoom(persistence.ChatRoom{ID: "room-1", Name: "일반", MemberIDs: []string{"alice", "bob"}})
		notifications := newNotificationRepositoryStub()
		svc := newService(chats, notifications)

		svc.SetActiveRoom("bob", "room-1")
		if _, err := svc.PostMessage(context.Background(), Principal{UserID: "alice"}, "room-1", "hi"); err != nil {
			t.Fatalf("PostMessage failed: %v", err)
		}
		if len(notifications.notifications) != 0 {
			t.Fatalf("expected suppression, got %d notifications", len(notifications.notifications))
		}

		svc.ClearActiveRoom("bob")
		if _, err := svc.PostMessage(context.Background(), Principal{UserID: "alice"}, "room-1", "hi again"); err != nil {
			t.Fatalf("PostMessage failed: %v", err)
		}
		if len(notifications.notifications) != 1 {
			t.Fatalf("expected one notification after clearing the active room, got %d", len(notifications.notifications))
		}
	})

	t.Run("rejects posts from non-members", func(t *testing.T) {
		t.Parallel()

		chats := newChatRepositoryStub()
		chats.seedRoom(persistence.ChatRoom{ID: "room-1", MemberIDs: []string{"alice"}})
		svc := newService(chats, newNotificationRepositoryStub())

		if _, err := svc.PostMessage(context.Background(), Principal{UserID: "mallory"}, "room-1", "let me in"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("keeps the message when a notification write fails", func(t *testing.T) {
		t.Parallel()

		chats := newChatRepositoryStub()
		chats.seedRoom(persistence.ChatRoom{ID: "room-1", MemberIDs: []string{"alice", "bob"}})
		notifications := newNotificationRepositoryStub()
		notifications.createErr = errors.New("disk full")
		svc := newService(chats, notifications)

		if _, err := svc.PostMessage(context.Background(), Principal{UserID: "alice"}, "room-1", "still here"); err != nil {
			t.Fatalf("PostMessage must not fail on notification errors, got %v", err)
		}
		if len(chats.messages) != 1 {
			t.Fatalf("expected the message to be appended, got %d", len(chats.messages))
		}
	})

	t.Run("rejects blank bodies", func(t *testing.T) {
		t.Parallel()

		chats := newChatRepositoryStub()
		chats.seedRoom(persistence.ChatRoom{ID: "room-1", MemberIDs: []string{"alice"}})
		svc := newService(chats, newNotificationRepositoryStub())

		_, err := svc.PostMessage(context.Background(), Principal{UserID: "alice"}, "room-1", "   ")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})
}

func TestChatService_CreateRoom(t *testing.T) {
	t.Parallel()

	t.Run("always includes the creator as a member", func(t *testing.T) {
		t.Parallel()

		chats := newChatRepositoryStub()
		ids := testfixtures.NewIDGenerator("room")
		svc := NewChatService(chats, newNotificationRepositoryStub(), ids.NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)

		room, err := svc.CreateRoom(context.Background(), Principal{UserID: "alice"}, RoomInput{Name: "기획", MemberIDs: []string{"bob"}})
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		if !containsID(room.MemberIDs, "alice") || !containsID(room.MemberIDs, "bob") {
			t.Fatalf("unexpected member set %v", room.MemberIDs)
		}
	})
}

func TestChatService_MarkNotificationRead(t *testing.T) {
	t.Parallel()

	t.Run("flips the read flag once", func(t *testing.T) {
		t.Parallel()

		notifications := newNotificationRepositoryStub()
		notifications.notifications = []persistence.Notification{
			{ID: "n-1", RecipientID: "bob", Read: false},
		}
		clock := testfixtures.NewClock(time.Time{})
		svc := NewChatService(newChatRepositoryStub(), notifications, nil, clock.NowFunc(), nil)

		if err := svc.MarkNotificationRead(context.Background(), Principal{UserID: "bob"}, "n-1"); err != nil {
			t.Fatalf("MarkNotificationRead failed: %v", err)
		}
		if !notifications.notifications[0].Read {
			t.Fatal("expected the notification to be read")
		}
		// Re-reading is a no-op, not an error.
		if err := svc.MarkNotificationRead(context.Background(), Principal{UserID: "bob"}, "n-1"); err != nil {
			t.Fatalf("second MarkNotificationRead failed: %v", err)
		}
	})

	t.Run("cannot read another user's notification", func(t *testing.T) {
		t.Parallel()

		notifications := newNotificationRepositoryStub()
		notifications.notifications = []persistence.Notification{
			{ID: "n-1", RecipientID: "bob"},
		}
		svc := NewChatService(newChatRepositoryStub(), notifications, nil, nil, nil)

		if err := svc.MarkNotificationRead(context.Background(), Principal{UserID: "mallory"}, "n-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
