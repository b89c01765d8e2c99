package application

import (
	"github.com/example/workdesk/internal/persistence"
)

// NotificationKindChatMessage labels notifications derived from chat messages.
const NotificationKindChatMessage = "chat_message"

// DeriveNotification computes the notification a viewer should receive for a
// chat message. The boolean reports whether a notification applies at all:
// authors never notify themselves, and a viewer whose active room is the
// message's room has already seen it, so the notification is suppressed
// rather than persisted unread.
func DeriveNotification(message persistence.ChatMessage, viewerID, activeRoomID string) (persistence.Notification, bool) {
	if viewerID == "" || viewerID == message.AuthorID {
		return persistence.Notification{}, false
	}
	if activeRoomID == message.RoomID {
		return persistence.Notification{}, false
	}
	return persistence.Notification{
		RecipientID: viewerID,
		Kind:        NotificationKindChatMessage,
		RoomID:      message.RoomID,
		MessageID:   message.ID,
		Body:        message.Body,
		Read:        false,
		CreatedAt:   message.CreatedAt,
		UpdatedAt:   message.CreatedAt,
	}, true
}
