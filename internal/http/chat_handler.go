package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/workdesk/internal/application"
	"github.com/example/workdesk/internal/persistence"
)

type chatService interface {
	CreateRoom(ctx context.Context, principal application.Principal, input application.RoomInput) (persistence.ChatRoom, error)
	ListRooms(ctx context.Context, principal application.Principal) ([]persistence.ChatRoom, error)
	PostMessage(ctx context.Context, principal application.Principal, roomID, body string) (persistence.ChatMessage, error)
	ListMessages(ctx context.Context, principal application.Principal, roomID string) ([]persistence.ChatMessage, error)
	DeleteMessage(ctx context.Context, principal application.Principal, messageID string) error
	ListNotifications(ctx context.Context, principal application.Principal) ([]persistence.Notification, error)
	MarkNotificationRead(ctx context.Context, principal application.Principal, notificationID string) error
	SetActiveRoom(userID, roomID string)
	ClearActiveRoom(userID string)
}

type ChatHandler struct {
	service   chatService
	responder responder
	logger    *slog.Logger
}

func NewChatHandler(service chatService, logger *slog.Logger) *ChatHandler {
	base := defaultLogger(logger)
	return &ChatHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ChatHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ChatHandler", operation, attrs...)
}

func (h *ChatHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateRoom", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateRoom", "principal_id", principal.UserID)

	room, err := h.service.CreateRoom(r.Context(), principal, application.RoomInput{
		Name:      strings.TrimSpace(req.Name),
		ProjectID: req.ProjectID,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListRooms", "principal_id", principal.UserID)
	rooms, err := h.service.ListRooms(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "PostMessage", "principal_id", principal.UserID, "room_id", roomID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode message request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "PostMessage", "principal_id", principal.UserID, "room_id", roomID)

	message, err := h.service.PostMessage(r.Context(), principal, roomID, req.Body)
	if err != nil {
		logger.ErrorContext(r.Context(), "message post failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("message_id", message.ID).InfoContext(r.Context(), "message posted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, messageResponse{Message: toMessageDTO(message)})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	messages, err := h.service.ListMessages(r.Context(), principal, roomID)
	if err != nil {
		h.log(r.Context(), "ListMessages", "room_id", roomID).ErrorContext(r.Context(), "message list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMessagesResponse{Messages: toMessageDTOs(messages)})
}

func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	messageID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(messageID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteMessage", "principal_id", principal.UserID, "message_id", messageID)
	if err := h.service.DeleteMessage(r.Context(), principal, messageID); err != nil {
		logger.ErrorContext(r.Context(), "message delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "message deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// SetActiveRoom marks the room the principal currently has open, suppressing
// notifications for messages that land while they are reading it.
func (h *ChatHandler) SetActiveRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	h.service.SetActiveRoom(principal.UserID, roomID)
	h.log(r.Context(), "SetActiveRoom", "principal_id", principal.UserID, "room_id", roomID).InfoContext(r.Context(), "active room set")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ChatHandler) ClearActiveRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	h.service.ClearActiveRoom(principal.UserID)
	h.log(r.Context(), "ClearActiveRoom", "principal_id", principal.UserID).InfoContext(r.Context(), "active room cleared")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ChatHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	notifications, err := h.service.ListNotifications(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListNotifications", "principal_id", principal.UserID).ErrorContext(r.Context(), "notification list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{Notifications: toNotificationDTOs(notifications)})
}

func (h *ChatHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	notificationID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(notificationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "MarkNotificationRead", "principal_id", principal.UserID, "notification_id", notificationID)
	if err := h.service.MarkNotificationRead(r.Context(), principal, notificationID); err != nil {
		logger.ErrorContext(r.Context(), "notification read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "notification marked read")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type roomRequest struct {
	Name      string   `json:"name"`
	ProjectID *string  `json:"project_id"`
	MemberIDs []string `json:"member_ids"`
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ProjectID *string  `json:"project_id,omitempty"`
	MemberIDs []string `json:"member_ids"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func toRoomDTO(room persistence.ChatRoom) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		ProjectID: room.ProjectID,
		MemberIDs: room.MemberIDs,
		CreatedAt: room.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: room.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toRoomDTOs(rooms []persistence.ChatRoom) []roomDTO {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

type messageRequest struct {
	Body string `json:"body"`
}

type messageResponse struct {
	Message messageDTO `json:"message"`
}

type listMessagesResponse struct {
	Messages []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	AuthorID  string `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func toMessageDTO(message persistence.ChatMessage) messageDTO {
	return messageDTO{
		ID:        message.ID,
		RoomID:    message.RoomID,
		AuthorID:  message.AuthorID,
		Body:      message.Body,
		CreatedAt: message.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toMessageDTOs(messages []persistence.ChatMessage) []messageDTO {
	if len(messages) == 0 {
		return nil
	}
	out := make([]messageDTO, 0, len(messages))
	for _, message := range messages {
		out = append(out, toMessageDTO(message))
	}
	return out
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
}

type notificationDTO struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	Body      string `json:"body"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationDTOs(notifications []persistence.Notification) []notificationDTO {
	if len(notifications) == 0 {
		return nil
	}
	out := make([]notificationDTO, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, notificationDTO{
			ID:        notification.ID,
			Kind:      notification.Kind,
			RoomID:    notification.RoomID,
			MessageID: notification.MessageID,
			Body:      notification.Body,
			Read:      notification.Read,
			CreatedAt: notification.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
