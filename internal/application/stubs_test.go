package application

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

type userRepositoryStub struct {
	users     map[string]persistence.User
	createErr error
	updateErr error
	getErr    error
	deleteErr error
}

func newUserRepositoryStub() *userRepositoryStub {
	return &userRepositoryStub{users: make(map[string]persistence.User)}
}

func (s *userRepositoryStub) seed(user persistence.User) {
	s.users[user.ID] = user
}

func (s *userRepositoryStub) CreateUser(ctx context.Context, user persistence.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *userRepositoryStub) UpdateUser(ctx context.Context, user persistence.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *userRepositoryStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if s.getErr != nil {
		return persistence.User{}, s.getErr
	}
	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepositoryStub) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if s.getErr != nil {
		return persistence.User{}, s.getErr
	}
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *userRepositoryStub) ListUsers(ctx context.Context) ([]persistence.User, error) {
	out := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *userRepositoryStub) DeleteUser(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type sessionRepositoryStub struct {
	sessions    map[string]persistence.Session
	deleteCalls []time.Time
	createErr   error
	updateErr   error
	deleteErr   error
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: make(map[string]persistence.Session)}
}

func (s *sessionRepositoryStub) seed(session persistence.Session) {
	s.sessions[session.Token] = session
}

func (s *sessionRepositoryStub) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if s.createErr != nil {
		return persistence.Session{}, s.createErr
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if s.updateErr != nil {
		return persistence.Session{}, s.updateErr
	}
	for token, existing := range s.sessions {
		if existing.ID == session.ID {
			delete(s.sessions, token)
			s.sessions[session.Token] = session
			return session, nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

func (s *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.deleteCalls = append(s.deleteCalls, reference)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

type chatRepositoryStub struct {
	rooms     map[string]persistence.ChatRoom
	messages  []persistence.ChatMessage
	appendErr error
	deleteErr error
}

func newChatRepositoryStub() *chatRepositoryStub {
	return &chatRepositoryStub{rooms: make(map[string]persistence.ChatRoom)}
}

func (s *chatRepositoryStub) seedRoom(room persistence.ChatRoom) {
	s.rooms[room.ID] = room
}

func (s *chatRepositoryStub) CreateRoom(ctx context.Context, room persistence.ChatRoom) error {
	s.rooms[room.ID] = room
	return nil
}

func (s *chatRepositoryStub) GetRoom(ctx context.Context, id string) (persistence.ChatRoom, error) {
	room, ok := s.rooms[id]
	if !ok {
		return persistence.ChatRoom{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *chatRepositoryStub) ListRooms(ctx context.Context, memberID string) ([]persistence.ChatRoom, error) {
	out := make([]persistence.ChatRoom, 0, len(s.rooms))
	for _, room := range s.rooms {
		for _, id := range room.MemberIDs {
			if id == memberID {
				out = append(out, room)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *chatRepositoryStub) DeleteRoom(ctx context.Context, id string) error {
	delete(s.rooms, id)
	return nil
}

func (s *chatRepositoryStub) AppendMessage(ctx context.Context, message persistence.ChatMessage) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.messages = append(s.messages, message)
	return nil
}

func (s *chatRepositoryStub) GetMessage(ctx context.Context, id string) (persistence.ChatMessage, error) {
	for _, message := range s.messages {
		if message.ID == id {
			return message, nil
		}
	}
	return persistence.ChatMessage{}, persistence.ErrNotFound
}

func (s *chatRepositoryStub) ListMessages(ctx context.Context, roomID string) ([]persistence.ChatMessage, error) {
	out := make([]persistence.ChatMessage, 0, len(s.messages))
	for _, message := range s.messages {
		if message.RoomID == roomID {
			out = append(out, message)
		}
	}
	return out, nil
}

func (s *chatRepositoryStub) DeleteMessage(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i, message := range s.messages {
		if message.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

type notificationRepositoryStub struct {
	notifications []persistence.Notification
	createErr     error
	updateErr     error
}

func newNotificationRepositoryStub() *notificationRepositoryStub {
	return &notificationRepositoryStub{}
}

func (s *notificationRepositoryStub) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.notifications = append(s.notifications, notification)
	return nil
}

func (s *notificationRepositoryStub) UpdateNotification(ctx context.Context, notification persistence.Notification) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	for i, existing := range s.notifications {
		if existing.ID == notification.ID {
			s.notifications[i] = notification
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (s *notificationRepositoryStub) ListNotifications(ctx context.Context, recipientID string) ([]persistence.Notification, error) {
	out := make([]persistence.Notification, 0, len(s.notifications))
	for _, notification := range s.notifications {
		if recipientID == "" || notification.RecipientID == recipientID {
			out = append(out, notification)
		}
	}
	return out, nil
}

func (s *notificationRepositoryStub) DeleteNotification(ctx context.Context, id string) error {
	for i, notification := range s.notifications {
		if notification.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

type welfareRepositoryStub struct {
	lockers          map[string]persistence.Locker
	sessions         []persistence.TrainingSession
	createSessionErr error
	listErr          error
}

func newWelfareRepositoryStub() *welfareRepositoryStub {
	return &welfareRepositoryStub{lockers: make(map[string]persistence.Locker)}
}

func (s *welfareRepositoryStub) CreateLocker(ctx context.Context, locker persistence.Locker) error {
	s.lockers[locker.ID] = locker
	return nil
}

func (s *welfareRepositoryStub) UpdateLocker(ctx context.Context, locker persistence.Locker) error {
	if _, ok := s.lockers[locker.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.lockers[locker.ID] = locker
	return nil
}

func (s *welfareRepositoryStub) GetLocker(ctx context.Context, id string) (persistence.Locker, error) {
	locker, ok := s.lockers[id]
	if !ok {
		return persistence.Locker{}, persistence.ErrNotFound
	}
	return locker, nil
}

func (s *welfareRepositoryStub) ListLockers(ctx context.Context) ([]persistence.Locker, error) {
	out := make([]persistence.Locker, 0, len(s.lockers))
	for _, locker := range s.lockers {
		out = append(out, locker)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *welfareRepositoryStub) CreateTrainingSession(ctx context.Context, session persistence.TrainingSession) error {
	if s.createSessionErr != nil {
		return s.createSessionErr
	}
	for _, existing := range s.sessions {
		if existing.Date == session.Date && existing.Slot == session.Slot {
			return persistence.ErrDuplicate
		}
	}
	s.sessions = append(s.sessions, session)
	return nil
}

func (s *welfareRepositoryStub) ListTrainingSessions(ctx context.Context, date string) ([]persistence.TrainingSession, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]persistence.TrainingSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		if date == "" || session.Date == date {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *welfareRepositoryStub) DeleteTrainingSession(ctx context.Context, id string) error {
	for i, session := range s.sessions {
		if session.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

type eventRepositoryStub struct {
	events    map[string]persistence.CalendarEvent
	deleted   []string
	createErr error
}

func newEventRepositoryStub() *eventRepositoryStub {
	return &eventRepositoryStub{events: make(map[string]persistence.CalendarEvent)}
}

func (s *eventRepositoryStub) CreateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.events[event.ID] = event
	return nil
}

func (s *eventRepositoryStub) UpdateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	if _, ok := s.events[event.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.events[event.ID] = event
	return nil
}

func (s *eventRepositoryStub) GetEvent(ctx context.Context, id string) (persistence.CalendarEvent, error) {
	event, ok := s.events[id]
	if !ok {
		return persistence.CalendarEvent{}, persistence.ErrNotFound
	}
	return event, nil
}

func (s *eventRepositoryStub) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.CalendarEvent, error) {
	out := make([]persistence.CalendarEvent, 0, len(s.events))
	for _, event := range s.events {
		if filter.OwnerID != "" && event.OwnerID != filter.OwnerID {
			continue
		}
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *eventRepositoryStub) DeleteEvent(ctx context.Context, id string) error {
	if _, ok := s.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.events, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type approvalRepositoryStub struct {
	expenses  map[string]persistence.ExpenseItem
	requests  map[string]persistence.ApprovalRequest
	createErr error
	updateErr error
}

func newApprovalRepositoryStub() *approvalRepositoryStub {
	return &approvalRepositoryStub{
		expenses: make(map[string]persistence.ExpenseItem),
		requests: make(map[string]persistence.ApprovalRequest),
	}
}

func (s *approvalRepositoryStub) seedRequest(request persistence.ApprovalRequest) {
	s.requests[request.ID] = request
}

func (s *approvalRepositoryStub) CreateExpense(ctx context.Context, expense persistence.ExpenseItem) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.expenses[expense.ID] = expense
	return nil
}

func (s *approvalRepositoryStub) GetExpense(ctx context.Context, id string) (persistence.ExpenseItem, error) {
	expense, ok := s.expenses[id]
	if !ok {
		return persistence.ExpenseItem{}, persistence.ErrNotFound
	}
	return expense, nil
}

func (s *approvalRepositoryStub) ListExpenses(ctx context.Context, applicantID string) ([]persistence.ExpenseItem, error) {
	out := make([]persistence.ExpenseItem, 0, len(s.expenses))
	for _, expense := range s.expenses {
		if applicantID == "" || expense.ApplicantID == applicantID {
			out = append(out, expense)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *approvalRepositoryStub) CreateRequest(ctx context.Context, request persistence.ApprovalRequest) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.requests[request.ID] = request
	return nil
}

func (s *approvalRepositoryStub) UpdateRequest(ctx context.Context, request persistence.ApprovalRequest) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.requests[request.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.requests[request.ID] = request
	return nil
}

func (s *approvalRepositoryStub) GetRequest(ctx context.Context, id string) (persistence.ApprovalRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return persistence.ApprovalRequest{}, persistence.ErrNotFound
	}
	return request, nil
}

func (s *approvalRepositoryStub) ListRequests(ctx context.Context, applicantID string) ([]persistence.ApprovalRequest, error) {
	out := make([]persistence.ApprovalRequest, 0, len(s.requests))
	for _, request := range s.requests {
		if applicantID == "" || request.ApplicantID == applicantID {
			out = append(out, request)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
