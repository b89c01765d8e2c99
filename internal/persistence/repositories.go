package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// ProjectRepository exposes CRUD operations for projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project Project) error
	UpdateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// EventFilter narrows calendar event queries.
type EventFilter struct {
	OwnerID     string
	ProjectID   *string
	StartsAfter *time.Time
	EndsBefore  *time.Time
	Source      string
}

// EventRepository stores calendar events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event CalendarEvent) error
	UpdateEvent(ctx context.Context, event CalendarEvent) error
	GetEvent(ctx context.Context, id string) (CalendarEvent, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]CalendarEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ChatRepository stores rooms and their append-only message logs.
type ChatRepository interface {
	CreateRoom(ctx context.Context, room ChatRoom) error
	GetRoom(ctx context.Context, id string) (ChatRoom, error)
	ListRooms(ctx context.Context, memberID string) ([]ChatRoom, error)
	DeleteRoom(ctx context.Context, id string) error

	AppendMessage(ctx context.Context, message ChatMessage) error
	GetMessage(ctx context.Context, id string) (ChatMessage, error)
	ListMessages(ctx context.Context, roomID string) ([]ChatMessage, error)
	DeleteMessage(ctx context.Context, id string) error
}

// NotificationRepository stores derived notification records.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	UpdateNotification(ctx context.Context, notification Notification) error
	ListNotifications(ctx context.Context, recipientID string) ([]Notification, error)
	DeleteNotification(ctx context.Context, id string) error
}

// TodoRepository stores personal todos.
type TodoRepository interface {
	CreateTodo(ctx context.Context, todo PersonalTodo) error
	UpdateTodo(ctx context.Context, todo PersonalTodo) error
	GetTodo(ctx context.Context, id string) (PersonalTodo, error)
	ListTodos(ctx context.Context, ownerID string) ([]PersonalTodo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// BoardRepository stores board groups and tasks for project boards.
type BoardRepository interface {
	CreateGroup(ctx context.Context, group BoardGroup) error
	UpdateGroup(ctx context.Context, group BoardGroup) error
	ListGroups(ctx context.Context, projectID string) ([]BoardGroup, error)
	DeleteGroup(ctx context.Context, id string) error

	CreateTask(ctx context.Context, task BoardTask) error
	UpdateTask(ctx context.Context, task BoardTask) error
	GetTask(ctx context.Context, id string) (BoardTask, error)
	ListTasks(ctx context.Context, projectID string) ([]BoardTask, error)
	DeleteTask(ctx context.Context, id string) error
}

// ApprovalRepository stores expenses and their approval requests.
type ApprovalRepository interface {
	CreateExpense(ctx context.Context, expense ExpenseItem) error
	GetExpense(ctx context.Context, id string) (ExpenseItem, error)
	ListExpenses(ctx context.Context, applicantID string) ([]ExpenseItem, error)

	CreateRequest(ctx context.Context, request ApprovalRequest) error
	UpdateRequest(ctx context.Context, request ApprovalRequest) error
	GetRequest(ctx context.Context, id string) (ApprovalRequest, error)
	ListRequests(ctx context.Context, applicantID string) ([]ApprovalRequest, error)
}

// WelfareRepository stores lockers and training session bookings.
type WelfareRepository interface {
	CreateLocker(ctx context.Context, locker Locker) error
	UpdateLocker(ctx context.Context, locker Locker) error
	GetLocker(ctx context.Context, id string) (Locker, error)
	ListLockers(ctx context.Context) ([]Locker, error)

	CreateTrainingSession(ctx context.Context, session TrainingSession) error
	ListTrainingSessions(ctx context.Context, date string) ([]TrainingSession, error)
	DeleteTrainingSession(ctx context.Context, id string) error
}

// AttendanceRepository stores attendance check-in/out records.
type AttendanceRepository interface {
	CreateAttendance(ctx context.Context, record AttendanceRecord) error
	UpdateAttendance(ctx context.Context, record AttendanceRecord) error
	GetOpenAttendance(ctx context.Context, userID, date string) (AttendanceRecord, error)
	ListAttendance(ctx context.Context, userID string) ([]AttendanceRecord, error)
}
