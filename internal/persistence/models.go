package persistence

import "time"

// User represents an employee account in the workdesk domain.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Department   string
	Role         string
	PasswordHash string
	IsAdmin      bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// Project represents a unit of work with a member list and a date range.
// Archived marks soft-deleted projects; the in-memory store never hard-deletes.
type Project struct {
	ID          string
	Name        string
	Description *string
	Status      string
	StartsOn    time.Time
	EndsOn      *time.Time
	MemberIDs   []string
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CalendarEvent represents a scheduled item tied to an owner and optional project.
// Source distinguishes app-created, externally imported, and welfare-derived events.
type CalendarEvent struct {
	ID        string
	OwnerID   string
	ProjectID *string
	Title     string
	Start     time.Time
	End       time.Time
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatRoom is a conversation scoped to a project or a direct pair of users.
type ChatRoom struct {
	ID        string
	Name      string
	ProjectID *string
	MemberIDs []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage is an append-only log entry within a room.
type ChatMessage struct {
	ID        string
	RoomID    string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// Notification is a derived per-recipient record pointing back at its source.
type Notification struct {
	ID          string
	RecipientID string
	Kind        string
	RoomID      string
	MessageID   string
	Body        string
	Read        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PersonalTodo is a task-like record owned by a single user. Important
// subsumes the pinned-note variant of the original product.
type PersonalTodo struct {
	ID        string
	OwnerID   string
	Title     string
	DueOn     *time.Time
	Status    string
	Important bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BoardGroup is an ordered column on a project board.
type BoardGroup struct {
	ID        string
	ProjectID string
	Name      string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BoardTask is a card within a board group.
type BoardTask struct {
	ID         string
	GroupID    string
	ProjectID  string
	Title      string
	AssigneeID *string
	DueOn      *time.Time
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ExpenseItem records a single expense submitted for approval.
type ExpenseItem struct {
	ID          string
	ApplicantID string
	Category    string
	AmountMinor int64
	IncurredOn  time.Time
	Memo        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApprovalStep is one entry in a request's ordered approval chain.
type ApprovalStep struct {
	ApproverID string
	Status     string
	Reason     *string
	DecidedAt  *time.Time
}

// ApprovalRequest holds an ordered list of steps advanced strictly in order.
type ApprovalRequest struct {
	ID          string
	ExpenseID   string
	ApplicantID string
	Steps       []ApprovalStep
	CurrentStep int
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Locker is a welfare resource with at most one assignee.
type Locker struct {
	ID         string
	Label      string
	AssigneeID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TrainingSession occupies a single date+slot; at most one session may exist
// per date+slot pair.
type TrainingSession struct {
	ID        string
	UserID    string
	Date      string
	Slot      string
	EventID   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttendanceRecord captures a check-in (and optional check-out) with the
// coordinates and best-effort reverse-geocoded address of the device.
type AttendanceRecord struct {
	ID        string
	UserID    string
	Date      string
	CheckIn   time.Time
	CheckOut  *time.Time
	Latitude  float64
	Longitude float64
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
