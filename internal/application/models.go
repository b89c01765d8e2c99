package application

import "time"

// Principal identifies the authenticated caller of a service operation.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// CreateUserInput carries the fields needed to register a user.
type CreateUserInput struct {
	Email       string
	DisplayName string
	Department  string
	Role        string
	Password    string
	IsAdmin     bool
}

// UpdateUserInput carries the mutable user fields. Nil pointers leave the
// stored value unchanged.
type UpdateUserInput struct {
	Email       *string
	DisplayName *string
	Department  *string
	Role        *string
	Password    *string
	IsAdmin     *bool
	Disabled    *bool
}

// ProjectInput carries the fields of a project create or update.
type ProjectInput struct {
	Name        string
	Description *string
	Status      string
	StartsOn    time.Time
	EndsOn      *time.Time
	MemberIDs   []string
}

// EventInput carries the fields of a calendar event create or update.
type EventInput struct {
	ProjectID *string
	Title     string
	Start     time.Time
	End       time.Time
	Source    string
}

// RoomInput carries the fields of a chat room create.
type RoomInput struct {
	Name      string
	ProjectID *string
	MemberIDs []string
}

// TodoInput carries the fields of a personal todo create or update.
type TodoInput struct {
	Title     string
	DueOn     *time.Time
	Status    string
	Important bool
}

// BoardGroupInput carries the fields of a board column create or update.
type BoardGroupInput struct {
	Name     string
	Position int
}

// BoardTaskInput carries the fields of a board card create or update.
type BoardTaskInput struct {
	GroupID    string
	Title      string
	AssigneeID *string
	DueOn      *time.Time
	Status     string
}

// ExpenseInput carries the fields of an expense submission.
type ExpenseInput struct {
	Category    string
	AmountMinor int64
	IncurredOn  time.Time
	Memo        *string
	ApproverIDs []string
}
