package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

// Todo and board task statuses. Statuses are toggled directly; there is no
// transition machine.
const (
	TaskStatusOpen  = "open"
	TaskStatusDoing = "doing"
	TaskStatusDone  = "done"
)

// TaskService manages personal todos and project board groups/tasks.
type TaskService struct {
	todos       persistence.TodoRepository
	boards      persistence.BoardRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskService constructs a TaskService with the provided dependencies.
func NewTaskService(todos persistence.TodoRepository, boards persistence.BoardRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TaskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		todos:       todos,
		boards:      boards,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateTodo creates a personal todo owned by the principal.
func (s *TaskService) CreateTodo(ctx context.Context, principal Principal, input TodoInput) (persistence.PersonalTodo, error) {
	if s == nil {
		return persistence.PersonalTodo{}, fmt.Errorf("TaskService is nil")
	}
	if err := validateTaskInput(input.Title, input.Status); err != nil {
		return persistence.PersonalTodo{}, err
	}

	now := s.now()
	todo := persistence.PersonalTodo{
		ID:        s.idGenerator(),
		OwnerID:   principal.UserID,
		Title:     strings.TrimSpace(input.Title),
		DueOn:     input.DueOn,
		Status:    input.Status,
		Important: input.Important,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := mapRepoError("create todo", s.todos.CreateTodo(ctx, todo)); err != nil {
		return persistence.PersonalTodo{}, err
	}
	return todo, nil
}

// UpdateTodo rewrites a todo owned by the principal.
func (s *TaskService) UpdateTodo(ctx context.Context, principal Principal, todoID string, input TodoInput) (persistence.PersonalTodo, error) {
	if s == nil {
		return persistence.PersonalTodo{}, fmt.Errorf("TaskService is nil")
	}

	todo, err := s.todos.GetTodo(ctx, todoID)
	if err != nil {
		return persistence.PersonalTodo{}, mapRepoError("update todo", err)
	}
	if todo.OwnerID != principal.UserID {
		return persistence.PersonalTodo{}, ErrUnauthorized
	}
	if err := validateTaskInput(input.Title, input.Status); err != nil {
		return persistence.PersonalTodo{}, err
	}

	todo.Title = strings.TrimSpace(input.Title)
	todo.DueOn = input.DueOn
	todo.Status = input.Status
	todo.Important = input.Important
	todo.UpdatedAt = s.now()

	if err := mapRepoError("update todo", s.todos.UpdateTodo(ctx, todo)); err != nil {
		return persistence.PersonalTodo{}, err
	}
	return todo, nil
}

// ListTodos returns the principal's todos.
func (s *TaskService) ListTodos(ctx context.Context, principal Principal) ([]persistence.PersonalTodo, error) {
	if s == nil {
		return nil, fmt.Errorf("TaskService is nil")
	}
	todos, err := s.todos.ListTodos(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError("list todos", err)
	}
	return todos, nil
}

// DeleteTodo removes a todo owned by the principal.
func (s *TaskService) DeleteTodo(ctx context.Context, principal Principal, todoID string) error {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	todo, err := s.todos.GetTodo(ctx, todoID)
	if err != nil {
		return mapRepoError("delete todo", err)
	}
	if todo.OwnerID != principal.UserID {
		return ErrUnauthorized
	}
	return mapRepoError("delete todo", s.todos.DeleteTodo(ctx, todoID))
}

// CreateBoardGroup adds a column to a project board.
func (s *TaskService) CreateBoardGroup(ctx context.Context, principal Principal, projectID string, input BoardGroupInput) (persistence.BoardGroup, error) {
	if s == nil {
		return persistence.BoardGroup{}, fmt.Errorf("TaskService is nil")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr := &ValidationError{}
		vErr.add("name", "그룹 이름을 입력해 주세요")
		return persistence.BoardGroup{}, vErr
	}

	now := s.now()
	group := persistence.BoardGroup{
		ID:        s.idGenerator(),
		ProjectID: projectID,
		Name:      strings.TrimSpace(input.Name),
		Position:  input.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := mapRepoError("create board group", s.boards.CreateGroup(ctx, group)); err != nil {
		return persistence.BoardGroup{}, err
	}
	return group, nil
}

// UpdateBoardGroup renames or repositions a column.
func (s *TaskService) UpdateBoardGroup(ctx context.Context, principal Principal, groupID string, input BoardGroupInput) (persistence.BoardGroup, error) {
	if s == nil {
		return persistence.BoardGroup{}, fmt.Errorf("TaskService is nil")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr := &ValidationError{}
		vErr.add("name", "그룹 이름을 입력해 주세요")
		return persistence.BoardGroup{}, vErr
	}

	group := persistence.BoardGroup{
		ID:        groupID,
		Name:      strings.TrimSpace(input.Name),
		Position:  input.Position,
		UpdatedAt: s.now(),
	}
	if err := mapRepoError("update board group", s.boards.UpdateGroup(ctx, group)); err != nil {
		return persistence.BoardGroup{}, err
	}
	return group, nil
}

// ListBoard returns a project's columns and cards.
func (s *TaskService) ListBoard(ctx context.Context, principal Principal, projectID string) ([]persistence.BoardGroup, []persistence.BoardTask, error) {
	if s == nil {
		return nil, nil, fmt.Errorf("TaskService is nil")
	}
	groups, err := s.boards.ListGroups(ctx, projectID)
	if err != nil {
		return nil, nil, mapRepoError("list board", err)
	}
	tasks, err := s.boards.ListTasks(ctx, projectID)
	if err != nil {
		return nil, nil, mapRepoError("list board", err)
	}
	return groups, tasks, nil
}

// DeleteBoardGroup removes a column and its cards.
func (s *TaskService) DeleteBoardGroup(ctx context.Context, principal Principal, groupID string) error {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	return mapRepoError("delete board group", s.boards.DeleteGroup(ctx, groupID))
}

// CreateBoardTask adds a card to a column.
func (s *TaskService) CreateBoardTask(ctx context.Context, principal Principal, projectID string, input BoardTaskInput) (persistence.BoardTask, error) {
	if s == nil {
		return persistence.BoardTask{}, fmt.Errorf("TaskService is nil")
	}
	if err := validateTaskInput(input.Title, input.Status); err != nil {
		return persistence.BoardTask{}, err
	}

	now := s.now()
	task := persistence.BoardTask{
		ID:         s.idGenerator(),
		GroupID:    input.GroupID,
		ProjectID:  projectID,
		Title:      strings.TrimSpace(input.Title),
		AssigneeID: input.AssigneeID,
		DueOn:      input.DueOn,
		Status:     input.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := mapRepoError("create board task", s.boards.CreateTask(ctx, task)); err != nil {
		return persistence.BoardTask{}, err
	}
	return task, nil
}

// UpdateBoardTask rewrites a card, including moves between columns.
func (s *TaskService) UpdateBoardTask(ctx context.Context, principal Principal, taskID string, input BoardTaskInput) (persistence.BoardTask, error) {
	if s == nil {
		return persistence.BoardTask{}, fmt.Errorf("TaskService is nil")
	}

	task, err := s.boards.GetTask(ctx, taskID)
	if err != nil {
		return persistence.BoardTask{}, mapRepoError("update board task", err)
	}
	if err := validateTaskInput(input.Title, input.Status); err != nil {
		return persistence.BoardTask{}, err
	}

	if input.GroupID != "" {
		task.GroupID = input.GroupID
	}
	task.Title = strings.TrimSpace(input.Title)
	task.AssigneeID = input.AssigneeID
	task.DueOn = input.DueOn
	task.Status = input.Status
	task.UpdatedAt = s.now()

	if err := mapRepoError("update board task", s.boards.UpdateTask(ctx, task)); err != nil {
		return persistence.BoardTask{}, err
	}
	return task, nil
}

// DeleteBoardTask removes a card.
func (s *TaskService) DeleteBoardTask(ctx context.Context, principal Principal, taskID string) error {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	return mapRepoError("delete board task", s.boards.DeleteTask(ctx, taskID))
}

func validateTaskInput(title, status string) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(title) == "" {
		vErr.add("title", "제목을 입력해 주세요")
	}
	switch status {
	case TaskStatusOpen, TaskStatusDoing, TaskStatusDone:
	default:
		vErr.add("status", "상태 값이 올바르지 않습니다")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
