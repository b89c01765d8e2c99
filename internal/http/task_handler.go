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

type taskService interface {
	CreateTodo(ctx context.Context, principal application.Principal, input application.TodoInput) (persistence.PersonalTodo, error)
	UpdateTodo(ctx context.Context, principal application.Principal, todoID string, input application.TodoInput) (persistence.PersonalTodo, error)
	ListTodos(ctx context.Context, principal application.Principal) ([]persistence.PersonalTodo, error)
	DeleteTodo(ctx context.Context, principal application.Principal, todoID string) error
	CreateBoardGroup(ctx context.Context, principal application.Principal, projectID string, input application.BoardGroupInput) (persistence.BoardGroup, error)
	UpdateBoardGroup(ctx context.Context, principal application.Principal, groupID string, input application.BoardGroupInput) (persistence.BoardGroup, error)
	DeleteBoardGroup(ctx context.Context, principal application.Principal, groupID string) error
	CreateBoardTask(ctx context.Context, principal application.Principal, projectID string, input application.BoardTaskInput) (persistence.BoardTask, error)
	UpdateBoardTask(ctx context.Context, principal application.Principal, taskID string, input application.BoardTaskInput) (persistence.BoardTask, error)
	DeleteBoardTask(ctx context.Context, principal application.Principal, taskID string) error
	ListBoard(ctx context.Context, principal application.Principal, projectID string) ([]persistence.BoardGroup, []persistence.BoardTask, error)
}

type TaskHandler struct {
	service   taskService
	responder responder
	logger    *slog.Logger
}

func NewTaskHandler(service taskService, logger *slog.Logger) *TaskHandler {
	base := defaultLogger(logger)
	return &TaskHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TaskHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TaskHandler", operation, attrs...)
}

func (h *TaskHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateTodo", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode todo request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "CreateTodo", "principal_id", principal.UserID)

	todo, err := h.service.CreateTodo(r.Context(), principal, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "todo creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("todo_id", todo.ID).InfoContext(r.Context(), "todo created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, todoResponse{Todo: toTodoDTO(todo)})
}

func (h *TaskHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	todoID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(todoID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateTodo", "principal_id", principal.UserID, "todo_id", todoID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode todo update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "UpdateTodo", "principal_id", principal.UserID, "todo_id", todoID)

	todo, err := h.service.UpdateTodo(r.Context(), principal, todoID, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "todo update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "todo updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, todoResponse{Todo: toTodoDTO(todo)})
}

func (h *TaskHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	todos, err := h.service.ListTodos(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListTodos", "principal_id", principal.UserID).ErrorContext(r.Context(), "todo list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTodosResponse{Todos: toTodoDTOs(todos)})
}

func (h *TaskHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	todoID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(todoID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteTodo", "principal_id", principal.UserID, "todo_id", todoID)
	if err := h.service.DeleteTodo(r.Context(), principal, todoID); err != nil {
		logger.ErrorContext(r.Context(), "todo delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "todo deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TaskHandler) ListBoard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(projectID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	groups, tasks, err := h.service.ListBoard(r.Context(), principal, projectID)
	if err != nil {
		h.log(r.Context(), "ListBoard", "project_id", projectID).ErrorContext(r.Context(), "board list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, boardResponse{
		Groups: toBoardGroupDTOs(groups),
		Tasks:  toBoardTaskDTOs(tasks),
	})
}

func (h *TaskHandler) CreateBoardGroup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(projectID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req boardGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateBoardGroup", "project_id", projectID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode group request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateBoardGroup", "principal_id", principal.UserID, "project_id", projectID)

	group, err := h.service.CreateBoardGroup(r.Context(), principal, projectID, application.BoardGroupInput{
		Name:     strings.TrimSpace(req.Name),
		Position: req.Position,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "group creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("group_id", group.ID).InfoContext(r.Context(), "board group created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, boardGroupResponse{Group: toBoardGroupDTO(group)})
}

func (h *TaskHandler) UpdateBoardGroup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req boardGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateBoardGroup", "group_id", groupID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode group update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateBoardGroup", "principal_id", principal.UserID, "group_id", groupID)

	group, err := h.service.UpdateBoardGroup(r.Context(), principal, groupID, application.BoardGroupInput{
		Name:     strings.TrimSpace(req.Name),
		Position: req.Position,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "group update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "board group updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, boardGroupResponse{Group: toBoardGroupDTO(group)})
}

func (h *TaskHandler) DeleteBoardGroup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteBoardGroup", "principal_id", principal.UserID, "group_id", groupID)
	if err := h.service.DeleteBoardGroup(r.Context(), principal, groupID); err != nil {
		logger.ErrorContext(r.Context(), "group delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "board group deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TaskHandler) CreateBoardTask(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(projectID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req boardTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateBoardTask", "project_id", projectID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode task request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "CreateBoardTask", "principal_id", principal.UserID, "project_id", projectID)

	task, err := h.service.CreateBoardTask(r.Context(), principal, projectID, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "task creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("task_id", task.ID).InfoContext(r.Context(), "board task created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, boardTaskResponse{Task: toBoardTaskDTO(task)})
}

func (h *TaskHandler) UpdateBoardTask(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(taskID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req boardTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateBoardTask", "task_id", taskID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode task update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "UpdateBoardTask", "principal_id", principal.UserID, "task_id", taskID)

	task, err := h.service.UpdateBoardTask(r.Context(), principal, taskID, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "task update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "board task updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, boardTaskResponse{Task: toBoardTaskDTO(task)})
}

func (h *TaskHandler) DeleteBoardTask(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(taskID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteBoardTask", "principal_id", principal.UserID, "task_id", taskID)
	if err := h.service.DeleteBoardTask(r.Context(), principal, taskID); err != nil {
		logger.ErrorContext(r.Context(), "task delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "board task deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type todoRequest struct {
	Title     string  `json:"title"`
	DueOn     *string `json:"due_on"`
	Status    string  `json:"status"`
	Important bool    `json:"important"`
}

func (r todoRequest) toInput() (application.TodoInput, error) {
	dueOn, err := parseOptionalDateField(r.DueOn)
	if err != nil {
		return application.TodoInput{}, err
	}
	return application.TodoInput{
		Title:     strings.TrimSpace(r.Title),
		DueOn:     dueOn,
		Status:    strings.TrimSpace(r.Status),
		Important: r.Important,
	}, nil
}

type todoResponse struct {
	Todo todoDTO `json:"todo"`
}

type listTodosResponse struct {
	Todos []todoDTO `json:"todos"`
}

type todoDTO struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	DueOn     *string `json:"due_on,omitempty"`
	Status    string  `json:"status"`
	Important bool    `json:"important"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toTodoDTO(todo persistence.PersonalTodo) todoDTO {
	dto := todoDTO{
		ID:        todo.ID,
		Title:     todo.Title,
		Status:    todo.Status,
		Important: todo.Important,
		CreatedAt: todo.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: todo.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if todo.DueOn != nil {
		dueOn := todo.DueOn.UTC().Format("2006-01-02")
		dto.DueOn = &dueOn
	}
	return dto
}

func toTodoDTOs(todos []persistence.PersonalTodo) []todoDTO {
	if len(todos) == 0 {
		return nil
	}
	out := make([]todoDTO, 0, len(todos))
	for _, todo := range todos {
		out = append(out, toTodoDTO(todo))
	}
	return out
}

type boardGroupRequest struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type boardGroupResponse struct {
	Group boardGroupDTO `json:"group"`
}

type boardGroupDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

func toBoardGroupDTO(group persistence.BoardGroup) boardGroupDTO {
	return boardGroupDTO{
		ID:        group.ID,
		ProjectID: group.ProjectID,
		Name:      group.Name,
		Position:  group.Position,
	}
}

func toBoardGroupDTOs(groups []persistence.BoardGroup) []boardGroupDTO {
	if len(groups) == 0 {
		return nil
	}
	out := make([]boardGroupDTO, 0, len(groups))
	for _, group := range groups {
		out = append(out, toBoardGroupDTO(group))
	}
	return out
}

type boardTaskRequest struct {
	GroupID    string  `json:"group_id"`
	Title      string  `json:"title"`
	AssigneeID *string `json:"assignee_id"`
	DueOn      *string `json:"due_on"`
	Status     string  `json:"status"`
}

func (r boardTaskRequest) toInput() (application.BoardTaskInput, error) {
	dueOn, err := parseOptionalDateField(r.DueOn)
	if err != nil {
		return application.BoardTaskInput{}, err
	}
	return application.BoardTaskInput{
		GroupID:    strings.TrimSpace(r.GroupID),
		Title:      strings.TrimSpace(r.Title),
		AssigneeID: r.AssigneeID,
		DueOn:      dueOn,
		Status:     strings.TrimSpace(r.Status),
	}, nil
}

type boardTaskResponse struct {
	Task boardTaskDTO `json:"task"`
}

type boardResponse struct {
	Groups []boardGroupDTO `json:"groups"`
	Tasks  []boardTaskDTO  `json:"tasks"`
}

type boardTaskDTO struct {
	ID         string  `json:"id"`
	GroupID    string  `json:"group_id"`
	ProjectID  string  `json:"project_id"`
	Title      string  `json:"title"`
	AssigneeID *string `json:"assignee_id,omitempty"`
	DueOn      *string `json:"due_on,omitempty"`
	Status     string  `json:"status"`
}

func toBoardTaskDTO(task persistence.BoardTask) boardTaskDTO {
	dto := boardTaskDTO{
		ID:         task.ID,
		GroupID:    task.GroupID,
		ProjectID:  task.ProjectID,
		Title:      task.Title,
		AssigneeID: task.AssigneeID,
		Status:     task.Status,
	}
	if task.DueOn != nil {
		dueOn := task.DueOn.UTC().Format("2006-01-02")
		dto.DueOn = &dueOn
	}
	return dto
}

func toBoardTaskDTOs(tasks []persistence.BoardTask) []boardTaskDTO {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]boardTaskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toBoardTaskDTO(task))
	}
	return out
}
