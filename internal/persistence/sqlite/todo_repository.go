package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/workdesk/internal/persistence"
)

// TodoRepository implements persistence.TodoRepository using SQLite.
type TodoRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTodoRepository creates a new SQLite todo repository.
func NewTodoRepository(pool *ConnectionPool) *TodoRepository {
	return &TodoRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const todoColumns = "id, owner_id, title, due_on, status, important, created_at, updated_at"

// CreateTodo inserts a personal todo.
func (r *TodoRepository) CreateTodo(ctx context.Context, todo persistence.PersonalTodo) error {
	if todo.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Title,
		formatNullTime(todo.DueOn),
		todo.Status,
		todo.Important,
		formatTime(todo.CreatedAt),
		formatTime(todo.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateTodo rewrites a todo row.
func (r *TodoRepository) UpdateTodo(ctx context.Context, todo persistence.PersonalTodo) error {
	query := `
		UPDATE todos
		SET title = ?, due_on = ?, status = ?, important = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		todo.Title,
		formatNullTime(todo.DueOn),
		todo.Status,
		todo.Important,
		formatTime(todo.UpdatedAt),
		todo.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// GetTodo retrieves a todo by ID.
func (r *TodoRepository) GetTodo(ctx context.Context, id string) (persistence.PersonalTodo, error) {
	if id == "" {
		return persistence.PersonalTodo{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)

	var todo persistence.PersonalTodo
	var dueOn sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&todo.ID, &todo.OwnerID, &todo.Title, &dueOn, &todo.Status, &todo.Important, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.PersonalTodo{}, persistence.ErrNotFound
		}
		return persistence.PersonalTodo{}, r.mapper.MapError(err)
	}
	if todo.DueOn, err = parseNullTime(dueOn, "due_on"); err != nil {
		return persistence.PersonalTodo{}, err
	}
	if todo.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.PersonalTodo{}, err
	}
	if todo.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.PersonalTodo{}, err
	}
	return todo, nil
}

// ListTodos returns an owner's todos in creation order.
func (r *TodoRepository) ListTodos(ctx context.Context, ownerID string) ([]persistence.PersonalTodo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	if ownerID != "" {
		query = `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = ? ORDER BY created_at ASC, id ASC`
		args = append(args, ownerID)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var todos []persistence.PersonalTodo
	for rows.Next() {
		var todo persistence.PersonalTodo
		var dueOn sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&todo.ID, &todo.OwnerID, &todo.Title, &dueOn, &todo.Status, &todo.Important, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if todo.DueOn, err = parseNullTime(dueOn, "due_on"); err != nil {
			return nil, err
		}
		if todo.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if todo.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return todos, nil
}

// DeleteTodo removes a todo by ID.
func (r *TodoRepository) DeleteTodo(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}
