package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/workdesk/internal/persistence"
)

// BoardRepository implements persistence.BoardRepository using SQLite.
type BoardRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBoardRepository creates a new SQLite board repository.
func NewBoardRepository(pool *ConnectionPool) *BoardRepository {
	return &BoardRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const groupColumns = "id, project_id, name, position, created_at, updated_at"
const taskColumns = "id, group_id, project_id, title, assignee_id, due_on, status, created_at, updated_at"

// CreateGroup inserts a board column.
func (r *BoardRepository) CreateGroup(ctx context.Context, group persistence.BoardGroup) error {
	if group.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO board_groups (` + groupColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		group.ID,
		group.ProjectID,
		group.Name,
		group.Position,
		formatTime(group.CreatedAt),
		formatTime(group.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateGroup rewrites a board column.
func (r *BoardRepository) UpdateGroup(ctx context.Context, group persistence.BoardGroup) error {
	query := `
		UPDATE board_groups
		SET name = ?, position = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		group.Name,
		group.Position,
		formatTime(group.UpdatedAt),
		group.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// ListGroups returns a project's board columns ordered by position.
func (r *BoardRepository) ListGroups(ctx context.Context, projectID string) ([]persistence.BoardGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM board_groups ORDER BY position ASC, id ASC`
	args := []interface{}{}
	if projectID != "" {
		query = `SELECT ` + groupColumns + ` FROM board_groups WHERE project_id = ? ORDER BY position ASC, id ASC`
		args = append(args, projectID)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var groups []persistence.BoardGroup
	for rows.Next() {
		var group persistence.BoardGroup
		var createdAt, updatedAt string

		if err := rows.Scan(&group.ID, &group.ProjectID, &group.Name, &group.Position, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if group.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if group.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return groups, nil
}

// DeleteGroup removes a board column; its tasks cascade.
func (r *BoardRepository) DeleteGroup(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM board_groups WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// CreateTask inserts a board card.
func (r *BoardRepository) CreateTask(ctx context.Context, task persistence.BoardTask) error {
	if task.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO board_tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		task.ID,
		task.GroupID,
		task.ProjectID,
		task.Title,
		nullString(task.AssigneeID),
		formatNullTime(task.DueOn),
		task.Status,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateTask rewrites a board card, including moves between groups.
func (r *BoardRepository) UpdateTask(ctx context.Context, task persistence.BoardTask) error {
	query := `
		UPDATE board_tasks
		SET group_id = ?, title = ?, assignee_id = ?, due_on = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		task.GroupID,
		task.Title,
		nullString(task.AssigneeID),
		formatNullTime(task.DueOn),
		task.Status,
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// GetTask retrieves a board card by ID.
func (r *BoardRepository) GetTask(ctx context.Context, id string) (persistence.BoardTask, error) {
	if id == "" {
		return persistence.BoardTask{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+taskColumns+` FROM board_tasks WHERE id = ?`, id)

	var task persistence.BoardTask
	var assigneeID, dueOn sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&task.ID, &task.GroupID, &task.ProjectID, &task.Title, &assigneeID, &dueOn, &task.Status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.BoardTask{}, persistence.ErrNotFound
		}
		return persistence.BoardTask{}, r.mapper.MapError(err)
	}
	task.AssigneeID = fromNullString(assigneeID)
	if task.DueOn, err = parseNullTime(dueOn, "due_on"); err != nil {
		return persistence.BoardTask{}, err
	}
	if task.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.BoardTask{}, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.BoardTask{}, err
	}
	return task, nil
}

// ListTasks returns a project's board cards in creation order.
func (r *BoardRepository) ListTasks(ctx context.Context, projectID string) ([]persistence.BoardTask, error) {
	query := `SELECT ` + taskColumns + ` FROM board_tasks ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	if projectID != "" {
		query = `SELECT ` + taskColumns + ` FROM board_tasks WHERE project_id = ? ORDER BY created_at ASC, id ASC`
		args = append(args, projectID)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var tasks []persistence.BoardTask
	for rows.Next() {
		var task persistence.BoardTask
		var assigneeID, dueOn sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&task.ID, &task.GroupID, &task.ProjectID, &task.Title, &assigneeID, &dueOn, &task.Status, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		task.AssigneeID = fromNullString(assigneeID)
		if task.DueOn, err = parseNullTime(dueOn, "due_on"); err != nil {
			return nil, err
		}
		if task.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if task.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return tasks, nil
}

// DeleteTask removes a board card by ID.
func (r *BoardRepository) DeleteTask(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM board_tasks WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}
