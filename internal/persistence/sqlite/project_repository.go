package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/workdesk/internal/persistence"
)

// ProjectRepository implements persistence.ProjectRepository using SQLite.
// Deleting a project archives it; archived rows are filtered out of reads.
type ProjectRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewProjectRepository creates a new SQLite project repository.
func NewProjectRepository(pool *ConnectionPool) *ProjectRepository {
	return &ProjectRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const projectColumns = "id, name, description, status, starts_on, ends_on, archived, created_at, updated_at"

// CreateProject inserts a project and its member list in one transaction.
func (r *ProjectRepository) CreateProject(ctx context.Context, project persistence.Project) error {
	if project.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO projects (` + projectColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.helper.ExecTx(tx, query,
			project.ID,
			project.Name,
			nullString(project.Description),
			project.Status,
			formatTime(project.StartsOn),
			formatNullTime(project.EndsOn),
			project.Archived,
			formatTime(project.CreatedAt),
			formatTime(project.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.replaceMembersTx(tx, project.ID, project.MemberIDs)
	})
}

// UpdateProject rewrites the project row and member list.
func (r *ProjectRepository) UpdateProject(ctx context.Context, project persistence.Project) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE projects
			SET name = ?, description = ?, status = ?, starts_on = ?, ends_on = ?, updated_at = ?
			WHERE id = ? AND archived = 0
		`
		result, err := r.helper.ExecTx(tx, query,
			project.Name,
			nullString(project.Description),
			project.Status,
			formatTime(project.StartsOn),
			formatNullTime(project.EndsOn),
			formatTime(project.UpdatedAt),
			project.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if err := requireRowsAffected(result); err != nil {
			return err
		}
		if _, err := r.helper.ExecTx(tx, `DELETE FROM project_members WHERE project_id = ?`, project.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.replaceMembersTx(tx, project.ID, project.MemberIDs)
	})
}

// GetProject retrieves an active project with its member list.
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	if id == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ? AND archived = 0`, id)
	project, err := r.scanProject(row)
	if err != nil {
		return persistence.Project{}, err
	}
	project.MemberIDs, err = r.listMembers(ctx, id)
	if err != nil {
		return persistence.Project{}, err
	}
	return project, nil
}

// ListProjects returns active projects ordered by creation timestamp then ID.
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE archived = 0 ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var projects []persistence.Project
	for rows.Next() {
		project, err := r.scanProjectRows(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range projects {
		projects[i].MemberIDs, err = r.listMembers(ctx, projects[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// DeleteProject archives the project rather than removing the row.
func (r *ProjectRepository) DeleteProject(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `UPDATE projects SET archived = 1 WHERE id = ? AND archived = 0`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

func (r *ProjectRepository) replaceMembersTx(tx *sql.Tx, projectID string, memberIDs []string) error {
	seen := make(map[string]struct{}, len(memberIDs))
	for _, memberID := range memberIDs {
		if _, ok := seen[memberID]; ok {
			continue
		}
		seen[memberID] = struct{}{}
		if _, err := r.helper.ExecTx(tx, `INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`, projectID, memberID); err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *ProjectRepository) listMembers(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.helper.Query(ctx, `SELECT user_id FROM project_members WHERE project_id = ? ORDER BY user_id ASC`, projectID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var memberIDs []string
	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		memberIDs = append(memberIDs, memberID)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return memberIDs, nil
}

func (r *ProjectRepository) scanProject(row *sql.Row) (persistence.Project, error) {
	var project persistence.Project
	var description, endsOn sql.NullString
	var startsOn, createdAt, updatedAt string

	err := row.Scan(
		&project.ID,
		&project.Name,
		&description,
		&project.Status,
		&startsOn,
		&endsOn,
		&project.Archived,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Project{}, persistence.ErrNotFound
		}
		return persistence.Project{}, r.mapper.MapError(err)
	}
	return r.finishProject(project, description, startsOn, endsOn, createdAt, updatedAt)
}

func (r *ProjectRepository) scanProjectRows(rows *sql.Rows) (persistence.Project, error) {
	var project persistence.Project
	var description, endsOn sql.NullString
	var startsOn, createdAt, updatedAt string

	err := rows.Scan(
		&project.ID,
		&project.Name,
		&description,
		&project.Status,
		&startsOn,
		&endsOn,
		&project.Archived,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Project{}, r.mapper.MapError(err)
	}
	return r.finishProject(project, description, startsOn, endsOn, createdAt, updatedAt)
}

func (r *ProjectRepository) finishProject(project persistence.Project, description sql.NullString, startsOn string, endsOn sql.NullString, createdAt, updatedAt string) (persistence.Project, error) {
	var err error
	project.Description = fromNullString(description)
	if project.StartsOn, err = parseTime(startsOn, "starts_on"); err != nil {
		return persistence.Project{}, err
	}
	if project.EndsOn, err = parseNullTime(endsOn, "ends_on"); err != nil {
		return persistence.Project{}, err
	}
	if project.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Project{}, err
	}
	if project.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Project{}, err
	}
	return project, nil
}
