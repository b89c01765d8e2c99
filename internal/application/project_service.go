package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

// Project statuses.
const (
	ProjectStatusPlanned = "planned"
	ProjectStatusActive  = "active"
	ProjectStatusPaused  = "paused"
	ProjectStatusDone    = "done"
)

// ProjectService manages projects and their membership.
type ProjectService struct {
	projects    persistence.ProjectRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewProjectService constructs a ProjectService with the provided dependencies.
func NewProjectService(projects persistence.ProjectRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ProjectService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ProjectService{
		projects:    projects,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ProjectService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProjectService", operation, attrs...)
}

// CreateProject creates a project; the creator is always a member.
func (s *ProjectService) CreateProject(ctx context.Context, principal Principal, input ProjectInput) (project persistence.Project, err error) {
	if s == nil {
		err = fmt.Errorf("ProjectService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateProject", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "project creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("project_id", project.ID).InfoContext(ctx, "project created")
	}()

	if err = validateProjectInput(input); err != nil {
		return
	}

	memberIDs := input.MemberIDs
	if !containsID(memberIDs, principal.UserID) {
		memberIDs = append(append([]string{}, memberIDs...), principal.UserID)
	}

	now := s.now()
	project = persistence.Project{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Status:      input.Status,
		StartsOn:    input.StartsOn,
		EndsOn:      input.EndsOn,
		MemberIDs:   memberIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = mapRepoError("create project", s.projects.CreateProject(ctx, project)); err != nil {
		project = persistence.Project{}
	}
	return
}

// UpdateProject rewrites a project. Admins or members only.
func (s *ProjectService) UpdateProject(ctx context.Context, principal Principal, projectID string, input ProjectInput) (project persistence.Project, err error) {
	if s == nil {
		err = fmt.Errorf("ProjectService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateProject", "principal_id", principal.UserID, "project_id", projectID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "project update failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	project, err = s.projects.GetProject(ctx, projectID)
	if err != nil {
		err = mapRepoError("update project", err)
		return
	}
	if !principal.IsAdmin && !containsID(project.MemberIDs, principal.UserID) {
		err = ErrUnauthorized
		project = persistence.Project{}
		return
	}
	if err = validateProjectInput(input); err != nil {
		project = persistence.Project{}
		return
	}

	project.Name = strings.TrimSpace(input.Name)
	project.Description = input.Description
	project.Status = input.Status
	project.StartsOn = input.StartsOn
	project.EndsOn = input.EndsOn
	project.MemberIDs = input.MemberIDs
	project.UpdatedAt = s.now()

	if err = mapRepoError("update project", s.projects.UpdateProject(ctx, project)); err != nil {
		project = persistence.Project{}
	}
	return
}

// GetProject returns a single project.
func (s *ProjectService) GetProject(ctx context.Context, principal Principal, projectID string) (persistence.Project, error) {
	if s == nil {
		return persistence.Project{}, fmt.Errorf("ProjectService is nil")
	}
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return persistence.Project{}, mapRepoError("get project", err)
	}
	return project, nil
}

// ListProjects returns all active projects.
func (s *ProjectService) ListProjects(ctx context.Context, principal Principal) ([]persistence.Project, error) {
	if s == nil {
		return nil, fmt.Errorf("ProjectService is nil")
	}
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, mapRepoError("list projects", err)
	}
	return projects, nil
}

// DeleteProject archives a project. Admin only.
func (s *ProjectService) DeleteProject(ctx context.Context, principal Principal, projectID string) error {
	if s == nil {
		return fmt.Errorf("ProjectService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteProject", "principal_id", principal.UserID, "project_id", projectID)
	if err := mapRepoError("delete project", s.projects.DeleteProject(ctx, projectID)); err != nil {
		logger.ErrorContext(ctx, "project deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "project archived")
	return nil
}

func validateProjectInput(input ProjectInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "프로젝트 이름을 입력해 주세요")
	}
	switch input.Status {
	case ProjectStatusPlanned, ProjectStatusActive, ProjectStatusPaused, ProjectStatusDone:
	default:
		vErr.add("status", "프로젝트 상태가 올바르지 않습니다")
	}
	if input.StartsOn.IsZero() {
		vErr.add("startsOn", "시작일을 입력해 주세요")
	}
	if input.EndsOn != nil && input.EndsOn.Before(input.StartsOn) {
		vErr.add("endsOn", "종료일은 시작일 이후여야 합니다")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
