package project

import (
	"context"

	"github.com/google/uuid"

	"github.com/nvoronin/taskdeck/internal/models"
	"github.com/nvoronin/taskdeck/internal/repository"
)

const defaultPageSize = 20

type ProjectService struct {
	projectRepo repository.ProjectRepo
}

func NewService(projectRepo repository.ProjectRepo) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

func (s *ProjectService) Create(ctx context.Context, project models.Project) (models.Project, error) {
	if project.Status == "" {
		project.Status = models.ProjectStatusPlanned
	}
	if project.Priority == "" {
		project.Priority = models.PriorityMedium
	}
	project.Progress = 0

	return s.projectRepo.CreateProject(ctx, project)
}

func (s *ProjectService) Get(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID) (models.Project, error) {
	return s.projectRepo.GetProject(ctx, projectID, authorID)
}

type ListParams struct {
	Search   string
	Status   string
	Priority string
	Page     int
	Limit    int
}

// List returns one page of the author's projects and the total number of
// matches, so clients can render pagination
func (s *ProjectService) List(ctx context.Context, authorID uuid.UUID, params ListParams) ([]models.Project, int64, error) {
	if params.Limit <= 0 {
		params.Limit = defaultPageSize
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	return s.projectRepo.ListProjects(ctx, authorID, repository.ListProjectsParams{
		Search:   params.Search,
		Status:   params.Status,
		Priority: params.Priority,
		Limit:    params.Limit,
		Offset:   (params.Page - 1) * params.Limit,
	})
}

func (s *ProjectService) Update(ctx context.Context, project models.Project) (models.Project, error) {
	return s.projectRepo.UpdateProject(ctx, project)
}

func (s *ProjectService) Delete(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID) error {
	return s.projectRepo.DeleteProject(ctx, projectID, authorID)
}
