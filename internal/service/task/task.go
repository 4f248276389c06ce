package task

import (
	"context"

	"github.com/google/uuid"

	"github.com/nvoronin/taskdeck/internal/models"
	"github.com/nvoronin/taskdeck/internal/repository"
)

const defaultPageSize = 20

type TaskService struct {
	taskRepo    repository.TaskRepo
	projectRepo repository.ProjectRepo
}

func NewService(taskRepo repository.TaskRepo, projectRepo repository.ProjectRepo) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
	}
}

// Create a task inside the author's project
// The project is fetched first: a task can't be attached to a project the
// author does not own (apperrors.ErrProjectNotFound)
func (s *TaskService) Create(ctx context.Context, task models.Task) (models.Task, error) {
	if _, err := s.projectRepo.GetProject(ctx, task.ProjectID, task.AuthorID); err != nil {
		return models.Task{}, err
	}

	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	return s.taskRepo.CreateTask(ctx, task)
}

func (s *TaskService) Get(ctx context.Context, taskID uuid.UUID, projectID uuid.UUID, authorID uuid.UUID) (models.Task, error) {
	return s.taskRepo.GetTask(ctx, taskID, projectID, authorID)
}

type ListParams struct {
	Status   string
	Priority string
	Page     int
	Limit    int
}

func (s *TaskService) List(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID, params ListParams) ([]models.Task, int64, error) {
	if _, err := s.projectRepo.GetProject(ctx, projectID, authorID); err != nil {
		return nil, 0, err
	}

	if params.Limit <= 0 {
		params.Limit = defaultPageSize
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	return s.taskRepo.ListTasks(ctx, projectID, authorID, repository.ListTasksParams{
		Status:   params.Status,
		Priority: params.Priority,
		Limit:    params.Limit,
		Offset:   (params.Page - 1) * params.Limit,
	})
}

func (s *TaskService) Update(ctx context.Context, task models.Task) (models.Task, error) {
	return s.taskRepo.UpdateTask(ctx, task)
}

func (s *TaskService) Delete(ctx context.Context, taskID uuid.UUID, projectID uuid.UUID, authorID uuid.UUID) error {
	return s.taskRepo.DeleteTask(ctx, taskID, projectID, authorID)
}
