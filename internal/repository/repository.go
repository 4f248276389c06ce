package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nvoronin/taskdeck/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, name string, email string, hashedPassword string) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Update user name and email
	// If the new email is taken by another user must return apperrors.ErrUserAlreadyExists
	UpdateUser(ctx context.Context, userID uuid.UUID, name string, email string) (models.User, error)

	// Replace user's password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save issued token
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token if it exists, even expired one
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete the token and return the deleted row in a single statement.
	// Exactly one concurrent caller may succeed for a given token value;
	// everyone else must get apperrors.ErrRefreshTokenNotFound
	Redeem(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete the token. Deleting an absent token is not an error
	Delete(ctx context.Context, tokenString string) error
}

type ListProjectsParams struct {
	// Substring match on name or description, case insensitive. Empty means no filter
	Search   string
	Status   string
	Priority string

	Limit  int
	Offset int
}

// Project repository interface
// Every read and write is scoped by the author: a project owned by someone
// else behaves exactly like a missing one
type ProjectRepo interface {
	CreateProject(ctx context.Context, project models.Project) (models.Project, error)

	// If project not found (or not owned) must return apperrors.ErrProjectNotFound
	GetProject(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID) (models.Project, error)
	ListProjects(ctx context.Context, authorID uuid.UUID, params ListProjectsParams) ([]models.Project, int64, error)
	UpdateProject(ctx context.Context, project models.Project) (models.Project, error)
	DeleteProject(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID) error
}

type ListTasksParams struct {
	Status   string
	Priority string

	Limit  int
	Offset int
}

// Task repository interface, scoped by author the same way as ProjectRepo
type TaskRepo interface {
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	// If task not found (or not owned) must return apperrors.ErrTaskNotFound
	GetTask(ctx context.Context, taskID uuid.UUID, projectID uuid.UUID, authorID uuid.UUID) (models.Task, error)
	ListTasks(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID, params ListTasksParams) ([]models.Task, int64, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID, projectID uuid.UUID, authorID uuid.UUID) error
}
