package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nvoronin/taskdeck/internal/apperrors"
	"github.com/nvoronin/taskdeck/internal/models"
	"github.com/nvoronin/taskdeck/internal/repository"
)

type ProjectRepo struct {
	DB DBTX
}

const createProject = `-- name: CreateProject
INSERT INTO projects (id, author_id, name, description, status, priority, progress, due_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, author_id, name, description, status, priority, progress, due_date, created_at, updated_at
`

func (r *ProjectRepo) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createProject,
		project.ID, project.AuthorID, project.Name, project.Description,
		project.Status, project.Priority, project.Progress, project.DueDate,
	)
	saved, err := pgx.CollectOneRow(rows, rowToProject)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getProject = `-- name: GetProject
SELECT id, author_id, name, description, status, priority, progress, due_date, created_at, updated_at
FROM projects
WHERE id = $1 AND author_id = $2
`

func (r *ProjectRepo) GetProject(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID) (models.Project, error) {
	rows, _ := r.DB.Query(ctx, getProject, projectID, authorID)
	return collectProject(rows)
}

// ListProjects filters the author's projects and returns a page of them with
// the total count of matches
func (r *ProjectRepo) ListProjects(ctx context.Context, authorID uuid.UUID, params repository.ListProjectsParams) ([]models.Project, int64, error) {
	where := []string{"author_id = $1"}
	args := []any{authorID}

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if params.Status != "" {
		args = append(args, params.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Priority != "" {
		args = append(args, params.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}

	condition := strings.Join(where, " AND ")

	countQuery := "SELECT count(*) FROM projects WHERE " + condition
	rows, _ := r.DB.Query(ctx, countQuery, args...)
	total, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `
SELECT id, author_id, name, description, status, priority, progress, due_date, created_at, updated_at
FROM projects
WHERE ` + condition + `
ORDER BY created_at DESC, id`
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, _ = r.DB.Query(ctx, query, args...)
	projects, err := pgx.CollectRows(rows, rowToProject)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return projects, total, nil
}

const updateProject = `-- name: UpdateProject
UPDATE projects
SET name = $3, description = $4, status = $5, priority = $6, progress = $7, due_date = $8, updated_at = now()
WHERE id = $1 AND author_id = $2
RETURNING id, author_id, name, description, status, priority, progress, due_date, created_at, updated_at
`

func (r *ProjectRepo) UpdateProject(ctx context.Context, project models.Project) (models.Project, error) {
	rows, _ := r.DB.Query(ctx, updateProject,
		project.ID, project.AuthorID, project.Name, project.Description,
		project.Status, project.Priority, project.Progress, project.DueDate,
	)
	return collectProject(rows)
}

const deleteProject = `-- name: DeleteProject
DELETE FROM projects
WHERE id = $1 AND author_id = $2
`

func (r *ProjectRepo) DeleteProject(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteProject, projectID, authorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

func collectProject(rows pgx.Rows) (models.Project, error) {
	project, err := pgx.CollectOneRow(rows, rowToProject)

	switch {
	case err == nil:
		return project, nil
	case errors.Is(err, pgx.ErrNoRows):
		return project, apperrors.ErrProjectNotFound
	default:
		return project, fmt.Errorf("db error: %w", err)
	}
}

func rowToProject(row pgx.CollectableRow) (models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.Name, &p.Description, &p.Status,
		&p.Priority, &p.Progress, &p.DueDate, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
