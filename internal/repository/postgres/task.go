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

type TaskRepo struct {
	DB DBTX
}

const createTask = `-- name: CreateTask
INSERT INTO tasks (id, project_id, author_id, name, description, status, priority, due_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, project_id, author_id, name, description, status, priority, due_date, created_at, updated_at
`

func (r *TaskRepo) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createTask,
		task.ID, task.ProjectID, task.AuthorID, task.Name,
		task.Description, task.Status, task.Priority, task.DueDate,
	)
	saved, err := pgx.CollectOneRow(rows, rowToTask)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getTask = `-- name: GetTask
SELECT id, project_id, author_id, name, description, status, priority, due_date, created_at, updated_at
FROM tasks
WHERE id = $1 AND project_id = $2 AND author_id = $3
`

func (r *TaskRepo) GetTask(ctx context.Context, taskID uuid.UUID, projectID uuid.UUID, authorID uuid.UUID) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, getTask, taskID, projectID, authorID)
	return collectTask(rows)
}

func (r *TaskRepo) ListTasks(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID, params repository.ListTasksParams) ([]models.Task, int64, error) {
	where := []string{"project_id = $1", "author_id = $2"}
	args := []any{projectID, authorID}

	if params.Status != "" {
		args = append(args, params.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Priority != "" {
		args = append(args, params.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}

	condition := strings.Join(where, " AND ")

	rows, _ := r.DB.Query(ctx, "SELECT count(*) FROM tasks WHERE "+condition, args...)
	total, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `
SELECT id, project_id, author_id, name, description, status, priority, due_date, created_at, updated_at
FROM tasks
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
	tasks, err := pgx.CollectRows(rows, rowToTask)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return tasks, total, nil
}

const updateTask = `-- name: UpdateTask
UPDATE tasks
SET name = $4, description = $5, status = $6, priority = $7, due_date = $8, updated_at = now()
WHERE id = $1 AND project_id = $2 AND author_id = $3
RETURNING id, project_id, author_id, name, description, status, priority, due_date, created_at, updated_at
`

func (r *TaskRepo) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, updateTask,
		task.ID, task.ProjectID, task.AuthorID, task.Name,
		task.Description, task.Status, task.Priority, task.DueDate,
	)
	return collectTask(rows)
}

const deleteTask = `-- name: DeleteTask
DELETE FROM tasks
WHERE id = $1 AND project_id = $2 AND author_id = $3
`

func (r *TaskRepo) DeleteTask(ctx context.Context, taskID uuid.UUID, projectID uuid.UUID, authorID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteTask, taskID, projectID, authorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

func collectTask(rows pgx.Rows) (models.Task, error) {
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

func rowToTask(row pgx.CollectableRow) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.AuthorID, &t.Name, &t.Description,
		&t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}
