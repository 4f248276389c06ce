package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nvoronin/taskdeck/internal/apperrors"
	"github.com/nvoronin/taskdeck/internal/handlers/render"
	"github.com/nvoronin/taskdeck/internal/handlers/userctx"
	"github.com/nvoronin/taskdeck/internal/logger"
	"github.com/nvoronin/taskdeck/internal/models"
	"github.com/nvoronin/taskdeck/internal/service/task"
)

type taskResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"projectId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toTaskResponse(t models.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type taskRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"required,min=1"`
	Status      string     `json:"status" validate:"required,oneof=todo in_progress done"`
	Priority    string     `json:"priority" validate:"required,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate" validate:"omitempty"`
}

func handleCreateTask(tasks taskService, l logger.Logger) http.Handler {
	type response struct {
		Message string       `json:"message"`
		Data    taskResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		projectID, err := uuid.Parse(r.PathValue("projectID"))
		if err != nil {
			render.ServiceError(w, "Project not found", http.StatusNotFound)
			return
		}

		data, err := render.BindAndValidate[taskRequest](w, r)
		if err != nil {
			return
		}

		created, err := tasks.Create(r.Context(), models.Task{
			ProjectID:   projectID,
			AuthorID:    userID,
			Name:        data.Name,
			Description: data.Description,
			Status:      data.Status,
			Priority:    data.Priority,
			DueDate:     data.DueDate,
		})
		if err != nil {
			renderTaskError(w, l, "create task", err)
			return
		}

		render.JSONWithStatus(w, response{
			Message: "Task created successfully",
			Data:    toTaskResponse(created),
		}, http.StatusCreated)
	})
}

func handleListTasks(tasks taskService, l logger.Logger) http.Handler {
	type response struct {
		Data  []taskResponse `json:"data"`
		Total int64          `json:"total"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		projectID, err := uuid.Parse(r.PathValue("projectID"))
		if err != nil {
			render.ServiceError(w, "Project not found", http.StatusNotFound)
			return
		}

		query := r.URL.Query()
		params := task.ListParams{
			Status:   query.Get("status"),
			Priority: query.Get("priority"),
		}
		params.Page, _ = strconv.Atoi(query.Get("page"))
		params.Limit, _ = strconv.Atoi(query.Get("limit"))

		items, total, err := tasks.List(r.Context(), projectID, userID, params)
		if err != nil {
			renderTaskError(w, l, "list tasks", err)
			return
		}

		data := make([]taskResponse, 0, len(items))
		for _, t := range items {
			data = append(data, toTaskResponse(t))
		}

		render.JSON(w, response{Data: data, Total: total})
	})
}

func handleGetTask(tasks taskService, l logger.Logger) http.Handler {
	type response struct {
		Data taskResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		projectID, taskID, err := taskPathIDs(r)
		if err != nil {
			render.ServiceError(w, "Task not found", http.StatusNotFound)
			return
		}

		found, err := tasks.Get(r.Context(), taskID, projectID, userID)
		if err != nil {
			renderTaskError(w, l, "get task", err)
			return
		}

		render.JSON(w, response{Data: toTaskResponse(found)})
	})
}

func handleUpdateTask(tasks taskService, l logger.Logger) http.Handler {
	type response struct {
		Message string       `json:"message"`
		Data    taskResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		projectID, taskID, err := taskPathIDs(r)
		if err != nil {
			render.ServiceError(w, "Task not found", http.StatusNotFound)
			return
		}

		data, err := render.BindAndValidate[taskRequest](w, r)
		if err != nil {
			return
		}

		updated, err := tasks.Update(r.Context(), models.Task{
			ID:          taskID,
			ProjectID:   projectID,
			AuthorID:    userID,
			Name:        data.Name,
			Description: data.Description,
			Status:      data.Status,
			Priority:    data.Priority,
			DueDate:     data.DueDate,
		})
		if err != nil {
			renderTaskError(w, l, "update task", err)
			return
		}

		render.JSON(w, response{
			Message: "Task updated successfully",
			Data:    toTaskResponse(updated),
		})
	})
}

func handleDeleteTask(tasks taskService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		projectID, taskID, err := taskPathIDs(r)
		if err != nil {
			render.ServiceError(w, "Task not found", http.StatusNotFound)
			return
		}

		if err := tasks.Delete(r.Context(), taskID, projectID, userID); err != nil {
			renderTaskError(w, l, "delete task", err)
			return
		}

		render.JSON(w, response{Message: "Task deleted successfully"})
	})
}

func taskPathIDs(r *http.Request) (projectID uuid.UUID, taskID uuid.UUID, err error) {
	projectID, err = uuid.Parse(r.PathValue("projectID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	taskID, err = uuid.Parse(r.PathValue("taskID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return projectID, taskID, nil
}

func renderTaskError(w http.ResponseWriter, l logger.Logger, op string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrProjectNotFound):
		render.ServiceError(w, "Project not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrTaskNotFound):
		render.ServiceError(w, "Task not found", http.StatusNotFound)
	default:
		l.Error(op+" failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
