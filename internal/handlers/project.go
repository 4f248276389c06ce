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
	"github.com/nvoronin/taskdeck/internal/service/project"
)

type projectResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Progress    int32      `json:"progress"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toProjectResponse(p models.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		Priority:    p.Priority,
		Progress:    p.Progress,
		DueDate:     p.DueDate,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type projectRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"required,min=1"`
	Status      string     `json:"status" validate:"required,oneof=planned active on_hold done"`
	Priority    string     `json:"priority" validate:"required,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate" validate:"omitempty"`
}

func handleCreateProject(projects projectService, l logger.Logger) http.Handler {
	type response struct {
		Message string          `json:"message"`
		Data    projectResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[projectRequest](w, r)
		if err != nil {
			return
		}

		created, err := projects.Create(r.Context(), models.Project{
			AuthorID:    userID,
			Name:        data.Name,
			Description: data.Description,
			Status:      data.Status,
			Priority:    data.Priority,
			DueDate:     data.DueDate,
		})
		if err != nil {
			l.Error("create project failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSONWithStatus(w, response{
			Message: "Project created successfully",
			Data:    toProjectResponse(created),
		}, http.StatusCreated)
	})
}

func handleListProjects(projects projectService, l logger.Logger) http.Handler {
	type response struct {
		Data  []projectResponse `json:"data"`
		Total int64             `json:"total"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		query := r.URL.Query()
		params := project.ListParams{
			Search:   query.Get("search"),
			Status:   query.Get("status"),
			Priority: query.Get("priority"),
		}
		params.Page, _ = strconv.Atoi(query.Get("page"))
		params.Limit, _ = strconv.Atoi(query.Get("limit"))

		items, total, err := projects.List(r.Context(), userID, params)
		if err != nil {
			l.Error("list projects failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data := make([]projectResponse, 0, len(items))
		for _, p := range items {
			data = append(data, toProjectResponse(p))
		}

		render.JSON(w, response{Data: data, Total: total})
	})
}

func handleGetProject(projects projectService, l logger.Logger) http.Handler {
	type response struct {
		Data projectResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		projectID, err := uuid.Parse(r.PathValue("projectID"))
		if err != nil {
			render.ServiceError(w, "Project not found", http.StatusNotFound)
			return
		}

		found, err := projects.Get(r.Context(), projectID, userID)
		if err != nil {
			renderProjectError(w, l, "get project", err)
			return
		}

		render.JSON(w, response{Data: toProjectResponse(found)})
	})
}

func handleUpdateProject(projects projectService, l logger.Logger) http.Handler {
	type request struct {
		projectRequest
		Progress int32 `json:"progress" validate:"min=0,max=100"`
	}
	type response struct {
		Message string          `json:"message"`
		Data    projectResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		projectID, err := uuid.Parse(r.PathValue("projectID"))
		if err != nil {
			render.ServiceError(w, "Project not found", http.StatusNotFound)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := projects.Update(r.Context(), models.Project{
			ID:          projectID,
			AuthorID:    userID,
			Name:        data.Name,
			Description: data.Description,
			Status:      data.Status,
			Priority:    data.Priority,
			Progress:    data.Progress,
			DueDate:     data.DueDate,
		})
		if err != nil {
			renderProjectError(w, l, "update project", err)
			return
		}

		render.JSON(w, response{
			Message: "Project updated successfully",
			Data:    toProjectResponse(updated),
		})
	})
}

func handleDeleteProject(projects projectService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		projectID, err := uuid.Parse(r.PathValue("projectID"))
		if err != nil {
			render.ServiceError(w, "Project not found", http.StatusNotFound)
			return
		}

		if err := projects.Delete(r.Context(), projectID, userID); err != nil {
			renderProjectError(w, l, "delete project", err)
			return
		}

		render.JSON(w, response{Message: "Project deleted successfully"})
	})
}

// Someone else's project renders exactly like a missing one, so existence of
// foreign records can not be probed
func renderProjectError(w http.ResponseWriter, l logger.Logger, op string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrProjectNotFound):
		render.ServiceError(w, "Project not found", http.StatusNotFound)
	default:
		l.Error(op+" failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
