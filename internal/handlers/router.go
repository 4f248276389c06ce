package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nvoronin/taskdeck/internal/handlers/middleware"
	"github.com/nvoronin/taskdeck/internal/logger"
	"github.com/nvoronin/taskdeck/internal/models"
	"github.com/nvoronin/taskdeck/internal/service/project"
	"github.com/nvoronin/taskdeck/internal/service/task"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authSvc authService,
	projectSvc projectService,
	taskSvc taskService,
	l logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authSvc, l)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/signup", handleSignup(authSvc, l))
	mux.Handle("POST /api/auth/login", handleLogin(authSvc, l))
	mux.Handle("POST /api/auth/refresh", handleTokenRefresh(authSvc, l))
	mux.Handle("POST /api/auth/logout", withAuth(handleLogout(authSvc, l)))
	mux.Handle("GET /api/auth/session", withAuth(handleSessionCheck()))
	mux.Handle("GET /api/auth/profile", withAuth(handleGetProfile(authSvc, l)))
	mux.Handle("PUT /api/auth/profile", withAuth(handleEditProfile(authSvc, l)))
	mux.Handle("POST /api/auth/change-password", withAuth(handleChangePassword(authSvc, l)))

	mux.Handle("POST /api/projects", withAuth(handleCreateProject(projectSvc, l)))
	mux.Handle("GET /api/projects", withAuth(handleListProjects(projectSvc, l)))
	mux.Handle("GET /api/projects/{projectID}", withAuth(handleGetProject(projectSvc, l)))
	mux.Handle("PUT /api/projects/{projectID}", withAuth(handleUpdateProject(projectSvc, l)))
	mux.Handle("DELETE /api/projects/{projectID}", withAuth(handleDeleteProject(projectSvc, l)))

	mux.Handle("POST /api/projects/{projectID}/tasks", withAuth(handleCreateTask(taskSvc, l)))
	mux.Handle("GET /api/projects/{projectID}/tasks", withAuth(handleListTasks(taskSvc, l)))
	mux.Handle("GET /api/projects/{projectID}/tasks/{taskID}", withAuth(handleGetTask(taskSvc, l)))
	mux.Handle("PUT /api/projects/{projectID}/tasks/{taskID}", withAuth(handleUpdateTask(taskSvc, l)))
	mux.Handle("DELETE /api/projects/{projectID}/tasks/{taskID}", withAuth(handleDeleteTask(taskSvc, l)))

	return chain(mux,
		middleware.LoggerMiddleware(l),
	)
}

type authService interface {
	// Register user
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, name string, email string, password string) (models.User, error)

	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials on any credential failure
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Redeem refresh token and mint a fresh access token
	// Has to return one of apperrors.ErrRefreshToken* on verification failure
	Refresh(ctx context.Context, refresh string) (models.IssuedToken, error)

	// Revoke the refresh token record
	Logout(ctx context.Context, refresh string) error

	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (models.User, error)
	EditProfile(ctx context.Context, userID uuid.UUID, name string, email string) (models.User, error)

	// Resolve user identity from the access token cookie
	Authenticate(r *http.Request) (uuid.UUID, error)

	// Bind or clear tokens on the response
	SetTokenPair(w http.ResponseWriter, pair models.TokenPair)
	SetAccessToken(w http.ResponseWriter, access models.IssuedToken)
	ClearTokens(w http.ResponseWriter)

	// Get refresh token from request cookie
	ReadRefreshToken(r *http.Request) (string, error)
}

type projectService interface {
	Create(ctx context.Context, p models.Project) (models.Project, error)
	Get(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID) (models.Project, error)
	List(ctx context.Context, authorID uuid.UUID, params project.ListParams) ([]models.Project, int64, error)
	Update(ctx context.Context, p models.Project) (models.Project, error)
	Delete(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID) error
}

type taskService interface {
	Create(ctx context.Context, t models.Task) (models.Task, error)
	Get(ctx context.Context, taskID uuid.UUID, projectID uuid.UUID, authorID uuid.UUID) (models.Task, error)
	List(ctx context.Context, projectID uuid.UUID, authorID uuid.UUID, params task.ListParams) ([]models.Task, int64, error)
	Update(ctx context.Context, t models.Task) (models.Task, error)
	Delete(ctx context.Context, taskID uuid.UUID, projectID uuid.UUID, authorID uuid.UUID) error
}
