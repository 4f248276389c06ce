package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoronin/taskdeck/internal/service/auth"
	"github.com/nvoronin/taskdeck/internal/testutil"
)

func createTaskHTTP(t *testing.T, url string, cookies []*http.Cookie, projectID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	data := fmt.Sprintf(`{"name": %q, "description": "test task", "status": "todo", "priority": "medium"}`, name)
	resp, body := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/projects/%s/tasks", url, projectID), data, cookies)
	require.Equalf(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

	var parsed struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	return parsed.Data.ID
}

func Test_TaskHandlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create ok", func(t *testing.T) {
		withServer(pg.Pool, t, func(url string, _ *auth.AuthService) {
			cookies := loginUser(t, url)
			projectID := createProjectHTTP(t, url, cookies, "Parent")

			data := `{"name": "Write copy", "description": "hero section", "status": "todo", "priority": "high"}`
			resp, body := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/projects/%s/tasks", url, projectID), data, cookies)

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "body: %s", body)
			assert.Contains(t, body, `"message":"Task created successfully"`)
			assert.Contains(t, body, `"name":"Write copy"`)
			assert.Contains(t, body, fmt.Sprintf(`"projectId":%q`, projectID))
		})
	})

	t.Run("create in unknown project", func(t *testing.T) {
		withServer(pg.Pool, t, func(url string, _ *auth.AuthService) {
			cookies := loginUser(t, url)

			data := `{"name": "Orphan", "description": "no parent", "status": "todo", "priority": "low"}`
			resp, body := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/projects/%s/tasks", url, uuid.New()), data, cookies)

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
			require.JSONEq(t, `{"error": "service_error", "message": "Project not found"}`, body)
		})
	})

	t.Run("create invalid status", func(t *testing.T) {
		withServer(pg.Pool, t, func(url string, _ *auth.AuthService) {
			cookies := loginUser(t, url)
			projectID := createProjectHTTP(t, url, cookies, "Parent")

			data := `{"name": "Bad", "description": "bad status", "status": "blocked", "priority": "low"}`
			resp, body := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/projects/%s/tasks", url, projectID), data, cookies)

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, "validation_failed")
		})
	})

	t.Run("list", func(t *testing.T) {
		withServer(pg.Pool, t, func(url string, _ *auth.AuthService) {
			cookies := loginUser(t, url)
			projectID := createProjectHTTP(t, url, cookies, "Parent")
			otherProjectID := createProjectHTTP(t, url, cookies, "Other")

			for i := 0; i < 3; i++ {
				createTaskHTTP(t, url, cookies, projectID, fmt.Sprintf("Task %d", i))
			}

			resp, body := doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/projects/%s/tasks", url, projectID), "", cookies)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var parsed struct {
				Data  []json.RawMessage `json:"data"`
				Total int64             `json:"total"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &parsed))
			assert.Equal(t, int64(3), parsed.Total)

			resp, body = doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/projects/%s/tasks", url, otherProjectID), "", cookies)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.NoError(t, json.Unmarshal([]byte(body), &parsed))
			assert.Equal(t, int64(0), parsed.Total, "tasks must not leak across projects")

			resp, body = doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/projects/%s/tasks?status=todo&limit=2", url, projectID), "", cookies)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.NoError(t, json.Unmarshal([]byte(body), &parsed))
			assert.Equal(t, int64(3), parsed.Total)
			assert.Len(t, parsed.Data, 2)
		})
	})

	t.Run("get update delete", func(t *testing.T) {
		withServer(pg.Pool, t, func(url string, _ *auth.AuthService) {
			cookies := loginUser(t, url)
			projectID := createProjectHTTP(t, url, cookies, "Parent")
			taskID := createTaskHTTP(t, url, cookies, projectID, "Lifecycle")
			taskURL := fmt.Sprintf("%s/api/projects/%s/tasks/%s", url, projectID, taskID)

			resp, body := doRequest(t, http.MethodGet, taskURL, "", cookies)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, `"name":"Lifecycle"`)

			data := `{"name": "Lifecycle", "description": "moving on", "status": "in_progress", "priority": "high"}`
			resp, body = doRequest(t, http.MethodPut, taskURL, data, cookies)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "body: %s", body)
			assert.Contains(t, body, `"status":"in_progress"`)

			resp, body = doRequest(t, http.MethodDelete, taskURL, "", cookies)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, `"message":"Task deleted successfully"`)

			resp, _ = doRequest(t, http.MethodGet, taskURL, "", cookies)
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})

	t.Run("task under wrong project is missing", func(t *testing.T) {
		withServer(pg.Pool, t, func(url string, _ *auth.AuthService) {
			cookies := loginUser(t, url)
			projectID := createProjectHTTP(t, url, cookies, "Parent")
			otherProjectID := createProjectHTTP(t, url, cookies, "Other")
			taskID := createTaskHTTP(t, url, cookies, projectID, "Misfiled")

			resp, body := doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/projects/%s/tasks/%s", url, otherProjectID, taskID), "", cookies)

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
			require.JSONEq(t, `{"error": "service_error", "message": "Task not found"}`, body)
		})
	})

	t.Run("requires auth", func(t *testing.T) {
		withServer(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp, _ := doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/projects/%s/tasks", url, uuid.New()), "", nil)

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	})
}
