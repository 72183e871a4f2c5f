package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmc-todo/backend/internal/model"
)

func createTask(t *testing.T, env *testEnv, accessToken string, req model.NewTaskRequest) model.Task {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/tasks", accessToken, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeAs[model.TaskListResponse](t, rec)
	require.Equal(t, 1, body.Count)
	require.Len(t, body.Data, 1)
	return body.Data[0]
}

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t, testServerConfig())
	session := env.register(t, "john_doe", "john@x.com", "password123")

	due := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	task := createTask(t, env, session.AccessToken, model.NewTaskRequest{
		Title:       "Buy groceries",
		Description: "Milk, eggs, bread",
		DueDate:     due,
	})

	assert.Equal(t, session.UserID, task.UserID)
	assert.Equal(t, model.TaskStatusPending, task.Status)
	require.NotNil(t, task.DueDate)
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t, testServerConfig())
	session := env.register(t, "john_doe", "john@x.com", "password123")

	rec := env.do(t, http.MethodPost, "/tasks", session.AccessToken, model.NewTaskRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeAs[model.ErrorResponse](t, rec)
	assert.Equal(t, []string{"Title is required", "Description is required"}, body.Message)

	past := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)
	rec = env.do(t, http.MethodPost, "/tasks", session.AccessToken, model.NewTaskRequest{
		Title:       "Too late",
		Description: "x",
		DueDate:     past,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body = decodeAs[model.ErrorResponse](t, rec)
	assert.Equal(t, []string{"Due date cannot be in the past"}, body.Message)
}

func TestCreateTaskIgnoresUnparsableDueDate(t *testing.T) {
	env := newTestEnv(t, testServerConfig())
	session := env.register(t, "john_doe", "john@x.com", "password123")

	task := createTask(t, env, session.AccessToken, model.NewTaskRequest{
		Title:       "Sometime",
		Description: "x",
		DueDate:     "next tuesday",
	})
	assert.Nil(t, task.DueDate)
}

func TestGetTasksFiltering(t *testing.T) {
	env := newTestEnv(t, testServerConfig())
	session := env.register(t, "john_doe", "john@x.com", "password123")

	first := createTask(t, env, session.AccessToken, model.NewTaskRequest{Title: "a", Description: "x"})
	createTask(t, env, session.AccessToken, model.NewTaskRequest{Title: "b", Description: "x"})

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/tasks/%d", first.ID), session.AccessToken, model.EditTaskRequest{
		Status: model.TaskStatusFinished,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/tasks", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeAs[model.TaskListResponse](t, rec)
	assert.Equal(t, 2, all.Count)

	rec = env.do(t, http.MethodGet, "/tasks?status=finished", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	finished := decodeAs[model.TaskListResponse](t, rec)
	require.Equal(t, 1, finished.Count)
	assert.Equal(t, first.ID, finished.Data[0].ID)

	// an unknown status filter falls back to all tasks
	rec = env.do(t, http.MethodGet, "/tasks?status=bogus", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	unfiltered := decodeAs[model.TaskListResponse](t, rec)
	assert.Equal(t, 2, unfiltered.Count)
}

func TestUpdateTaskValidation(t *testing.T) {
	env := newTestEnv(t, testServerConfig())
	session := env.register(t, "john_doe", "john@x.com", "password123")
	task := createTask(t, env, session.AccessToken, model.NewTaskRequest{Title: "a", Description: "x"})

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/tasks/%d", task.ID), session.AccessToken, model.EditTaskRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeAs[model.ErrorResponse](t, rec)
	assert.Equal(t, []string{"At least one field must be updated: title, description, dueDate, or status"}, body.Message)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/tasks/%d", task.ID), session.AccessToken, model.EditTaskRequest{
		Status: "done",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body = decodeAs[model.ErrorResponse](t, rec)
	assert.Equal(t, []string{"Status must be either 'pending' or 'finished'"}, body.Message)

	rec = env.do(t, http.MethodPut, "/tasks/abc", session.AccessToken, model.EditTaskRequest{Title: "b"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body = decodeAs[model.ErrorResponse](t, rec)
	assert.Equal(t, []string{"Task id must be a positive integer"}, body.Message)
}

func TestUpdateForeignTaskIsForbidden(t *testing.T) {
	env := newTestEnv(t, testServerConfig())
	owner := env.register(t, "john_doe", "john@x.com", "password123")
	intruder := env.register(t, "jane_doe", "jane@x.com", "password456")

	task := createTask(t, env, owner.AccessToken, model.NewTaskRequest{Title: "private", Description: "x"})

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/tasks/%d", task.ID), intruder.AccessToken, model.EditTaskRequest{
		Title: "stolen",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeAs[model.ErrorResponse](t, rec)
	assert.Equal(t, []string{"You are not authorized to modify this task"}, body.Message)
	assert.Equal(t, "private", env.tasks.tasks[task.ID].Title)
}

func TestUpdateMissingTaskIsNotFound(t *testing.T) {
	env := newTestEnv(t, testServerConfig())
	session := env.register(t, "john_doe", "john@x.com", "password123")

	rec := env.do(t, http.MethodPut, "/tasks/999", session.AccessToken, model.EditTaskRequest{Title: "x"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeAs[model.ErrorResponse](t, rec)
	assert.Equal(t, []string{"Task not found"}, body.Message)
}

func TestDeleteAndRestoreTask(t *testing.T) {
	env := newTestEnv(t, testServerConfig())
	session := env.register(t, "john_doe", "john@x.com", "password123")
	task := createTask(t, env, session.AccessToken, model.NewTaskRequest{Title: "a", Description: "x"})

	rec := env.do(t, http.MethodDelete, fmt.Sprintf("/tasks/%d", task.ID), session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decodeAs[model.TaskDeleteResponse](t, rec)
	assert.Equal(t, fmt.Sprintf("Task with ID: %d has been deleted.", task.ID), deleted.Message)
	assert.Equal(t, int64(1), deleted.Count)

	// the task moved from the live list to the deleted list
	rec = env.do(t, http.MethodGet, "/tasks", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeAs[model.TaskListResponse](t, rec).Count)

	rec = env.do(t, http.MethodGet, "/tasks/deleted", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeAs[model.TaskListResponse](t, rec).Count)

	// editing while deleted is rejected
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/tasks/%d", task.ID), session.AccessToken, model.EditTaskRequest{Title: "zombie"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/tasks/restore/%d", task.ID), session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	restored := decodeAs[model.TaskDeleteResponse](t, rec)
	assert.Equal(t, fmt.Sprintf("Task with ID: %d has been restored.", task.ID), restored.Message)

	rec = env.do(t, http.MethodGet, "/tasks", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeAs[model.TaskListResponse](t, rec).Count)
}

func TestTasksRequireAccessToken(t *testing.T) {
	env := newTestEnv(t, testServerConfig())
	session := env.register(t, "john_doe", "john@x.com", "password123")

	// a refresh token does not open the task routes
	rec := env.do(t, http.MethodGet, "/tasks", session.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
