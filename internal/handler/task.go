package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vmc-todo/backend/internal/config"
	"github.com/vmc-todo/backend/internal/db"
	"github.com/vmc-todo/backend/internal/model"
	"github.com/vmc-todo/backend/internal/service"
)

type TaskHandler struct {
	svc    *service.TaskService
	errors errorWriter
}

func NewTaskHandler(svc *service.TaskService, cfg config.ServerConfig, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		svc:    svc,
		errors: errorWriter{cfg: cfg, logger: logger},
	}
}

// GetTasks godoc
// @Summary Gets all tasks
// @Description Gets all live tasks of the current user, newest first. An invalid status filter is ignored.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(pending, finished)
// @Success 200 {object} model.TaskListResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) GetTasks(c *gin.Context) {
	uid, _ := GetAuthUserID(c)

	status := c.Query("status")
	if !model.ValidTaskStatus(status) {
		status = ""
	}

	tasks, err := h.svc.List(c.Request.Context(), uid, status)
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusOK, model.TaskListResponse{Count: len(tasks), Data: tasks})
}

// GetDeletedTasks godoc
// @Summary Gets the deleted tasks
// @Description Gets all soft-deleted tasks of the current user.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TaskListResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /tasks/deleted [get]
func (h *TaskHandler) GetDeletedTasks(c *gin.Context) {
	uid, _ := GetAuthUserID(c)

	tasks, err := h.svc.ListDeleted(c.Request.Context(), uid)
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusOK, model.TaskListResponse{Count: len(tasks), Data: tasks})
}

// CreateTask godoc
// @Summary Creates a new task
// @Description Creates a task. An unparsable due date becomes null (no due date); a parsed due date must not be in the past.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.NewTaskRequest true "Task fields"
// @Success 201 {object} model.TaskListResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	uid, _ := GetAuthUserID(c)

	var req model.NewTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []string{"invalid request body"})
		return
	}

	var messages []string
	if req.Title == "" {
		messages = append(messages, "Title is required")
	}
	if req.Description == "" {
		messages = append(messages, "Description is required")
	}
	if len(messages) > 0 {
		badRequest(c, messages)
		return
	}

	// Lazy due-date handling: a value that does not parse means "no
	// due date"; one that parses must not be in the past.
	var dueDate *time.Time
	if parsed, err := time.Parse(time.RFC3339, req.DueDate); err == nil {
		if parsed.Before(time.Now()) {
			badRequest(c, []string{"Due date cannot be in the past"})
			return
		}
		dueDate = &parsed
	}

	task, err := h.svc.Create(c.Request.Context(), uid, req.Title, req.Description, dueDate)
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.TaskListResponse{Count: 1, Data: []model.Task{*task}})
}

// UpdateTask godoc
// @Summary Edits an existing task
// @Description Partial update: pass only the fields to change, but at least one of title, description, dueDate, status.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task id"
// @Param request body model.EditTaskRequest true "Fields to update"
// @Success 200 {object} model.TaskListResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	uid, _ := GetAuthUserID(c)

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req model.EditTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []string{"invalid request body"})
		return
	}

	update, messages := buildTaskUpdate(req)
	if len(messages) > 0 {
		badRequest(c, messages)
		return
	}

	task, err := h.svc.Update(c.Request.Context(), taskID, uid, update)
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusOK, model.TaskListResponse{Count: 1, Data: []model.Task{*task}})
}

// DeleteTask godoc
// @Summary Deletes an existing task
// @Description Soft-deletes the task; it stays restorable via the restore endpoint.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task id"
// @Success 200 {object} model.TaskDeleteResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	uid, _ := GetAuthUserID(c)

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	affected, err := h.svc.SoftDelete(c.Request.Context(), taskID, uid)
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusOK, model.TaskDeleteResponse{
		Message: fmt.Sprintf("Task with ID: %d has been deleted.", taskID),
		Count:   affected,
	})
}

// RestoreTask godoc
// @Summary Restores a deleted task
// @Description Clears the soft-delete timestamp. This is the one mutation allowed on deleted tasks.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task id"
// @Success 200 {object} model.TaskDeleteResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /tasks/restore/{id} [put]
func (h *TaskHandler) RestoreTask(c *gin.Context) {
	uid, _ := GetAuthUserID(c)

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	affected, err := h.svc.Restore(c.Request.Context(), taskID, uid)
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusOK, model.TaskDeleteResponse{
		Message: fmt.Sprintf("Task with ID: %d has been restored.", taskID),
		Count:   affected,
	})
}

func taskIDParam(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || taskID <= 0 {
		badRequest(c, []string{"Task id must be a positive integer"})
		return 0, false
	}
	return taskID, true
}

func buildTaskUpdate(req model.EditTaskRequest) (db.TaskUpdate, []string) {
	var update db.TaskUpdate
	var messages []string

	if req.Title == "" && req.Description == "" && req.DueDate == "" && req.Status == "" {
		messages = append(messages, "At least one field must be updated: title, description, dueDate, or status")
		return update, messages
	}

	if req.Title != "" {
		update.Title = &req.Title
	}
	if req.Description != "" {
		update.Description = &req.Description
	}
	if req.Status != "" {
		if !model.ValidTaskStatus(req.Status) {
			messages = append(messages, "Status must be either 'pending' or 'finished'")
		} else {
			update.Status = &req.Status
		}
	}
	if req.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.DueDate)
		switch {
		case err != nil:
			messages = append(messages, "Due date must be a valid date string")
		case parsed.Before(time.Now()):
			messages = append(messages, "Due date cannot be in the past")
		default:
			update.DueDate = &parsed
		}
	}

	return update, messages
}
