package model

import "time"

const (
	TaskStatusPending  = "pending"
	TaskStatusFinished = "finished"
)

type Task struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt"`
}

type NewTaskRequest struct {
	Title       string `json:"title" example:"Buy groceries"`
	Description string `json:"description" example:"Milk, eggs, bread"`
	DueDate     string `json:"dueDate,omitempty" example:"2026-10-01T00:00:00Z"`
}

// EditTaskRequest carries the optional fields of a partial update. At
// least one must be present.
type EditTaskRequest struct {
	Title       string `json:"title,omitempty" example:"New Task Title"`
	Description string `json:"description,omitempty" example:"The new description"`
	DueDate     string `json:"dueDate,omitempty" example:"2026-10-01T00:00:00Z"`
	Status      string `json:"status,omitempty" example:"finished"`
}

// TaskListResponse is the envelope for every endpoint that returns tasks.
type TaskListResponse struct {
	Count int    `json:"count" example:"1"`
	Data  []Task `json:"data"`
}

type TaskDeleteResponse struct {
	Message string `json:"message" example:"Task with ID: 1 has been deleted."`
	Count   int64  `json:"count" example:"1"`
}

func ValidTaskStatus(status string) bool {
	return status == TaskStatusPending || status == TaskStatusFinished
}
