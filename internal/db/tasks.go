package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vmc-todo/backend/internal/model"
)

const taskColumns = `id, user_id, title, description, status, due_date, created_at, updated_at, deleted_at`

// TaskUpdate carries the optional fields of a partial update; nil
// fields keep their current value.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     *time.Time
}

func (db *Postgres) CreateTask(ctx context.Context, userID int64, title, description string, dueDate *time.Time) (*model.Task, error) {
	query := `
		INSERT INTO tasks (user_id, title, description, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + taskColumns
	var task model.Task
	err := db.Pool.QueryRow(ctx, query, userID, title, description, dueDate).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasksByUser returns the user's live tasks, newest first. An empty
// status returns all of them.
func (db *Postgres) ListTasksByUser(ctx context.Context, userID int64, status string) ([]model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	rows, err := db.Pool.Query(ctx, query, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (db *Postgres) ListDeletedTasksByUser(ctx context.Context, userID int64) ([]model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND deleted_at IS NOT NULL
		ORDER BY created_at DESC
	`
	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (db *Postgres) GetTaskByID(ctx context.Context, taskID int64) (*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1
	`
	var task model.Task
	err := db.Pool.QueryRow(ctx, query, taskID).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update, scoped to the owner and to live
// rows so the check-then-mutate window cannot touch someone else's
// task. Returns pgx.ErrNoRows when the conditional matched nothing.
func (db *Postgres) UpdateTask(ctx context.Context, taskID, userID int64, update TaskUpdate) (*model.Task, error) {
	query := `
		UPDATE tasks
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    status = COALESCE($5, status),
		    due_date = COALESCE($6, due_date),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		RETURNING ` + taskColumns
	var task model.Task
	err := db.Pool.QueryRow(ctx, query, taskID, userID,
		update.Title, update.Description, update.Status, update.DueDate,
	).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (db *Postgres) SoftDeleteTask(ctx context.Context, taskID, userID int64) (int64, error) {
	query := `
		UPDATE tasks
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	tag, err := db.Pool.Exec(ctx, query, taskID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (db *Postgres) RestoreTask(ctx context.Context, taskID, userID int64) (int64, error) {
	query := `
		UPDATE tasks
		SET deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	tag, err := db.Pool.Exec(ctx, query, taskID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanTasks(rows pgx.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		var task model.Task
		if err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.DueDate,
			&task.CreatedAt,
			&task.UpdatedAt,
			&task.DeletedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
