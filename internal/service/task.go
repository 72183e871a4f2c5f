package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmc-todo/backend/internal/db"
	"github.com/vmc-todo/backend/internal/model"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskForbidden = errors.New("forbidden")

	// ErrConsistency means an ownership check passed but the following
	// mutation found the row gone or changed. That is a server-side
	// defect or an external writer, never a normal client error.
	ErrConsistency = errors.New("task state out of sync")
)

type TaskStore interface {
	CreateTask(ctx context.Context, userID int64, title, description string, dueDate *time.Time) (*model.Task, error)
	ListTasksByUser(ctx context.Context, userID int64, status string) ([]model.Task, error)
	ListDeletedTasksByUser(ctx context.Context, userID int64) ([]model.Task, error)
	GetTaskByID(ctx context.Context, taskID int64) (*model.Task, error)
	UpdateTask(ctx context.Context, taskID, userID int64, update db.TaskUpdate) (*model.Task, error)
	SoftDeleteTask(ctx context.Context, taskID, userID int64) (int64, error)
	RestoreTask(ctx context.Context, taskID, userID int64) (int64, error)
}

type TaskService struct {
	store  TaskStore
	logger *slog.Logger
}

func NewTaskService(store TaskStore, logger *slog.Logger) *TaskService {
	return &TaskService{store: store, logger: logger}
}

// AssertOwnership classifies access to a task before any mutation:
// missing task is not-found, a soft-deleted task (unless allowed) or a
// foreign owner is forbidden. It has no side effects. The mutations
// below additionally scope their UPDATE to the owner and the
// soft-delete state, so a row changing between this check and the
// mutation cannot affect someone else's data.
func (s *TaskService) AssertOwnership(ctx context.Context, taskID, userID int64, allowSoftDeleted bool) error {
	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrTaskNotFound
		}
		return err
	}
	if !allowSoftDeleted && task.DeletedAt != nil {
		return ErrTaskForbidden
	}
	if task.UserID != userID {
		return ErrTaskForbidden
	}
	return nil
}

func (s *TaskService) List(ctx context.Context, userID int64, status string) ([]model.Task, error) {
	return s.store.ListTasksByUser(ctx, userID, status)
}

func (s *TaskService) ListDeleted(ctx context.Context, userID int64) ([]model.Task, error) {
	return s.store.ListDeletedTasksByUser(ctx, userID)
}

func (s *TaskService) Create(ctx context.Context, userID int64, title, description string, dueDate *time.Time) (*model.Task, error) {
	return s.store.CreateTask(ctx, userID, title, description, dueDate)
}

func (s *TaskService) Update(ctx context.Context, taskID, userID int64, update db.TaskUpdate) (*model.Task, error) {
	if err := s.AssertOwnership(ctx, taskID, userID, false); err != nil {
		return nil, err
	}

	task, err := s.store.UpdateTask(ctx, taskID, userID, update)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, s.consistencyViolation("update", taskID, userID)
		}
		return nil, err
	}
	return task, nil
}

func (s *TaskService) SoftDelete(ctx context.Context, taskID, userID int64) (int64, error) {
	if err := s.AssertOwnership(ctx, taskID, userID, false); err != nil {
		return 0, err
	}

	affected, err := s.store.SoftDeleteTask(ctx, taskID, userID)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, s.consistencyViolation("delete", taskID, userID)
	}
	return affected, nil
}

// Restore clears the soft-delete timestamp. It is the one mutation
// allowed on soft-deleted tasks.
func (s *TaskService) Restore(ctx context.Context, taskID, userID int64) (int64, error) {
	if err := s.AssertOwnership(ctx, taskID, userID, true); err != nil {
		return 0, err
	}

	affected, err := s.store.RestoreTask(ctx, taskID, userID)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, s.consistencyViolation("restore", taskID, userID)
	}
	return affected, nil
}

func (s *TaskService) consistencyViolation(op string, taskID, userID int64) error {
	s.logger.Error("task asserted in the database was modified",
		"op", op, "taskId", taskID, "userId", userID)
	return fmt.Errorf("%w: %s of task %d for owner %d matched no row", ErrConsistency, op, taskID, userID)
}
