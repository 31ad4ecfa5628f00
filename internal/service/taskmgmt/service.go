package taskmgmt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmgr/taskmgr-api/internal/domain/task"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/repository"
)

// CreateInput carries the fields for a new task.
type CreateInput struct {
	Title       string
	Description string
	Status      task.Status
	Priority    task.Priority
	DueDate     *time.Time
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *task.Status
	Priority    *task.Priority
	DueDate     *time.Time
	ClearDue    bool
}

// Service implements owner-scoped task management.
type Service struct {
	repo repository.TaskRepository
}

func NewService(repo repository.TaskRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*task.Task, error) {
	t, err := task.NewTask(input.Title, input.Description, input.Status, input.Priority, input.DueDate, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	return t, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, input UpdateInput) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("title cannot be empty")
		}
		t.Title = title
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("invalid status %q", *input.Status)
		}
		t.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, fmt.Errorf("invalid priority %q", *input.Priority)
		}
		t.Priority = *input.Priority
	}
	if input.DueDate != nil {
		t.DueDate = input.DueDate
	} else if input.ClearDue {
		t.DueDate = nil
	}

	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	return t, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.repo.Delete(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter repository.TaskFilter) ([]*task.Task, int64, error) {
	return s.repo.List(ctx, ownerID, filter)
}

func (s *Service) Stats(ctx context.Context, ownerID uuid.UUID) (*repository.TaskStats, error) {
	return s.repo.Stats(ctx, ownerID)
}

// MarkDone transitions a task to DONE regardless of its current status.
func (s *Service) MarkDone(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	t.MarkDone()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("marking task done: %w", err)
	}

	return t, nil
}
