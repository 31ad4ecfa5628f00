package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskmgr/taskmgr-api/internal/domain/alert"
	"github.com/taskmgr/taskmgr-api/internal/domain/task"
	"github.com/taskmgr/taskmgr-api/internal/domain/user"
)

// TaskFilter narrows a task listing. Every query is additionally scoped
// to the owner; there is no cross-user visibility.
type TaskFilter struct {
	Status        *task.Status
	Priority      *task.Priority
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	DueAfter      *time.Time
	DueBefore     *time.Time

	// Overdue selects tasks past their due date and not done (true),
	// or everything else (false).
	Overdue *bool

	// Search matches title or description, case-insensitive substring.
	Search string

	// OrderBy is a whitelisted column name, "-" prefix for descending.
	// Empty means "-created_at".
	OrderBy string

	Limit  int
	Offset int
}

// TaskStats aggregates per-owner task counts.
type TaskStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByPriority map[string]int64 `json:"by_priority"`
	Overdue    int64            `json:"overdue"`
}

// TaskRepository persists tasks with row-level owner scoping.
type TaskRepository interface {
	Create(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*task.Task, int64, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*TaskStats, error)
}

// AlertFilter narrows an alert listing.
type AlertFilter struct {
	Severity  *alert.Severity
	AlertType string
	Limit     int
	Offset    int
}

// AlertRepository is the durable alert log. Alerts are immutable except
// for the sent_to_slack flag and are never deleted here.
type AlertRepository interface {
	Create(ctx context.Context, a *alert.Alert) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*alert.Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]*alert.Alert, int64, error)
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}
