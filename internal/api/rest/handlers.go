package rest

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taskmgr/taskmgr-api/internal/domain/task"
	"github.com/taskmgr/taskmgr-api/internal/service/accounts"
	"github.com/taskmgr/taskmgr-api/internal/service/metrics"
	"github.com/taskmgr/taskmgr-api/internal/service/taskmgmt"
)

// Services holds everything the REST API depends on.
type Services struct {
	Tasks      *taskmgmt.Service
	Accounts   *accounts.Service
	Aggregator *metrics.Aggregator
	Evaluator  *metrics.Evaluator
	Alerts     AlertReader
	Health     HealthChecker
}

// Handler carries the services and shared helpers for all endpoints.
type Handler struct {
	services Services
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(services Services, logger *slog.Logger) *Handler {
	return &Handler{
		services: services,
		validate: validator.New(),
		logger:   logger,
	}
}

// taskResponse is the wire shape of a task.
type taskResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	StatusDisplay   string     `json:"status_display"`
	Priority        string     `json:"priority"`
	PriorityDisplay string     `json:"priority_display"`
	DueDate         *time.Time `json:"due_date"`
	OwnerID         string     `json:"owner_id"`
	IsOverdue       bool       `json:"is_overdue"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func newTaskResponse(t *task.Task) taskResponse {
	return taskResponse{
		ID:              t.ID.String(),
		Title:           t.Title,
		Description:     t.Description,
		Status:          string(t.Status),
		StatusDisplay:   t.Status.Display(),
		Priority:        string(t.Priority),
		PriorityDisplay: t.Priority.Display(),
		DueDate:         t.DueDate,
		OwnerID:         t.OwnerID.String(),
		IsOverdue:       t.IsOverdue(),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func newTaskResponses(tasks []*task.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}
