package alerting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskmgr/taskmgr-api/internal/domain/alert"
)

// Repository is the durable alert log consumed by the sink.
type Repository interface {
	Create(ctx context.Context, a *alert.Alert) error
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// Notifier forwards an alert to the external chat webhook. The boolean is
// the whole delivery contract: implementations log their own failures.
type Notifier interface {
	SendAlert(ctx context.Context, severity alert.Severity, alertType, message string, metricValue, threshold *float64) bool
}

// Sink persists alerts and forwards them to the notifier. The persisted
// row is the source of truth: delivery failure only leaves sent_to_slack
// false and is never retried here.
type Sink struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
}

func NewSink(repo Repository, notifier Notifier, logger *slog.Logger) *Sink {
	return &Sink{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Record persists the alert first, then attempts delivery. The returned
// alert reflects the delivery outcome in SentToSlack.
func (s *Sink) Record(ctx context.Context, severity alert.Severity, alertType, message string, metricValue, thresholdValue *float64) (*alert.Alert, error) {
	a, err := alert.NewAlert(severity, alertType, message, metricValue, thresholdValue)
	if err != nil {
		return nil, fmt.Errorf("building alert: %w", err)
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("persisting alert: %w", err)
	}

	if s.notifier.SendAlert(ctx, severity, alertType, message, metricValue, thresholdValue) {
		if err := s.repo.MarkSent(ctx, a.ID); err != nil {
			// The notification went out; losing the flag update is
			// reported but the alert row stays valid.
			s.logger.ErrorContext(ctx, "marking alert as sent failed",
				"alert_id", a.ID, "error", err)
		} else {
			a.SentToSlack = true
		}
	}

	s.logger.InfoContext(ctx, "alert created",
		"alert_type", alertType,
		"severity", severity,
		"sent_to_slack", a.SentToSlack,
		"message", message)

	return a, nil
}
