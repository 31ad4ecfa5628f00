package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmgr/taskmgr-api/internal/domain/alert"
)

// alertRepository implements AlertRepository using PostgreSQL
type alertRepository struct {
	db *sql.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sql.DB) AlertRepository {
	return &alertRepository{db: db}
}

// Create inserts a new alert row
func (r *alertRepository) Create(ctx context.Context, a *alert.Alert) error {
	query := `
		INSERT INTO alerts (
			id, severity, alert_type, message,
			metric_value, threshold_value, sent_to_slack, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Severity, a.AlertType, a.Message,
		a.MetricValue, a.ThresholdValue, a.SentToSlack, a.CreatedAt,
	)
	if err != nil {
		if IsDuplicateKeyViolation(err) {
			return fmt.Errorf("%w: alert %s", ErrDuplicateKey, a.ID)
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// MarkSent flips the delivery flag. The only mutation alerts ever see.
func (r *alertRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET sent_to_slack = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert sent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves one alert
func (r *alertRepository) GetByID(ctx context.Context, id uuid.UUID) (*alert.Alert, error) {
	query := `
		SELECT id, severity, alert_type, message,
			metric_value, threshold_value, sent_to_slack, created_at
		FROM alerts
		WHERE id = $1
	`

	a, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return a, nil
}

// List returns alerts newest first plus the total match count.
func (r *alertRepository) List(ctx context.Context, filter AlertFilter) ([]*alert.Alert, int64, error) {
	where := []string{"TRUE"}
	args := []interface{}{}

	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		where = append(where, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.AlertType != "" {
		args = append(args, filter.AlertType)
		where = append(where, fmt.Sprintf("alert_type = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM alerts WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, severity, alert_type, message,
			metric_value, threshold_value, sent_to_slack, created_at
		FROM alerts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, total, nil
}

func scanAlert(row rowScanner) (*alert.Alert, error) {
	var a alert.Alert
	var metricValue, thresholdValue sql.NullFloat64

	err := row.Scan(
		&a.ID, &a.Severity, &a.AlertType, &a.Message,
		&metricValue, &thresholdValue, &a.SentToSlack, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if metricValue.Valid {
		a.MetricValue = &metricValue.Float64
	}
	if thresholdValue.Valid {
		a.ThresholdValue = &thresholdValue.Float64
	}

	return &a, nil
}
