package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskmgr/taskmgr-api/internal/domain/alert"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/cache"
)

const cooldownKeyPrefix = "alert:cooldown:"

// EvaluatorConfig holds the static alert thresholds.
type EvaluatorConfig struct {
	// ErrorRateThresholdPercent fires high_error_rate when exceeded.
	ErrorRateThresholdPercent float64

	// P95LatencyThresholdMs fires high_latency when exceeded.
	P95LatencyThresholdMs float64

	// Cooldown is the minimum interval between two alerts of the same
	// type.
	Cooldown time.Duration

	// WindowMinutes is the aggregation window evaluated.
	WindowMinutes int
}

func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		ErrorRateThresholdPercent: 5.0,
		P95LatencyThresholdMs:     500,
		Cooldown:                  5 * time.Minute,
		WindowMinutes:             DefaultWindowMinutes,
	}
}

// Evaluator compares a window summary against the static thresholds and
// fires alerts through the sink. It keeps no state beyond the per-type
// cooldown markers in the store, so it is safe to trigger from a
// scheduler or from an inbound read request.
type Evaluator struct {
	aggregator *Aggregator
	cache      cache.Cache
	sink       AlertSink
	logger     *slog.Logger
	config     EvaluatorConfig
}

func NewEvaluator(aggregator *Aggregator, c cache.Cache, sink AlertSink, logger *slog.Logger, config EvaluatorConfig) *Evaluator {
	if config.Cooldown <= 0 {
		config.Cooldown = 5 * time.Minute
	}
	if config.WindowMinutes <= 0 {
		config.WindowMinutes = DefaultWindowMinutes
	}

	return &Evaluator{
		aggregator: aggregator,
		cache:      c,
		sink:       sink,
		logger:     logger,
		config:     config,
	}
}

// EvaluateAndAlert runs one evaluation pass and returns the alerts that
// fired. No traffic in the window means no evaluation at all. Rules are
// independent: a persistence or delivery fault in one rule is logged and
// does not stop the others.
func (e *Evaluator) EvaluateAndAlert(ctx context.Context) ([]*alert.Alert, error) {
	summary, err := e.aggregator.Summarize(ctx, e.config.WindowMinutes)
	if err != nil {
		return nil, fmt.Errorf("aggregating metrics: %w", err)
	}

	if summary.TotalRequests == 0 {
		return []*alert.Alert{}, nil
	}

	fired := make([]*alert.Alert, 0, 2)

	if summary.ErrorRate > e.config.ErrorRateThresholdPercent {
		if a := e.fire(ctx, alert.SeverityError, alert.TypeHighErrorRate,
			fmt.Sprintf("Error rate is %.2f%% (threshold: %.2f%%)",
				summary.ErrorRate, e.config.ErrorRateThresholdPercent),
			summary.ErrorRate, e.config.ErrorRateThresholdPercent); a != nil {
			fired = append(fired, a)
		}
	}

	if summary.Latency.P95 > e.config.P95LatencyThresholdMs {
		if a := e.fire(ctx, alert.SeverityWarning, alert.TypeHighLatency,
			fmt.Sprintf("P95 latency is %.2fms (threshold: %.2fms)",
				summary.Latency.P95, e.config.P95LatencyThresholdMs),
			summary.Latency.P95, e.config.P95LatencyThresholdMs); a != nil {
			fired = append(fired, a)
		}
	}

	return fired, nil
}

// fire records one alert unless its type is in cooldown. Returns nil
// when suppressed or when the sink failed.
func (e *Evaluator) fire(ctx context.Context, severity alert.Severity, alertType, message string, value, threshold float64) *alert.Alert {
	if !e.acquireCooldown(ctx, alertType) {
		return nil
	}

	a, err := e.sink.Record(ctx, severity, alertType, message, &value, &threshold)
	if err != nil {
		e.logger.ErrorContext(ctx, "alert recording failed",
			"alert_type", alertType, "error", err)
		return nil
	}

	return a
}

// acquireCooldown atomically claims the cooldown marker for alertType.
// The marker is set only when absent, so the cooldown window starts at
// the first firing, not at evaluation time.
func (e *Evaluator) acquireCooldown(ctx context.Context, alertType string) bool {
	acquired, err := e.cache.SetNX(ctx, cooldownKeyPrefix+alertType, "1", e.config.Cooldown)
	if err != nil {
		// Fail closed: an unreachable store must not cause an alert
		// storm when evaluation is retried.
		e.logger.ErrorContext(ctx, "cooldown check failed",
			"alert_type", alertType, "error", err)
		return false
	}

	return acquired
}
