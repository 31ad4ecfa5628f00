package metrics

import (
	"context"
	"math"

	"github.com/taskmgr/taskmgr-api/internal/domain/alert"
)

// WindowSummary is the merged view of the trailing minute buckets. It is
// computed on demand and never persisted.
type WindowSummary struct {
	TotalRequests int64        `json:"total_requests"`
	TotalErrors   int64        `json:"total_errors"`
	ErrorRate     float64      `json:"error_rate_percent"`
	ActiveUsers   int          `json:"active_users"`
	Latency       LatencyStats `json:"latency"`
	TimeWindow    string       `json:"time_window"`

	// LoadMetrics is an opaque snapshot from the external load-test
	// tooling. It never affects the computed fields above.
	LoadMetrics map[string]interface{} `json:"load_metrics,omitempty"`
}

// LatencyStats summarizes the combined latency samples of a window.
// Percentiles are nearest-rank: an actual observed sample, selected by a
// rounded-down index into the sorted samples. All values are in
// milliseconds, rounded to 2 decimal places, and zero when the window has
// no samples.
type LatencyStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// LoadMetricsSource supplies the optional external metrics snapshot
// merged into a summary. Implementations return nil when nothing is
// available; they never fail the summary.
type LoadMetricsSource interface {
	Snapshot(ctx context.Context) map[string]interface{}
}

// AlertSink persists an alert and forwards it to the notifier.
type AlertSink interface {
	Record(ctx context.Context, severity alert.Severity, alertType, message string, metricValue, thresholdValue *float64) (*alert.Alert, error)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
