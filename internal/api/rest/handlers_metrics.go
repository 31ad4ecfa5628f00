package rest

import (
	"net/http"
	"strconv"

	"github.com/taskmgr/taskmgr-api/internal/service/metrics"
)

// metricsSummaryResponse wraps the window summary with the number of
// alerts the piggybacked evaluation fired.
type metricsSummaryResponse struct {
	TotalRequests int64                `json:"total_requests"`
	TotalErrors   int64                `json:"total_errors"`
	ErrorRate     float64              `json:"error_rate_percent"`
	ActiveUsers   int                  `json:"active_users"`
	Latency       metrics.LatencyStats `json:"latency"`
	TimeWindow    string               `json:"time_window"`

	LoadMetrics     map[string]interface{} `json:"load_metrics,omitempty"`
	AlertsTriggered int                    `json:"alerts_triggered,omitempty"`
}

// handleMetricsSummary returns the aggregated window summary and runs a
// threshold evaluation pass on the side.
// GET /api/v1/metrics/summary
func (h *Handler) handleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	windowMinutes := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 60 {
			writeErrorBody(w, http.StatusBadRequest, "INVALID_WINDOW", "window must be between 1 and 60 minutes")
			return
		}
		windowMinutes = parsed
	}

	summary, err := h.services.Aggregator.Summarize(r.Context(), windowMinutes)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "metrics summary failed", "error", err)
		writeErrorBody(w, http.StatusInternalServerError, "METRICS_UNAVAILABLE", "metrics aggregation failed")
		return
	}

	resp := metricsSummaryResponse{
		TotalRequests: summary.TotalRequests,
		TotalErrors:   summary.TotalErrors,
		ErrorRate:     summary.ErrorRate,
		ActiveUsers:   summary.ActiveUsers,
		Latency:       summary.Latency,
		TimeWindow:    summary.TimeWindow,
		LoadMetrics:   summary.LoadMetrics,
	}

	// Threshold evaluation rides along with the read. A failure here
	// must not take the summary down with it.
	fired, err := h.services.Evaluator.EvaluateAndAlert(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "threshold evaluation failed", "error", err)
	} else {
		resp.AlertsTriggered = len(fired)
	}

	writeJSON(w, http.StatusOK, resp)
}
