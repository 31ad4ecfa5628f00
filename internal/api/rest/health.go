package rest

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker reports on the API's backing dependencies.
type HealthChecker interface {
	CheckRedis(ctx context.Context) error
	CheckDatabase(ctx context.Context) error
}

// handleHealth is a liveness probe. It answers without touching any
// dependency so a wedged store cannot fail the probe.
// GET /health
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "taskmgr-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus is a readiness probe: it exercises Redis and Postgres
// and reports per-dependency state.
// GET /status
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{
		"redis":    "ok",
		"database": "ok",
	}
	healthy := true

	if err := h.services.Health.CheckRedis(ctx); err != nil {
		h.logger.ErrorContext(ctx, "redis health check failed", "error", err)
		checks["redis"] = "unavailable"
		healthy = false
	}
	if err := h.services.Health.CheckDatabase(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database health check failed", "error", err)
		checks["database"] = "unavailable"
		healthy = false
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":    overall,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
