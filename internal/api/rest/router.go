package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskmgr/taskmgr-api/internal/infrastructure/auth"
	"github.com/taskmgr/taskmgr-api/internal/service/metrics"
)

// RouterConfig carries the knobs the router needs beyond the services.
type RouterConfig struct {
	Logger               *slog.Logger
	AuthService          *auth.Service
	Collector            *metrics.Collector
	SlowRequestThreshold time.Duration
	RateLimitRPS         float64
	RateLimitBurst       int
}

// NewRouter wires handlers and middleware. Chain order matters: the
// recovery middleware is outermost so panics anywhere are caught,
// tracing sits just inside it so every log record below carries a
// trace_id, the request sampler sits outside auth so rejected requests
// still land in the metrics buckets, and auth is innermost so
// everything after it can assume an identity.
func NewRouter(services Services, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := NewHandler(services, logger)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /status", h.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)

	mux.HandleFunc("GET /api/v1/tasks", h.handleListTasks)
	mux.HandleFunc("POST /api/v1/tasks", h.handleCreateTask)
	mux.HandleFunc("GET /api/v1/tasks/stats", h.handleTaskStats)
	mux.HandleFunc("GET /api/v1/tasks/{id}", h.handleGetTask)
	mux.HandleFunc("PUT /api/v1/tasks/{id}", h.handleUpdateTask)
	mux.HandleFunc("PATCH /api/v1/tasks/{id}", h.handleUpdateTask)
	mux.HandleFunc("DELETE /api/v1/tasks/{id}", h.handleDeleteTask)
	mux.HandleFunc("POST /api/v1/tasks/{id}/mark_done", h.handleMarkDone)

	mux.HandleFunc("GET /api/v1/alerts", h.handleListAlerts)
	mux.HandleFunc("GET /api/v1/alerts/{id}", h.handleGetAlert)

	mux.HandleFunc("GET /api/v1/metrics/summary", h.handleMetricsSummary)

	middlewares := []Middleware{
		recoveryMiddleware(logger),
		tracingMiddleware(),
		corsMiddleware(),
		loggingMiddleware(logger),
	}
	if cfg.RateLimitRPS > 0 {
		middlewares = append(middlewares, rateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	middlewares = append(middlewares, prometheusMiddleware())
	if cfg.Collector != nil {
		middlewares = append(middlewares, metricsMiddleware(cfg.Collector, logger, cfg.SlowRequestThreshold))
	}
	middlewares = append(middlewares, authMiddleware(cfg.AuthService))

	return chain(mux, middlewares...)
}
