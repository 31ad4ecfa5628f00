package rest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
)

// metricPath collapses resource IDs in the path so the label set stays
// bounded no matter how many tasks or alerts exist.
func metricPath(path string) string {
	segments := strings.Split(path, "/")
	changed := false
	for i, s := range segments {
		if _, err := uuid.Parse(s); err == nil {
			segments[i] = "{id}"
			changed = true
		}
	}
	if !changed {
		return path
	}
	return strings.Join(segments, "/")
}

// prometheusMiddleware exports request counts and latencies for
// scraping. This is separate from the in-application sampler: Prometheus
// sees every request, the sampler feeds the alerting pipeline.
func prometheusMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &basicResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := metricPath(r.URL.Path)
			status := strconv.Itoa(wrapped.status)
			httpDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			httpRequests.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}
