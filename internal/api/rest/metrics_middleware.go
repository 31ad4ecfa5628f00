package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskmgr/taskmgr-api/internal/service/metrics"
)

// sampledUser lets the auth middleware report the authenticated user to
// the sampler even though the sampler sits outside it in the chain. The
// sampler plants the pointer before auth runs and reads it after the
// handler returns.
type sampledUser struct {
	ID string
}

type sampledUserKey struct{}

func sampledUserFrom(ctx context.Context) *sampledUser {
	su, _ := ctx.Value(sampledUserKey{}).(*sampledUser)
	return su
}

// metricsMiddleware samples every completed exchange into the minute
// counter buckets. Collection is best-effort: the collector swallows
// store faults, so this middleware can never fail a request.
func metricsMiddleware(collector *metrics.Collector, logger *slog.Logger, slowThreshold time.Duration) Middleware {
	if slowThreshold <= 0 {
		slowThreshold = 500 * time.Millisecond
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			su := &sampledUser{}
			r = r.WithContext(context.WithValue(r.Context(), sampledUserKey{}, su))

			wrapped := &basicResponseWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(wrapped, r)

			elapsed := time.Since(start)
			elapsedMs := float64(elapsed.Nanoseconds()) / 1e6

			// The client may have hung up already; those exchanges
			// still count. The collector bounds the writes itself.
			collector.Record(context.WithoutCancel(r.Context()), wrapped.status, elapsedMs, su.ID)

			// Slow-request warning is independent of metrics collection.
			if elapsed > slowThreshold {
				logger.WarnContext(r.Context(), "slow request",
					"method", r.Method,
					"path", r.URL.Path,
					"duration_ms", elapsedMs,
				)
			}
		})
	}
}
