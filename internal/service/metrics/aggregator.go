package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/taskmgr/taskmgr-api/internal/infrastructure/cache"
)

// DefaultWindowMinutes is the trailing window merged when the caller
// doesn't ask for a specific one.
const DefaultWindowMinutes = 5

// Aggregator merges the trailing minute buckets into a single summary.
// A missing bucket is not an error and contributes nothing; a store
// fault aborts the whole read, the aggregator never fabricates a
// summary from partial data.
type Aggregator struct {
	cache       cache.Cache
	loadMetrics LoadMetricsSource
	logger      *slog.Logger

	now func() time.Time
}

// NewAggregator creates an aggregator. loadMetrics may be nil when no
// external metrics source is configured.
func NewAggregator(c cache.Cache, loadMetrics LoadMetricsSource, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		cache:       c,
		loadMetrics: loadMetrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Summarize reads the last windowMinutes minute buckets (now inclusive)
// and computes the merged summary. windowMinutes <= 0 selects the
// default 5-minute window.
func (a *Aggregator) Summarize(ctx context.Context, windowMinutes int) (*WindowSummary, error) {
	if windowMinutes <= 0 {
		windowMinutes = DefaultWindowMinutes
	}

	var (
		totalRequests int64
		totalErrors   int64
		allLatencies  []float64
		uniqueUsers   = map[string]bool{}
	)

	for _, bucket := range recentBucketKeys(a.now(), windowMinutes) {
		requests, err := a.readCounter(ctx, requestsKeyPrefix+bucket)
		if err != nil {
			return nil, fmt.Errorf("reading request counter %s: %w", bucket, err)
		}
		totalRequests += requests

		errCount, err := a.readCounter(ctx, errorsKeyPrefix+bucket)
		if err != nil {
			return nil, fmt.Errorf("reading error counter %s: %w", bucket, err)
		}
		totalErrors += errCount

		var latencies []float64
		if err := a.cache.GetJSON(ctx, latenciesKeyPrefix+bucket, &latencies); err != nil && !cache.IsNotFound(err) {
			return nil, fmt.Errorf("reading latencies %s: %w", bucket, err)
		}
		allLatencies = append(allLatencies, latencies...)

		users := map[string]bool{}
		if err := a.cache.GetJSON(ctx, usersKeyPrefix+bucket, &users); err != nil && !cache.IsNotFound(err) {
			return nil, fmt.Errorf("reading users %s: %w", bucket, err)
		}
		for id := range users {
			uniqueUsers[id] = true
		}
	}

	errorRate := float64(0)
	if totalRequests > 0 {
		errorRate = round2(float64(totalErrors) / float64(totalRequests) * 100)
	}

	summary := &WindowSummary{
		TotalRequests: totalRequests,
		TotalErrors:   totalErrors,
		ErrorRate:     errorRate,
		ActiveUsers:   len(uniqueUsers),
		Latency:       computeLatencyStats(allLatencies),
		TimeWindow:    fmt.Sprintf("%d minutes", windowMinutes),
	}

	if a.loadMetrics != nil {
		summary.LoadMetrics = a.loadMetrics.Snapshot(ctx)
	}

	return summary, nil
}

// readCounter returns the integer value of key, or 0 when the key is
// absent or holds something unparseable.
func (a *Aggregator) readCounter(ctx context.Context, key string) (int64, error) {
	val, err := a.cache.Get(ctx, key)
	if err != nil {
		if cache.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}

	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		a.logger.WarnContext(ctx, "unparseable counter value",
			"key", key, "value", val)
		return 0, nil
	}

	return parsed, nil
}

// computeLatencyStats calculates min/max/avg and nearest-rank
// percentiles over the combined samples. All figures are rounded to 2
// decimal places; a sample-less window yields all zeros.
func computeLatencyStats(latencies []float64) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, len(latencies))
	copy(sorted, latencies)
	sort.Float64s(sorted)

	count := len(sorted)

	// Nearest-rank selection: rounded-down index, clamped to the last
	// sample. Not interpolated.
	percentile := func(p int) float64 {
		idx := count * p / 100
		if idx > count-1 {
			idx = count - 1
		}
		return sorted[idx]
	}

	sum := float64(0)
	for _, v := range sorted {
		sum += v
	}

	return LatencyStats{
		Min: round2(sorted[0]),
		Max: round2(sorted[count-1]),
		Avg: round2(sum / float64(count)),
		P50: round2(percentile(50)),
		P95: round2(percentile(95)),
		P99: round2(percentile(99)),
	}
}
