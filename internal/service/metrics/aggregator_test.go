package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmgr/taskmgr-api/internal/infrastructure/cache"
)

// seedBucket writes raw counters into the store the way the collector
// would, offset minutes back from fixedTime.
func seedBucket(t *testing.T, store cache.Cache, minutesAgo int, requests, errors int64, latencies []float64, users []string) {
	t.Helper()

	ctx := context.Background()
	bucket := BucketKey(fixedTime.Add(-time.Duration(minutesAgo) * time.Minute))

	if requests > 0 {
		require.NoError(t, store.Set(ctx, requestsKeyPrefix+bucket, fmt.Sprintf("%d", requests), time.Hour))
	}
	if errors > 0 {
		require.NoError(t, store.Set(ctx, errorsKeyPrefix+bucket, fmt.Sprintf("%d", errors), time.Hour))
	}
	if len(latencies) > 0 {
		require.NoError(t, store.SetJSON(ctx, latenciesKeyPrefix+bucket, latencies, time.Hour))
	}
	if len(users) > 0 {
		userSet := make(map[string]bool, len(users))
		for _, u := range users {
			userSet[u] = true
		}
		require.NoError(t, store.SetJSON(ctx, usersKeyPrefix+bucket, userSet, time.Hour))
	}
}

func newTestAggregator(t *testing.T, store cache.Cache) *Aggregator {
	t.Helper()
	agg := NewAggregator(store, nil, testLogger())
	agg.now = func() time.Time { return fixedTime }
	return agg
}

func TestAggregator_Summarize_EmptyWindow(t *testing.T) {
	store, _ := newTestStore(t)
	agg := newTestAggregator(t, store)

	summary, err := agg.Summarize(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, int64(0), summary.TotalRequests)
	assert.Equal(t, int64(0), summary.TotalErrors)
	assert.Equal(t, float64(0), summary.ErrorRate, "no division by zero")
	assert.Equal(t, 0, summary.ActiveUsers)
	assert.Equal(t, LatencyStats{}, summary.Latency)
	assert.Equal(t, "5 minutes", summary.TimeWindow)
}

func TestAggregator_Summarize_MergesWindow(t *testing.T) {
	store, _ := newTestStore(t)
	agg := newTestAggregator(t, store)

	seedBucket(t, store, 0, 60, 6, []float64{10, 20}, []string{"alice", "bob"})
	seedBucket(t, store, 1, 40, 4, []float64{30, 40, 50}, []string{"bob", "carol"})
	// Outside a 2-minute window, must not be read.
	seedBucket(t, store, 2, 1000, 1000, []float64{9999}, []string{"mallory"})

	summary, err := agg.Summarize(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, int64(100), summary.TotalRequests)
	assert.Equal(t, int64(10), summary.TotalErrors)
	assert.Equal(t, 10.0, summary.ErrorRate)
	assert.Equal(t, 3, summary.ActiveUsers, "users deduplicated across buckets")
	assert.Equal(t, "2 minutes", summary.TimeWindow)

	assert.Equal(t, 10.0, summary.Latency.Min)
	assert.Equal(t, 50.0, summary.Latency.Max)
	assert.Equal(t, 30.0, summary.Latency.Avg)
}

func TestAggregator_Percentiles(t *testing.T) {
	t.Run("five samples", func(t *testing.T) {
		store, _ := newTestStore(t)
		agg := newTestAggregator(t, store)

		seedBucket(t, store, 0, 5, 0, []float64{50, 10, 40, 20, 30}, nil)

		summary, err := agg.Summarize(context.Background(), 5)
		require.NoError(t, err)

		// Nearest rank: index 5*50/100=2 of the sorted samples.
		assert.Equal(t, 30.0, summary.Latency.P50)
		assert.Equal(t, 50.0, summary.Latency.P95)
		assert.Equal(t, 50.0, summary.Latency.P99)
	})

	t.Run("hundred samples boundary", func(t *testing.T) {
		store, _ := newTestStore(t)
		agg := newTestAggregator(t, store)

		samples := make([]float64, 0, 100)
		for i := 0; i < 94; i++ {
			samples = append(samples, 100)
		}
		for i := 0; i < 6; i++ {
			samples = append(samples, 600)
		}
		seedBucket(t, store, 0, 100, 0, samples, nil)

		summary, err := agg.Summarize(context.Background(), 5)
		require.NoError(t, err)

		// Sorted ascending the 600s occupy indexes 94..99, so the
		// nearest-rank index 100*95/100=95 selects a 600.
		assert.Equal(t, 100.0, summary.Latency.P50)
		assert.Equal(t, 600.0, summary.Latency.P95)
		assert.Equal(t, 600.0, summary.Latency.P99)
		assert.Equal(t, 130.0, summary.Latency.Avg)
	})

	t.Run("single sample", func(t *testing.T) {
		store, _ := newTestStore(t)
		agg := newTestAggregator(t, store)

		seedBucket(t, store, 0, 1, 0, []float64{42.123}, nil)

		summary, err := agg.Summarize(context.Background(), 5)
		require.NoError(t, err)

		assert.Equal(t, 42.12, summary.Latency.Min, "rounded to 2 decimals")
		assert.Equal(t, 42.12, summary.Latency.Max)
		assert.Equal(t, 42.12, summary.Latency.P50)
		assert.Equal(t, 42.12, summary.Latency.P95)
		assert.Equal(t, 42.12, summary.Latency.P99)
	})
}

func TestAggregator_Summarize_Deterministic(t *testing.T) {
	store, _ := newTestStore(t)
	agg := newTestAggregator(t, store)

	seedBucket(t, store, 0, 50, 3, []float64{5, 25, 15}, []string{"alice"})

	first, err := agg.Summarize(context.Background(), 5)
	require.NoError(t, err)

	second, err := agg.Summarize(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, first, second, "aggregation must not mutate the window")
}

func TestAggregator_Summarize_DefaultWindow(t *testing.T) {
	store, _ := newTestStore(t)
	agg := newTestAggregator(t, store)

	summary, err := agg.Summarize(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "5 minutes", summary.TimeWindow)
}

func TestAggregator_Summarize_UnparseableCounter(t *testing.T) {
	store, _ := newTestStore(t)
	agg := newTestAggregator(t, store)

	bucket := BucketKey(fixedTime)
	require.NoError(t, store.Set(context.Background(), requestsKeyPrefix+bucket, "garbage", time.Hour))

	summary, err := agg.Summarize(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalRequests, "unparseable counter counts as zero")
}

func TestAggregator_Summarize_StoreDown(t *testing.T) {
	store, mr := newTestStore(t)
	agg := newTestAggregator(t, store)

	mr.Close()

	_, err := agg.Summarize(context.Background(), 5)
	require.Error(t, err, "a store fault must abort the read, not fabricate a summary")
}

type staticLoadMetrics struct {
	snapshot map[string]interface{}
}

func (s staticLoadMetrics) Snapshot(context.Context) map[string]interface{} {
	return s.snapshot
}

func TestAggregator_Summarize_LoadMetrics(t *testing.T) {
	store, _ := newTestStore(t)

	source := staticLoadMetrics{snapshot: map[string]interface{}{
		"requests_per_second": 842.31,
	}}
	agg := NewAggregator(store, source, testLogger())
	agg.now = func() time.Time { return fixedTime }

	seedBucket(t, store, 0, 10, 0, []float64{1, 2, 3}, nil)

	summary, err := agg.Summarize(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, source.snapshot, summary.LoadMetrics)
	assert.Equal(t, int64(10), summary.TotalRequests, "supplementary metrics must not affect the core figures")
}
