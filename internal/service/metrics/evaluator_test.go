package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmgr/taskmgr-api/internal/domain/alert"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/cache"
)

type recordedAlert struct {
	severity  alert.Severity
	alertType string
	message   string
	value     float64
	threshold float64
}

type fakeSink struct {
	recorded []recordedAlert
	err      error
}

func (f *fakeSink) Record(ctx context.Context, severity alert.Severity, alertType, message string, metricValue, thresholdValue *float64) (*alert.Alert, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.recorded = append(f.recorded, recordedAlert{
		severity:  severity,
		alertType: alertType,
		message:   message,
		value:     *metricValue,
		threshold: *thresholdValue,
	})
	return alert.NewAlert(severity, alertType, message, metricValue, thresholdValue)
}

func newTestEvaluator(t *testing.T, store cache.Cache, sink AlertSink) *Evaluator {
	t.Helper()
	agg := newTestAggregator(t, store)
	return NewEvaluator(agg, store, sink, testLogger(), DefaultEvaluatorConfig())
}

func TestEvaluator_NoTraffic(t *testing.T) {
	store, _ := newTestStore(t)
	sink := &fakeSink{}
	eval := newTestEvaluator(t, store, sink)

	fired, err := eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Empty(t, sink.recorded, "an empty window must not be evaluated")
}

func TestEvaluator_HighErrorRate(t *testing.T) {
	store, _ := newTestStore(t)
	sink := &fakeSink{}
	eval := newTestEvaluator(t, store, sink)

	// 10% error rate against a 5% threshold.
	seedBucket(t, store, 0, 100, 10, []float64{10, 20, 30}, nil)

	fired, err := eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)

	assert.Equal(t, alert.SeverityError, fired[0].Severity)
	assert.Equal(t, alert.TypeHighErrorRate, fired[0].AlertType)

	require.Len(t, sink.recorded, 1)
	assert.Equal(t, "Error rate is 10.00% (threshold: 5.00%)", sink.recorded[0].message)
	assert.Equal(t, 10.0, sink.recorded[0].value)
	assert.Equal(t, 5.0, sink.recorded[0].threshold)
}

func TestEvaluator_HighLatency(t *testing.T) {
	store, _ := newTestStore(t)
	sink := &fakeSink{}
	eval := newTestEvaluator(t, store, sink)

	// p95 of 800ms against a 500ms threshold, no errors.
	seedBucket(t, store, 0, 20, 0, []float64{800, 800, 800}, nil)

	fired, err := eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)

	assert.Equal(t, alert.SeverityWarning, fired[0].Severity)
	assert.Equal(t, alert.TypeHighLatency, fired[0].AlertType)
	assert.Equal(t, "P95 latency is 800.00ms (threshold: 500.00ms)", sink.recorded[0].message)
}

func TestEvaluator_BothRulesFire(t *testing.T) {
	store, _ := newTestStore(t)
	sink := &fakeSink{}
	eval := newTestEvaluator(t, store, sink)

	seedBucket(t, store, 0, 100, 50, []float64{900, 950, 1000}, nil)

	fired, err := eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	assert.Len(t, fired, 2, "rules are independent")
}

func TestEvaluator_AtThresholdDoesNotFire(t *testing.T) {
	store, _ := newTestStore(t)
	sink := &fakeSink{}
	eval := newTestEvaluator(t, store, sink)

	// Exactly 5% error rate and exactly 500ms p95: both strictly
	// greater-than comparisons, so nothing fires.
	seedBucket(t, store, 0, 100, 5, []float64{500, 500, 500}, nil)

	fired, err := eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestEvaluator_Cooldown(t *testing.T) {
	store, mr := newTestStore(t)
	sink := &fakeSink{}
	eval := newTestEvaluator(t, store, sink)

	seedBucket(t, store, 0, 100, 10, []float64{10}, nil)

	fired, err := eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)

	// Second pass inside the cooldown window stays silent.
	fired, err = eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Len(t, sink.recorded, 1, "at most one alert per type per cooldown")

	// Cooldown expiry re-arms the rule.
	mr.FastForward(6 * time.Minute)
	seedBucket(t, store, 0, 100, 10, []float64{10}, nil)

	fired, err = eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	assert.Len(t, fired, 1)
}

func TestEvaluator_CooldownIsPerType(t *testing.T) {
	store, _ := newTestStore(t)
	sink := &fakeSink{}
	eval := newTestEvaluator(t, store, sink)

	// Error rate alone first; latency rule must still be armed after.
	seedBucket(t, store, 0, 100, 10, []float64{10}, nil)

	fired, err := eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, alert.TypeHighErrorRate, fired[0].AlertType)

	seedBucket(t, store, 0, 100, 0, []float64{900, 900, 900}, nil)

	fired, err = eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, alert.TypeHighLatency, fired[0].AlertType)
}

type failingSetNX struct {
	cache.Cache
}

func (f failingSetNX) SetNX(context.Context, string, interface{}, time.Duration) (bool, error) {
	return false, errors.New("store unreachable")
}

func TestEvaluator_CooldownFailsClosed(t *testing.T) {
	store, _ := newTestStore(t)
	sink := &fakeSink{}

	agg := newTestAggregator(t, store)
	eval := NewEvaluator(agg, failingSetNX{Cache: store}, sink, testLogger(), DefaultEvaluatorConfig())

	seedBucket(t, store, 0, 100, 10, []float64{10}, nil)

	fired, err := eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired, "an unreachable cooldown store must suppress, not storm")
	assert.Empty(t, sink.recorded)
}

func TestEvaluator_SinkFailure(t *testing.T) {
	store, _ := newTestStore(t)
	sink := &fakeSink{err: errors.New("database down")}
	eval := newTestEvaluator(t, store, sink)

	seedBucket(t, store, 0, 100, 10, []float64{10}, nil)

	fired, err := eval.EvaluateAndAlert(context.Background())
	require.NoError(t, err, "a sink fault is logged, not propagated")
	assert.Empty(t, fired)
}
