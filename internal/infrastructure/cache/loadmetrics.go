package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// loadMetricsKey is the redis hash populated by the load-generation
// tooling (scripts/parse_ab_results). Its fields have no fixed schema;
// the snapshot is merged into the metrics summary as an opaque map.
const loadMetricsKey = "ab_metrics"

// LoadMetricsReader exposes the latest load-test metrics snapshot.
type LoadMetricsReader struct {
	client *redis.Client
	logger *zap.Logger
}

func NewLoadMetricsReader(client *redis.Client, logger *zap.Logger) *LoadMetricsReader {
	return &LoadMetricsReader{client: client, logger: logger}
}

// Snapshot returns the load-test metrics hash with values parsed as
// float64 where possible, raw strings otherwise. A missing hash or an
// unreachable store yields nil: the snapshot is supplementary and must
// never fail a summary read.
func (l *LoadMetricsReader) Snapshot(ctx context.Context) map[string]interface{} {
	raw, err := l.client.HGetAll(ctx, loadMetricsKey).Result()
	if err != nil {
		l.logger.Warn("load metrics snapshot failed", zap.Error(err))
		return nil
	}

	if len(raw) == 0 {
		return nil
	}

	metrics := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			metrics[k] = f
		} else {
			metrics[k] = v
		}
	}

	return metrics
}
