package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/taskmgr/taskmgr-api/internal/infrastructure/cache"
)

// CollectorConfig tunes the request sampler.
type CollectorConfig struct {
	// BucketTTL is applied to every bucket key on each write.
	BucketTTL time.Duration

	// RecordTimeout bounds the store writes of a single Record call.
	RecordTimeout time.Duration
}

func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		BucketTTL:     time.Hour,
		RecordTimeout: 2 * time.Second,
	}
}

// Collector samples completed request/response exchanges into per-minute
// counter buckets. Collection is strictly best-effort: a store fault is
// logged and dropped, never surfaced to the request path.
//
// The counter updates are read-then-write and therefore not atomic.
// Concurrent samplers can under-count; the metrics are approximate and
// the race is accepted.
type Collector struct {
	cache  cache.Cache
	logger *slog.Logger
	config CollectorConfig

	// now is swappable for tests.
	now func() time.Time
}

func NewCollector(c cache.Cache, logger *slog.Logger, config CollectorConfig) *Collector {
	if config.BucketTTL <= 0 {
		config.BucketTTL = time.Hour
	}
	if config.RecordTimeout <= 0 {
		config.RecordTimeout = 2 * time.Second
	}

	return &Collector{
		cache:  c,
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// Record samples one completed exchange: the response status, the elapsed
// wall-clock milliseconds and, when the request was authenticated, the
// user ID. It never returns an error.
func (c *Collector) Record(ctx context.Context, statusCode int, elapsedMs float64, userID string) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RecordTimeout)
	defer cancel()

	bucket := BucketKey(c.now())

	if err := c.incrementCounter(ctx, requestsKeyPrefix+bucket); err != nil {
		c.logger.ErrorContext(ctx, "metrics collection failed",
			"counter", "requests", "bucket", bucket, "error", err)
	}

	if err := c.appendLatency(ctx, latenciesKeyPrefix+bucket, elapsedMs); err != nil {
		c.logger.ErrorContext(ctx, "metrics collection failed",
			"counter", "latencies", "bucket", bucket, "error", err)
	}

	if statusCode >= 400 {
		if err := c.incrementCounter(ctx, errorsKeyPrefix+bucket); err != nil {
			c.logger.ErrorContext(ctx, "metrics collection failed",
				"counter", "errors", "bucket", bucket, "error", err)
		}
	}

	if userID != "" {
		if err := c.addUser(ctx, usersKeyPrefix+bucket, userID); err != nil {
			c.logger.ErrorContext(ctx, "metrics collection failed",
				"counter", "users", "bucket", bucket, "error", err)
		}
	}
}

func (c *Collector) incrementCounter(ctx context.Context, key string) error {
	current := int64(0)

	val, err := c.cache.Get(ctx, key)
	if err != nil && !cache.IsNotFound(err) {
		return err
	}
	if err == nil {
		if parsed, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			current = parsed
		}
	}

	return c.cache.Set(ctx, key, strconv.FormatInt(current+1, 10), c.config.BucketTTL)
}

func (c *Collector) appendLatency(ctx context.Context, key string, elapsedMs float64) error {
	var samples []float64

	if err := c.cache.GetJSON(ctx, key, &samples); err != nil && !cache.IsNotFound(err) {
		return err
	}

	samples = append(samples, elapsedMs)
	return c.cache.SetJSON(ctx, key, samples, c.config.BucketTTL)
}

func (c *Collector) addUser(ctx context.Context, key, userID string) error {
	users := map[string]bool{}

	if err := c.cache.GetJSON(ctx, key, &users); err != nil && !cache.IsNotFound(err) {
		return err
	}

	users[userID] = true
	return c.cache.SetJSON(ctx, key, users, c.config.BucketTTL)
}
