// Package health implements dependency probes for the readiness endpoint.
package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taskmgr/taskmgr-api/internal/infrastructure/cache"
)

// Checker verifies the backing stores are reachable and serving.
type Checker struct {
	cache cache.Cache
	db    *sql.DB
}

func NewChecker(c cache.Cache, db *sql.DB) *Checker {
	return &Checker{cache: c, db: db}
}

// CheckRedis performs a set/get round trip rather than a bare ping so a
// read-only or full store is reported as unhealthy.
func (c *Checker) CheckRedis(ctx context.Context) error {
	key := fmt.Sprintf("health:check:%d", time.Now().UnixNano())
	if err := c.cache.Set(ctx, key, "ok", 10*time.Second); err != nil {
		return fmt.Errorf("redis write: %w", err)
	}
	got, err := c.cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("redis read: %w", err)
	}
	if got != "ok" {
		return fmt.Errorf("redis read back %q, want %q", got, "ok")
	}
	return nil
}

// CheckDatabase runs a trivial query through the pool.
func (c *Checker) CheckDatabase(ctx context.Context) error {
	var one int
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database query: %w", err)
	}
	return nil
}
