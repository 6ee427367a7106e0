// Package redisx wraps the optional Redis dependency: idempotency keys and
// short-lived locks. Every helper accepts a nil client and degrades to a no-op.
package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// New returns nil when addr is empty so callers can run without Redis.
func New(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Ping(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	return rdb.Ping(ctx).Err()
}
