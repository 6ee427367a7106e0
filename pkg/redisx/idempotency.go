package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInFlight = errors.New("a request with this idempotency key is still being processed")

// IdempotencyStore remembers which resource a client-supplied key produced.
type IdempotencyStore struct {
	rdb    *redis.Client
	format string
	ttl    time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, keyFormat string, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, format: keyFormat, ttl: ttl}
}

func (s *IdempotencyStore) Enabled() bool {
	return s != nil && s.rdb != nil
}

// Reserve claims key. When the key was already completed it returns the stored
// value and reserved=false. A key that is claimed but not completed yields
// ErrInFlight.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (value string, reserved bool, err error) {
	if !s.Enabled() {
		return "", true, nil
	}
	k := fmt.Sprintf(s.format, key)

	ok, err := s.rdb.SetNX(ctx, k, pendingValue, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}

	v, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		ok, err = s.rdb.SetNX(ctx, k, pendingValue, s.ttl).Result()
		return "", ok, err
	}
	if err != nil {
		return "", false, err
	}
	if v == pendingValue {
		return "", false, ErrInFlight
	}
	return v, false, nil
}

// Complete records the produced value for key.
func (s *IdempotencyStore) Complete(ctx context.Context, key, value string) error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Set(ctx, fmt.Sprintf(s.format, key), value, s.ttl).Err()
}

// Release drops a reservation after a failed request so the client may retry.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Del(ctx, fmt.Sprintf(s.format, key)).Err()
}
