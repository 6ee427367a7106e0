package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrLocked = errors.New("resource is locked by another request")

// Locker takes best-effort locks. Without Redis, or when Redis errors, the
// caller proceeds unlocked and relies on database row locks.
type Locker struct {
	client *redislock.Client
	log    *logrus.Logger
}

func NewLocker(rdb *redis.Client, log *logrus.Logger) *Locker {
	l := &Locker{log: log}
	if rdb != nil {
		l.client = redislock.New(rdb)
	}
	return l
}

// Obtain locks fmt.Sprintf(keyFormat, id). The returned release func is never nil.
func (l *Locker) Obtain(ctx context.Context, keyFormat, id string, ttl time.Duration) (func(), error) {
	noop := func() {}
	if l == nil || l.client == nil {
		return noop, nil
	}

	key := fmt.Sprintf(keyFormat, id)
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return noop, ErrLocked
	}
	if err != nil {
		if l.log != nil {
			l.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("redis lock unavailable; proceeding without redis lock")
		}
		return noop, nil
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}
