package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/Ramsey-B/magnolia/pkg/redis"
)

// RedisLocker adapts the Redis SET NX locker to the orchestrator's Locker
// interface, translating a contended lock into ErrImportAlreadyRunning.
type RedisLocker struct {
	locker *redis.Locker
}

// NewRedisLocker creates a new RedisLocker
func NewRedisLocker(locker *redis.Locker) *RedisLocker {
	return &RedisLocker{locker: locker}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := r.locker.Acquire(ctx, key, ttl)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return nil, ErrImportAlreadyRunning
		}
		return nil, err
	}
	return lock, nil
}
