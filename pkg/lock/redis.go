package lock

import (
	"context"
	"errors"
	"time"

	"sahayak/pkg/cache"
	"sahayak/pkg/logger"
)

type redisLockClient interface {
	Lock(ctx context.Context, key string, expiration time.Duration) (*cache.DistributedLock, error)
	Unlock(ctx context.Context, lock *cache.DistributedLock) error
}

// RedisLocker serializes across instances. A local KeyedMutex in front keeps
// goroutines of the same process from hammering Redis with retries.
type RedisLocker struct {
	client    redisLockClient
	local     *KeyedMutex
	prefix    string
	ttl       time.Duration
	wait      time.Duration
	retryStep time.Duration
	logger    *logger.Logger
}

func NewRedisLocker(client redisLockClient, prefix string, ttl, wait time.Duration, log *logger.Logger) *RedisLocker {
	return &RedisLocker{
		client:    client,
		local:     NewKeyedMutex(),
		prefix:    prefix,
		ttl:       ttl,
		wait:      wait,
		retryStep: 25 * time.Millisecond,
		logger:    log,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	releaseLocal, err := l.local.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}

	redisKey := l.prefix + key
	backoff := l.retryStep
	for {
		held, err := l.client.Lock(ctx, redisKey, l.ttl)
		if err == nil {
			return func() {
				// Release must outlive a cancelled request context.
				unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := l.client.Unlock(unlockCtx, held); err != nil {
					l.logger.WithError(err).WithField("key", redisKey).Warn("Failed to release distributed lock")
				}
				releaseLocal()
			}, nil
		}
		if !errors.Is(err, cache.ErrLockNotAcquired) {
			releaseLocal()
			return nil, err
		}

		select {
		case <-time.After(backoff):
			if backoff < 200*time.Millisecond {
				backoff *= 2
			}
		case <-ctx.Done():
			releaseLocal()
			return nil, ErrTimeout
		}
	}
}
