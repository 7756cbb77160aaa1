package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

type DistributedLock struct {
	Key        string
	Value      string
	Expiration time.Duration
}

// Deletes the key only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock makes a single SET NX PX attempt.
func (r *RedisCache) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	value := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, value, expiration).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &DistributedLock{
		Key:        key,
		Value:      value,
		Expiration: expiration,
	}, nil
}

// Unlock releases lock if it has not expired and been taken by someone else.
func (r *RedisCache) Unlock(ctx context.Context, lock *DistributedLock) error {
	deleted, err := unlockScript.Run(ctx, r.client, []string{lock.Key}, lock.Value).Int64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	return nil
}
