package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"sahayak/pkg/cache"
	"sahayak/pkg/logger"

	"github.com/stretchr/testify/assert"
)

// fakeRedis mimics SET NX semantics in memory.
type fakeRedis struct {
	mu      sync.Mutex
	held    map[string]string
	locks   int
	unlocks int
}

func (f *fakeRedis) Lock(ctx context.Context, key string, expiration time.Duration) (*cache.DistributedLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.held[key]; ok {
		return nil, cache.ErrLockNotAcquired
	}
	f.locks++
	value := time.Now().String()
	f.held[key] = value
	return &cache.DistributedLock{Key: key, Value: value, Expiration: expiration}, nil
}

func (f *fakeRedis) Unlock(ctx context.Context, lock *cache.DistributedLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[lock.Key] != lock.Value {
		return cache.ErrLockNotHeld
	}
	f.unlocks++
	delete(f.held, lock.Key)
	return nil
}

func TestRedisLocker_SerializesAndReleases(t *testing.T) {
	fake := &fakeRedis{held: map[string]string{}}
	l := NewRedisLocker(fake, "lock:issue:", time.Second, time.Second, logger.Discard())

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "42")
			if !assert.NoError(t, err) {
				return
			}
			counter++
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, counter)
	assert.Equal(t, 10, fake.locks)
	assert.Equal(t, 10, fake.unlocks)
	assert.Empty(t, fake.held)
}

func TestRedisLocker_TimesOutWhenHeldElsewhere(t *testing.T) {
	fake := &fakeRedis{held: map[string]string{"lock:issue:42": "other-instance"}}
	l := NewRedisLocker(fake, "lock:issue:", time.Second, 60*time.Millisecond, logger.Discard())

	_, err := l.Acquire(context.Background(), "42")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 0, l.local.Len())
}
