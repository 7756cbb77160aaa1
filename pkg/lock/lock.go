// Package lock serializes work per key, either inside one process or across
// instances through Redis.
package lock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a lock could not be obtained before the
// caller's deadline or the locker's wait limit.
var ErrTimeout = errors.New("timed out waiting for lock")

// Locker hands out exclusive access per key. release must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
