// internal/lock/lock.go
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLocked is returned by Acquire when another holder owns the key.
var ErrLocked = errors.New("lock already held")

// Locker grants short-lived exclusive ownership of a key.
type Locker interface {
	// Acquire does not block. The returned release func is idempotent.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
