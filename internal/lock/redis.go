// internal/lock/redis.go
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "xrplbot:lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a token-checked release,
// so a lock that expired and was re-acquired elsewhere is never deleted.
type RedisLocker struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewRedisLocker(client redis.UniversalClient, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := keyPrefix + key
	token := ulid.Make().String()

	ok, err := r.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, r.client, []string{fullKey}, token).Err(); err != nil {
			r.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
