package lock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trust_donations/internal/usecase/interfaces"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keyPrefix = "lock:"

// Deletes the key only while it still holds our token, so an expired lease
// taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a best-effort lease on a single Redis key.
type RedisLock struct {
	client *redis.Client
	logger *zap.Logger
}

var _ interfaces.ISweepLock = (*RedisLock)(nil)

// NewRedisClient accepts either a redis:// URL or a plain host:port address.
func NewRedisClient(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	}), nil
}

func NewRedisLock(client *redis.Client, logger *zap.Logger) *RedisLock {
	return &RedisLock{client: client, logger: logger.Named("lock")}
}

func (l *RedisLock) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	key := keyPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn("releasing lease failed; it will expire", zap.String("key", key), zap.Error(err))
		}
	}
	return release, true, nil
}

// NoopLock always grants the lease. Used when no Redis is configured.
type NoopLock struct{}

var _ interfaces.ISweepLock = NoopLock{}

func (NoopLock) Acquire(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}
