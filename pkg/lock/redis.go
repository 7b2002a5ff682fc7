package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/pkg/cache"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

type redisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisConfig tunes the distributed locker.
type RedisConfig struct {
	TTL          time.Duration
	WaitTimeout  time.Duration
	PollInterval time.Duration
	Logger       *zap.Logger
}

// RedisLocker guards a group across several API instances using SET NX PX.
type RedisLocker struct {
	client redisLockClient
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
	logger *zap.Logger
}

// NewRedisLocker builds a distributed locker.
func NewRedisLocker(client redisLockClient, cfg RedisConfig) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &RedisLocker{client: client, ttl: cfg.TTL, wait: cfg.WaitTimeout, poll: cfg.PollInterval, logger: cfg.Logger}
}

// Lock polls until the key is acquired or the wait timeout elapses.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := cache.Key("lock", key)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return releaseOnce(func() { l.release(redisKey, token) }), nil
		}
		if time.Now().After(deadline) {
			return nil, appErrors.Clone(appErrors.ErrLockTimeout, "timed out waiting for group "+key)
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		l.logger.Sugar().Warnw("failed to release group lock", "key", key, "error", err)
	}
}
