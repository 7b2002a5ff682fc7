package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/pkg/cache"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

const lastChangeTTL = 24 * time.Hour

type changeRedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisChangePublisher mirrors change notices to a Redis channel so other instances
// and external dashboards can refresh, and remembers the last notice per group.
type RedisChangePublisher struct {
	client  changeRedisClient
	channel string
	logger  *zap.Logger
}

// NewRedisChangePublisher constructs the publisher. A nil client disables it.
func NewRedisChangePublisher(client changeRedisClient, channel string, logger *zap.Logger) *RedisChangePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel == "" {
		channel = cache.Key("changes")
	}
	return &RedisChangePublisher{client: client, channel: channel, logger: logger}
}

// Publish sends the notice and stores it as the group's last change.
func (p *RedisChangePublisher) Publish(ctx context.Context, notice models.ChangeNotice) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal change notice: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	key := lastChangeKey(notice.GroupID)
	if err := p.client.Set(ctx, key, payload, lastChangeTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// LastChange returns the most recent notice of a group or ErrCacheMiss.
func (p *RedisChangePublisher) LastChange(ctx context.Context, groupID string) (*models.ChangeNotice, error) {
	if p.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	key := lastChangeKey(groupID)
	raw, err := p.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var notice models.ChangeNotice
	if err := json.Unmarshal(raw, &notice); err != nil {
		return nil, fmt.Errorf("unmarshal change notice for %s: %w", key, err)
	}
	return &notice, nil
}

func lastChangeKey(groupID string) string {
	return cache.Key("groups", groupID, "last-change")
}
