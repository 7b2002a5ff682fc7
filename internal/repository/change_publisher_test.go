package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

type fakeChangeRedis struct {
	published map[string][]string
	values    map[string]string
	failSet   bool
}

func newFakeChangeRedis() *fakeChangeRedis {
	return &fakeChangeRedis{published: map[string][]string{}, values: map[string]string{}}
}

func (f *fakeChangeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.published[channel] = append(f.published[channel], string(message.([]byte)))
	return redis.NewIntResult(1, nil)
}

func (f *fakeChangeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if f.failSet {
		return redis.NewStatusResult("", errors.New("readonly replica"))
	}
	f.values[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeChangeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestRedisChangePublisherPublishAndLastChange(t *testing.T) {
	client := newFakeChangeRedis()
	pub := NewRedisChangePublisher(client, "", nil)
	at := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, pub.Publish(context.Background(), models.ChangeNotice{GroupID: "grp-1", Operation: "scheduling.run", At: at}))
	assert.Len(t, client.published["certisched:changes"], 1)

	last, err := pub.LastChange(context.Background(), "grp-1")
	require.NoError(t, err)
	assert.Equal(t, "scheduling.run", last.Operation)
	assert.True(t, at.Equal(last.At))
}

func TestRedisChangePublisherMiss(t *testing.T) {
	pub := NewRedisChangePublisher(newFakeChangeRedis(), "changes", nil)
	_, err := pub.LastChange(context.Background(), "grp-2")
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}

func TestRedisChangePublisherSetFailure(t *testing.T) {
	client := newFakeChangeRedis()
	client.failSet = true
	pub := NewRedisChangePublisher(client, "changes", nil)
	err := pub.Publish(context.Background(), models.ChangeNotice{GroupID: "grp-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set")
}
