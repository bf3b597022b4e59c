package notification_service

import (
	"context"

	"github.com/go-redis/redis/v8"
)

const seenSetKey = "alerts:notified"

// SeenStore records which record/ticker pairs have already been
// alerted, so restarts do not re-send old alerts.
type SeenStore interface {
	Contains(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string) error
}

// RedisSeenStore keeps the seen set in a Redis set shared across
// service instances.
type RedisSeenStore struct {
	client *redis.Client
}

// NewRedisSeenStore creates the store.
func NewRedisSeenStore(client *redis.Client) *RedisSeenStore {
	return &RedisSeenStore{client: client}
}

func (s *RedisSeenStore) Contains(ctx context.Context, key string) (bool, error) {
	return s.client.SIsMember(ctx, seenSetKey, key).Result()
}

func (s *RedisSeenStore) Add(ctx context.Context, key string) error {
	return s.client.SAdd(ctx, seenSetKey, key).Err()
}
