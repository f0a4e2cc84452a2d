package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "transgate:cache:"

// RedisStore shares cached results across gateway processes. Unlike the
// memory store it has no insertion-order bound; capacity is left to Redis
// eviction policy, and entries carry a TTL so a shared cache cannot grow
// without limit.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis using a redis:// URL.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, bool) {
	val, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (s *RedisStore) Put(ctx context.Context, key string, value *Entry) {
	if value == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl)
}

func (s *RedisStore) Len(ctx context.Context) int {
	var count int
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
