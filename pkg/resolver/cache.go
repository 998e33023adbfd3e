package resolver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by Redis, sparing the resolver chain a
// network round trip for keys it has already resolved once within the TTL
// window. Keys are stored base64-encoded since redis strings are
// effectively byte slices but the go-redis client's Get returns a string.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to a Redis instance at addr.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("resolver: redis cache get: %w", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, false, fmt.Errorf("resolver: redis cache value is not valid base64: %w", err)
	}
	return decoded, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded := base64.StdEncoding.EncodeToString(value)
	if err := c.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		return fmt.Errorf("resolver: redis cache set: %w", err)
	}
	return nil
}
