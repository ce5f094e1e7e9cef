package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed JSON caching on top of Client.
// 비활성화된 Client에서는 모든 연산이 no-op (항상 miss)
type Cache struct {
	client *Client
	prefix string
}

// newCache binds a cache to client under prefix
func newCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

func (c *Cache) generationKey() string {
	return fmt.Sprintf("%s:generation", c.prefix)
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// Generation returns the current cache generation (0 when never bumped).
// Keys built from an older generation are never read again and expire by TTL.
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	if !c.client.Enabled() {
		return 0, nil
	}

	gen, err := c.client.Redis().Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation failed: %w", err)
	}
	return gen, nil
}

// BumpGeneration invalidates every key derived from the previous generation
func (c *Cache) BumpGeneration(ctx context.Context) (int64, error) {
	if !c.client.Enabled() {
		return 0, nil
	}

	gen, err := c.client.Redis().Incr(ctx, c.generationKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("cache generation bump failed: %w", err)
	}
	return gen, nil
}

// ScreenKey identifies one screen result set by cache generation,
// stored-data fingerprint and criteria
func ScreenKey(generation int64, fingerprint, criteria string) string {
	return fmt.Sprintf("screen:g%d:%s:%s", generation, fingerprint, criteria)
}
