package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/winners/pkg/config"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = time.Second // 캐시 조회가 스크리닝보다 느려지면 의미 없음
)

// Client owns the Redis connection behind the screen result cache.
// A disabled client has no connection and every cache call is a miss.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb    *redis.Client
	prefix string
}

// New connects when REDIS_ENABLED is set and fails fast if Redis is unreachable
func New(cfg *config.Config) (*Client, error) {
	c := &Client{prefix: cfg.Redis.Prefix}
	if !cfg.Redis.Enabled {
		return c, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	c.rdb = rdb
	return c, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled reports whether a connection exists
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Redis returns the underlying redis client
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// ScreenCache returns the generation-keyed result cache under the configured prefix
func (c *Client) ScreenCache() *Cache {
	return newCache(c, c.prefix)
}

// CacheHealth is the screen cache section of /health
type CacheHealth struct {
	Enabled      bool          `json:"enabled"`
	Healthy      bool          `json:"healthy"`
	Generation   int64         `json:"generation"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
}

// Health pings Redis and reads the current cache generation.
// A disabled cache is healthy.
func (c *Client) Health(ctx context.Context) CacheHealth {
	h := CacheHealth{Enabled: c.Enabled()}
	if !h.Enabled {
		h.Healthy = true
		return h
	}

	start := time.Now()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		h.Error = err.Error()
		return h
	}
	h.ResponseTime = time.Since(start)

	gen, err := c.ScreenCache().Generation(ctx)
	if err != nil {
		h.Error = err.Error()
		return h
	}
	h.Generation = gen
	h.Healthy = true
	return h
}
