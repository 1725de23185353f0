// Package redis provides a ResponseCache backed by Redis, shared between
// engine instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.ResponseCache = (*Cache)(nil)

// Default configuration values.
const (
	DefaultTTL    = 24 * time.Hour
	DefaultPrefix = "noticealert:cache:"
)

// Options configures a Redis cache.
type Options struct {
	// Addr is the host:port of the Redis server (required).
	Addr string

	// Password authenticates the connection. Optional.
	Password string

	// DB selects the logical database.
	DB int

	// TTL is how long responses are kept (default: 24h).
	TTL time.Duration

	// Prefix namespaces cache keys (default: noticealert:cache:).
	Prefix string
}

// Cache stores provider responses in Redis with a TTL.
type Cache struct {
	client goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Cache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis: address is required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connect to %s: %w", opts.Addr, err)
	}

	return NewWithClient(client, opts.TTL, opts.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, ttl time.Duration, prefix string) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{client: client, ttl: ttl, prefix: prefix}
}

// Get returns the cached value for key.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: get: %w", err)
	}
	return value, true, nil
}

// Set stores value under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

// TTL returns how long entries are kept.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
