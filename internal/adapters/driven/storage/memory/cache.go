package memory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// Ensure ResponseCache implements the interface.
var _ driven.ResponseCache = (*ResponseCache)(nil)

// DefaultCacheSize is the number of responses kept when no size is given.
const DefaultCacheSize = 1024

// ResponseCache is a bounded least-recently-used response cache.
type ResponseCache struct {
	lru *lru.Cache
}

// NewResponseCache creates a cache holding at most size responses.
func NewResponseCache(size int) (*ResponseCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &ResponseCache{lru: c}, nil
}

// Get returns the cached value for key.
func (c *ResponseCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *ResponseCache) Set(_ context.Context, key, value string) error {
	c.lru.Add(key, value)
	return nil
}

// Len returns the number of cached responses.
func (c *ResponseCache) Len() int {
	return c.lru.Len()
}
