// Package cache wraps an expiring LRU for request-level result caching.
// Aggregates over a load that refreshes daily stay valid for minutes, so
// identical dashboard requests within the TTL skip the database entirely.
package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a TTL-bounded LRU keyed by operation plus arguments.
type Cache struct {
	lru *expirable.LRU[string, any]
}

// New creates a cache holding up to size entries for ttl each.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Key builds a stable cache key from an operation name and its arguments.
func Key(op string, parts ...any) string {
	var b strings.Builder
	b.WriteString(op)
	for _, part := range parts {
		fmt.Fprintf(&b, "|%v", part)
	}
	return b.String()
}

// GetOrLoad returns the cached value for key or computes and stores it.
// Load errors are never cached.
func GetOrLoad[T any](c *Cache, key string, load func() (T, error)) (T, error) {
	if c != nil {
		if cached, ok := c.lru.Get(key); ok {
			if value, ok := cached.(T); ok {
				return value, nil
			}
		}
	}
	value, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	if c != nil {
		c.lru.Add(key, value)
	}
	return value, nil
}
