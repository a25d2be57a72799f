// Package cache provides the catalog read cache on top of the mono Storage
// interface, backed by Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono/pkg/storage"
)

// CacheService defines the caching operations used by consumers.
type CacheService interface {
	// Get unmarshals the cached value into dest. It reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores a JSON-encoded value with the default TTL.
	Set(ctx context.Context, key string, value any) error

	// SetWithTTL stores a JSON-encoded value with a custom TTL.
	SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// InvalidateAll makes every key written so far unreachable. Only keys of
	// this service's prefix are affected; old entries age out with their TTL.
	InvalidateAll(ctx context.Context) error

	// Close closes the underlying storage connection.
	Close() error
}

type cacheService struct {
	storage storage.Storage
	prefix  string
	ttl     time.Duration
	epoch   atomic.Uint64
}

// NewCacheService creates a CacheService wrapping the provided storage.
func NewCacheService(s storage.Storage, prefix string, ttl time.Duration) CacheService {
	return &cacheService{
		storage: s,
		prefix:  prefix,
		ttl:     ttl,
	}
}

// fullKey is prefix + "e<epoch>:" + key.
func (c *cacheService) fullKey(key string) string {
	return c.prefix + "e" + strconv.FormatUint(c.epoch.Load(), 10) + ":" + key
}

func (c *cacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.storage.GetWithContext(ctx, c.fullKey(key))
	if err != nil {
		return false, fmt.Errorf("cache get error: %w", err)
	}

	// nil or empty means miss
	if len(data) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return true, nil
}

func (c *cacheService) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

func (c *cacheService) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.storage.SetWithContext(ctx, c.fullKey(key), data, ttl); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *cacheService) Delete(ctx context.Context, key string) error {
	if err := c.storage.DeleteWithContext(ctx, c.fullKey(key)); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (c *cacheService) InvalidateAll(_ context.Context) error {
	c.epoch.Add(1)
	return nil
}

func (c *cacheService) Close() error {
	return c.storage.Close()
}
