package port

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheCorrupt is returned by Get when the stored value cannot be decoded into dest.
var ErrCacheCorrupt = errors.New("cache entry corrupt")

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value from cache into dest, ErrCacheMiss if absent,
	// ErrCacheCorrupt if the stored value does not decode
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value in cache with the given TTL (0 uses the default)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error
}
