// Package cache provides caching for rendered book content and access
// grants, backed by memory or Redis.
package cache

import (
	"context"
	"time"
)

// Cacher is the storage contract shared by the memory and Redis backends.
// Values are raw bytes; TypedCache layers JSON on top. Implementations
// must be safe for concurrent use.
type Cacher interface {
	// Get returns the value for key, or ErrCacheMiss if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero TTL uses the backend's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key starting with prefix. Used to
	// drop all cached pages of a book in one call.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Close releases backend resources.
	Close() error
}

// Error is a sentinel error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
