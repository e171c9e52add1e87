package cache

import (
	"time"
)

// Config selects and tunes the cache backend.
type Config struct {
	// RedisURL is the Redis connection URL. Empty selects the memory
	// backend.
	RedisURL string

	// Prefix is the key prefix for Redis.
	Prefix string

	// DefaultTTL is applied when Set receives a zero TTL.
	DefaultTTL time.Duration

	// MaxSize caps memory cache entries (0 = unlimited). Ignored by
	// Redis.
	MaxSize int

	// CleanupInterval is the memory backend's expired-entry sweep
	// interval.
	CleanupInterval time.Duration
}

// DefaultConfig returns the memory backend defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:      time.Hour,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	}
}

// NewCache creates a cache from cfg: Redis when a URL is set, memory
// otherwise.
func NewCache(cfg Config) (Cacher, error) {
	if cfg.RedisURL != "" {
		return NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxEntries:      cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	}), nil
}

// NewDefaultCache creates a memory cache with default configuration.
func NewDefaultCache() Cacher {
	cache, _ := NewCache(DefaultConfig())
	return cache
}
