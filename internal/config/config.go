// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"INKWELL_DB_PATH" envDefault:"./data/inkwell.db"`
	SessionSecret string `env:"INKWELL_SESSION_SECRET,required"`
	ServerHost    string `env:"INKWELL_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"INKWELL_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"INKWELL_ENV" envDefault:"development"`
	LogLevel      string `env:"INKWELL_LOG_LEVEL" envDefault:"info"`

	// Storage directories
	UploadsDir string `env:"INKWELL_UPLOADS_DIR" envDefault:"./uploads"` // Payment proofs, covers, avatars
	ContentDir string `env:"INKWELL_CONTENT_DIR" envDefault:"./content"` // File-backed book bodies

	// Cache configuration
	RedisURL     string `env:"INKWELL_REDIS_URL"`                          // Optional Redis URL for distributed caching
	CachePrefix  string `env:"INKWELL_CACHE_PREFIX" envDefault:"inkwell:"` // Redis key prefix
	CacheTTL     int    `env:"INKWELL_CACHE_TTL" envDefault:"3600"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"INKWELL_CACHE_MAX_SIZE" envDefault:"10000"`  // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"INKWELL_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Upload limits
	MaxUploadBytes int64 `env:"INKWELL_MAX_UPLOAD_BYTES" envDefault:"10485760"` // 10 MB

	// Seeding configuration
	DoSeed bool `env:"INKWELL_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("INKWELL_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("INKWELL_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("INKWELL_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
