// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, TokenCodec) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Cache Drivers

const (
	// CacheDriverRedis selects the shared Redis identity cache (default).
	CacheDriverRedis = "redis"

	// CacheDriverMemory selects the in-process identity cache. Only suitable
	// for single-instance deployments and local development.
	CacheDriverMemory = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the Contactly API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// CacheDriver selects the identity cache backend ("redis" or "memory").
	CacheDriver string `env:"CACHE_DRIVER" envDefault:"redis"`

	// Token signing. The secret is process-wide; rotating it invalidates
	// every outstanding token.
	JWTSecret string `env:"JWT_SECRET,required"`

	// Session lifetimes. The loader enforces AccessTokenTTL < RefreshTokenTTL.
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"   envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL"  envDefault:"720h"`

	// IdentityCacheTTL bounds how stale a cached identity snapshot may be.
	IdentityCacheTTL time.Duration `env:"IDENTITY_CACHE_TTL" envDefault:"5m"`

	// ExtraOrigins lists additional CORS origins (comma-separated) allowed
	// on top of the first-party contactly.app domains. Used for staging
	// frontends and partner embeds.
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Misordered lifetimes would silently break the refresh flow, so they
	// are rejected at startup rather than at the first login.
	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return nil, fmt.Errorf("config: ACCESS_TOKEN_TTL (%s) must be shorter than REFRESH_TOKEN_TTL (%s)",
			cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}

	if cfg.CacheDriver != CacheDriverRedis && cfg.CacheDriver != CacheDriverMemory {
		return nil, fmt.Errorf("config: unknown CACHE_DRIVER %q", cfg.CacheDriver)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra CORS origins from EXTRA_ORIGINS, split
// on commas with surrounding whitespace and empty entries dropped.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}

	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
