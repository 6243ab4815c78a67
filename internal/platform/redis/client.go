// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

/*
Package redis builds the shared client for volatile, expiring data.

Three subsystems run on it:

  - the identity cache, which keeps authorization snapshots hot so that
    bearer-token checks skip the accounts table;
  - email verification tokens, which outlive a single request but expire
    within a day;
  - password reset tokens, single-use and short-lived.

All three rely on server-side TTLs, so losing the Redis instance degrades
the API to slower database reads without losing durable data.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Timeouts applied to every connection regardless of what the URL says.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

/*
NewClient parses a Redis URL, applies the pool and timeout defaults, and
verifies connectivity with an immediate ping.

# Parameters
  - context: Context bounding the startup ping.
  - redisURL: Redis connection URL.
  - logger: Structured logger for connection events.
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	// Pool sized for token churn plus cache traffic; the idle floor keeps
	// the first login after a quiet period from paying a dial.
	options.PoolSize = 10
	options.MinIdleConns = 2
	options.MaxIdleConns = 5

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	// Fail startup rather than serve requests against a dead instance.
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis client connected",
		slog.String("addr", options.Addr),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping verifies the client is healthy, used at startup and by /ready.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
