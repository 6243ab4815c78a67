// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkravets/contactly/internal/platform/constants"
)

// # Redis Implementation

// RedisCache is a shared [Cache] backed by Redis.
//
// # Why shared?
//
// When the API runs as multiple instances, an Invalidate on one instance
// (password change, logout) must be visible to all of them. Redis gives the
// fleet a single cache with server-side TTL expiry for free.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed identity cache with the given entry TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

/*
GetOrLoad implements [Cache].

Description: Snapshots are stored as JSON under a per-subject key with the
configured TTL. redis.Nil reads as a miss; an unreadable stored payload also
reads as a miss (the entry is re-loaded and overwritten) rather than
surfacing a deserialization error to the request path.

Parameters:
  - ctx: context.Context
  - subjectID: string
  - load: Loader

Returns:
  - *Identity: Snapshot copy
  - error: Loader failures unmodified, or Redis connectivity errors
*/
func (cache *RedisCache) GetOrLoad(ctx context.Context, subjectID string, load Loader) (*Identity, error) {
	key := cacheKey(subjectID)

	payload, err := cache.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		snapshot := &Identity{}
		if unmarshalErr := json.Unmarshal([]byte(payload), snapshot); unmarshalErr == nil {
			return snapshot, nil
		}
		// Corrupt payload: fall through to a fresh load which overwrites it.

	case errors.Is(err, redis.Nil):
		// Plain miss: fall through to the loader.

	default:
		return nil, fmt.Errorf("identity_cache_get_failed: %w", err)
	}

	loaded, err := load(ctx, subjectID)
	if err != nil {
		// Never cache failures or absence.
		return nil, err
	}

	encoded, err := json.Marshal(loaded)
	if err != nil {
		return nil, fmt.Errorf("identity_cache_encode_failed: %w", err)
	}

	// Last write wins on racing loads for the same subject.
	if err := cache.client.Set(ctx, key, encoded, cache.ttl).Err(); err != nil {
		return nil, fmt.Errorf("identity_cache_set_failed: %w", err)
	}

	return loaded, nil
}

/*
Invalidate implements [Cache]. DEL on an absent key is a Redis no-op.
*/
func (cache *RedisCache) Invalidate(ctx context.Context, subjectID string) error {
	if err := cache.client.Del(ctx, cacheKey(subjectID)).Err(); err != nil {
		return fmt.Errorf("identity_cache_invalidate_failed: %w", err)
	}
	return nil
}

// cacheKey maps a subject ID onto the Redis key taxonomy.
func cacheKey(subjectID string) string {
	return constants.RedisPrefixIdentity + subjectID
}
