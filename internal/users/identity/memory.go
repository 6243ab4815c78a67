// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package identity

import (
	"context"
	"sync"
	"time"
)

// # In-Memory Implementation

// cacheEntry pairs a snapshot with its insertion time for lazy expiry checks.
type cacheEntry struct {
	identity   Identity
	insertedAt time.Time
}

// MemoryCache is a process-local [Cache] backed by a mutex-guarded map.
//
// # Concurrency
//
// Reads and writes to distinct keys never corrupt each other; racing loads
// of the same key are allowed and the last writer wins. There is
// deliberately no per-key in-flight lock: duplicate idempotent repository
// reads are cheaper than the coordination they would replace.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	clock   func() time.Time
}

// NewMemoryCache creates a MemoryCache with the given entry TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		clock:   time.Now,
	}
}

/*
GetOrLoad implements [Cache].

Description: A hit (entry present and younger than TTL) returns the snapshot
without invoking the loader. A miss invokes the loader, stores the result
with a fresh insertion time, and returns it. Nothing is cached on loader
failure.

Parameters:
  - ctx: context.Context
  - subjectID: string
  - load: Loader

Returns:
  - *Identity: Snapshot copy
  - error: Loader failures, unmodified
*/
func (cache *MemoryCache) GetOrLoad(ctx context.Context, subjectID string, load Loader) (*Identity, error) {

	// Fast path: shared read lock, lazy expiry check.
	cache.mu.RLock()
	entry, found := cache.entries[subjectID]
	cache.mu.RUnlock()

	if found && !cache.expired(entry) {
		snapshot := entry.identity
		return &snapshot, nil
	}

	// Miss (absent or past TTL): fall back to the authoritative store.
	// The lock is NOT held across the load — the loader performs I/O.
	loaded, err := load(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	// Store a detached copy. Racing loaders for the same key simply
	// overwrite each other; the last write wins.
	cache.mu.Lock()
	cache.entries[subjectID] = cacheEntry{
		identity:   *loaded,
		insertedAt: cache.clock(),
	}
	cache.mu.Unlock()

	snapshot := *loaded
	return &snapshot, nil
}

/*
Invalidate implements [Cache]. Removing an absent key is a no-op.
*/
func (cache *MemoryCache) Invalidate(_ context.Context, subjectID string) error {
	cache.mu.Lock()
	delete(cache.entries, subjectID)
	cache.mu.Unlock()
	return nil
}

// EvictExpired removes every entry past its TTL and reports how many were dropped.
//
// # Optimization Only
//
// Correctness never depends on this running: GetOrLoad treats an expired
// entry as absent on its own. Sweeping just bounds memory growth for
// subjects that stop making requests.
func (cache *MemoryCache) EvictExpired() int {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	evicted := 0
	for subjectID, entry := range cache.entries {
		if cache.expired(entry) {
			delete(cache.entries, subjectID)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs EvictExpired on the given interval until ctx is done.
func (cache *MemoryCache) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cache.EvictExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Len reports the current number of entries, expired or not. Test hook.
func (cache *MemoryCache) Len() int {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return len(cache.entries)
}

// expired reports whether the entry is older than the configured TTL.
func (cache *MemoryCache) expired(entry cacheEntry) bool {
	return cache.clock().Sub(entry.insertedAt) >= cache.ttl
}
