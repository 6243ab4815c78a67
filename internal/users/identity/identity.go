// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

/*
Package identity implements the read-through session cache for resolved
user identities.

Every authenticated request must map a token subject to a live account
record. Hitting PostgreSQL for that on every request would make the primary
store the bottleneck of the whole API, so this package keeps short-lived
snapshots keyed by subject ID and falls back to the repository only on miss.

Architecture:

  - Identity: A value-copy snapshot of an account (never the password hash).
  - Cache: The read-through contract (GetOrLoad / Invalidate).
  - MemoryCache: In-process map with lazy TTL expiry, for single-instance runs.
  - RedisCache: Shared cache so multiple instances invalidate together.

Correctness rule: an entry older than its TTL is absent, full stop. Sweeping
(memory) and server-side expiry (Redis) are optimizations on top of that.
*/
package identity

import (
	"context"

	"github.com/mkravets/contactly/internal/platform/sec"
)

// # Cached Snapshot

// Identity is the cached snapshot of a user account.
//
// # Value Semantics
//
// An Identity is always a detached copy: mutating it never writes through to
// the cache or to storage. It deliberately excludes the credential hash —
// cached data must be useless to an attacker who can read the cache.
type Identity struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	Role        sec.UserRole `json:"role"`
	IsVerified  bool         `json:"is_verified"`
}

// # Read-Through Contract

// Loader fetches an identity from the authoritative store on a cache miss.
//
// # Failure Semantics
//
// Loader failures (not-found, repository errors, context cancellation)
// propagate to the caller unmodified and are never cached: absence must not
// be memorized, or newly registered accounts would be invisible until TTL.
type Loader func(ctx context.Context, subjectID string) (*Identity, error)

// Cache is the read-through cache contract shared by both implementations.
type Cache interface {

	/*
		GetOrLoad returns the cached identity for subjectID, or invokes the
		loader on a miss and stores the result with a fresh insertion time.

		Parameters:
		  - ctx: context.Context (cancellation propagates into the loader)
		  - subjectID: string
		  - load: Loader

		Returns:
		  - *Identity: Snapshot copy
		  - error: Loader failures, unmodified
	*/
	GetOrLoad(ctx context.Context, subjectID string, load Loader) (*Identity, error)

	/*
		Invalidate removes any entry for the subject immediately.

		It is a no-op when no entry exists, and must be called after every
		mutation that can change identity data (password change, logout,
		profile update) so stale snapshots cannot be served.

		Parameters:
		  - ctx: context.Context
		  - subjectID: string

		Returns:
		  - error: Backend connectivity failures (memory impl never fails)
	*/
	Invalidate(ctx context.Context, subjectID string) error
}
