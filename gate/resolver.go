package gate

import (
	"context"
	"sync"
	"time"
)

// GrantResolver resolves a user id to its role and granted permission codes.
// Implementations typically read from a database.
type GrantResolver interface {
	Resolve(ctx context.Context, userID uint) (Role, GrantSet, error)
}

// CachedResolver wraps a GrantResolver with TTL-based caching so the
// database is not hit on every authorization check.
type CachedResolver struct {
	inner GrantResolver
	cache map[uint]*cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
}

type cacheEntry struct {
	role      Role
	grants    GrantSet
	expiresAt time.Time
}

// NewCachedResolver wraps a resolver with caching.
// ttl is how long grants are cached before re-fetching.
func NewCachedResolver(inner GrantResolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		inner: inner,
		cache: make(map[uint]*cacheEntry),
		ttl:   ttl,
	}
}

// Resolve returns the role and grants for the given user, using the cache
// when the entry has not expired.
func (r *CachedResolver) Resolve(ctx context.Context, userID uint) (Role, GrantSet, error) {
	r.mu.RLock()
	entry, ok := r.cache[userID]
	r.mu.RUnlock()

	if ok && time.Now().Before(entry.expiresAt) {
		return entry.role, entry.grants, nil
	}

	role, grants, err := r.inner.Resolve(ctx, userID)
	if err != nil {
		return RoleUnknown, nil, err
	}

	r.mu.Lock()
	r.cache[userID] = &cacheEntry{
		role:      role,
		grants:    grants,
		expiresAt: time.Now().Add(r.ttl),
	}
	r.mu.Unlock()

	return role, grants, nil
}

// Invalidate removes a user from the cache.
// Call this when a user's role or grants change.
func (r *CachedResolver) Invalidate(userID uint) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.mu.Unlock()
}

// InvalidateAll clears the entire cache.
func (r *CachedResolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[uint]*cacheEntry)
	r.mu.Unlock()
}
