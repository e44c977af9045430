package ctxcomp

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is an interface for a cache that can be used with Cached. The cache must be safe for
// concurrent use.
type Cache interface {
	// Get returns the value for the given key, and whether it was found.
	Get(ctx context.Context, key string) (any, bool)

	// SetTTL sets the value for the given key with a time-to-live. A TTL of 0 uses the cache's
	// default expiration.
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration)
}

// MemoryCache is an in-process Cache backed by go-cache.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache returns an in-memory cache. Expired items are removed every cleanupInterval.
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(defaultExpiration, cleanupInterval)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *MemoryCache) SetTTL(_ context.Context, key string, value any, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
}

// ItemCount returns the number of items in the cache, including expired ones that have not been
// cleaned up yet.
func (c *MemoryCache) ItemCount() int {
	return c.cache.ItemCount()
}

// CacheKeyFunc derives the cache key for a request. Requests that map to the same key share the
// cached component.
type CacheKeyFunc func(ctx context.Context) (string, error)

// Cached wraps a resolver so that its results are kept in cache for ttl, keyed by keyFn. The
// registry still calls the wrapped resolver on every lookup; it is the wrapper that decides whether
// fn has to run. Errors are never cached.
//
// There is no locking around fn, so concurrent misses for the same key may each call fn. fn must be
// safe for concurrent use, as every resolver must be.
func Cached[T any](cache Cache, ttl time.Duration, keyFn CacheKeyFunc, fn Resolver[T]) Resolver[T] {
	if cache == nil || keyFn == nil || fn == nil {
		panic("Cached requires a cache, a key function and a resolver")
	}
	prefix := "ctxcomp:" + canonicalTypeName(typeOf[T]()) + ":"
	return func(ctx context.Context) (T, error) {
		var zero T
		key, err := keyFn(ctx)
		if err != nil {
			return zero, err
		}
		key = prefix + key
		if cached, ok := cache.Get(ctx, key); ok {
			// A nil component is stored as a nil any, which no interface T asserts from.
			if cached == nil {
				return zero, nil
			}
			if v, ok := cached.(T); ok {
				return v, nil
			}
		}
		v, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		cache.SetTTL(ctx, key, v, ttl)
		return v, nil
	}
}
