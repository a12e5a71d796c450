package actionclient

import (
	"context"
	"sync"
	"time"
)

// Cache stores responses for the CacheResponses stage.
type Cache interface {
	Get(key string) (*Response, bool)
	Set(key string, resp *Response, ttl time.Duration)
	Delete(key string)
	Clear()
}

type cacheEntry struct {
	resp      *Response
	expiresAt time.Time
}

// InMemoryCache is a Cache backed by a map.  It's safe for concurrent use.
// Expired entries are removed when they're next read.
type InMemoryCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	now   func() time.Time
}

// NewInMemoryCache creates a new, empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		store: map[string]cacheEntry{},
		now:   time.Now,
	}
}

// Get implements Cache.
func (c *InMemoryCache) Get(key string) (*Response, bool) {
	c.mu.RLock()
	entry, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.deleteExpired(key)
		return nil, false
	}
	return entry.resp.Clone(), true
}

// deleteExpired deletes key if it's still expired.  It may have been
// replaced since it was read.
func (c *InMemoryCache) deleteExpired(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.store[key]; ok && c.now().After(entry.expiresAt) {
		delete(c.store, key)
	}
}

// Set implements Cache.
func (c *InMemoryCache) Set(key string, resp *Response, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = cacheEntry{resp: resp.Clone(), expiresAt: c.now().Add(ttl)}
}

// Delete implements Cache.
func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

// Clear implements Cache.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = map[string]cacheEntry{}
}

// Len returns the number of entries, including expired entries which
// haven't been removed yet.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// CacheKey is the default cache key: method and URL.
func CacheKey(req *Request) string {
	if req.URL == nil {
		return req.Method + ":"
	}
	return req.Method + ":" + req.URL.String()
}

// CacheConfig configures the CacheResponses stage.
type CacheConfig struct {
	// Store holds the cached responses.  Defaults to a new InMemoryCache.
	Store Cache

	// TTL is how long responses are cached.  Defaults to one minute.
	TTL time.Duration

	// Key computes the cache key of a request.  Defaults to CacheKey.
	Key func(*Request) string

	// Cacheable decides whether a request may be answered from the cache.
	// Defaults to GET and HEAD requests.
	Cacheable func(*Request) bool
}

// CacheResponses is an inbound stage which answers repeated requests from a cache, without calling the
// rest of the chain.  Only 2XX responses without errors are stored.
//
// Stages after CacheResponses in the chain (and the adapter) are skipped
// on cache hits, so put it early in the chain.
func CacheResponses(config *CacheConfig) Stage {
	var c CacheConfig
	if config != nil {
		c = *config
	}
	if c.Store == nil {
		c.Store = NewInMemoryCache()
	}
	if c.TTL <= 0 {
		c.TTL = time.Minute
	}
	if c.Key == nil {
		c.Key = CacheKey
	}
	if c.Cacheable == nil {
		c.Cacheable = func(req *Request) bool {
			return req.Method == MethodGet || req.Method == MethodHead
		}
	}

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if !c.Cacheable(req) {
				return next.Handle(ctx, req)
			}

			key := c.Key(req)
			if resp, ok := c.Store.Get(key); ok {
				resp.Request = req
				return resp, nil
			}

			resp, err := next.Handle(ctx, req)
			if err == nil && resp != nil && resp.StatusCode >= 200 && resp.StatusCode <= 299 {
				c.Store.Set(key, resp, c.TTL)
			}
			return resp, err
		})
	}
}
