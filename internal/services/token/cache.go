package token

import (
	"sync"
	"time"
)

// Cache holds short-lived access tokens keyed by session id. It replaces the
// ad hoc module-level token caching of earlier revisions with an explicit
// object that takes an injectable clock, so expiry can be tested with a fake
// time source.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	token     string
	expiresAt time.Time
}

// NewCache creates a token cache using the real clock
func NewCache() *Cache {
	return NewCacheWithClock(time.Now)
}

// NewCacheWithClock creates a token cache with a custom time source
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     now,
	}
}

// Get returns a cached token if present and not expired
func (c *Cache) Get(sessionID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[sessionID]
	if !ok || !c.now().Before(entry.expiresAt) {
		delete(c.entries, sessionID)
		return "", false
	}
	return entry.token, true
}

// Put stores a token with an absolute expiry
func (c *Cache) Put(sessionID, token string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sessionID] = cacheEntry{token: token, expiresAt: expiresAt}
}

// Invalidate drops a session's cached token
func (c *Cache) Invalidate(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
}
