package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
	stale     bool
}

// MemoryCache is a process-local LayerCache
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Scope]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[Scope]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, scope Scope) (Snapshot, bool, bool) {
	c.mu.RLock()
	entry, found := c.entries[scope]
	c.mu.RUnlock()

	if !found {
		return Snapshot{}, false, false
	}
	fresh := !entry.stale && c.now().Before(entry.expiresAt)
	return entry.snap, fresh, true
}

func (c *MemoryCache) Set(_ context.Context, snap Snapshot) error {
	c.mu.Lock()
	c.entries[snap.Scope] = memoryEntry{
		snap:      snap,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, scope Scope) {
	c.mu.Lock()
	if entry, ok := c.entries[scope]; ok {
		entry.stale = true
		c.entries[scope] = entry
	}
	c.mu.Unlock()
}

func (c *MemoryCache) InvalidateOrg(_ context.Context, orgID string) {
	c.mu.Lock()
	for scope, entry := range c.entries {
		if scope.OrgID == orgID {
			entry.stale = true
			c.entries[scope] = entry
		}
	}
	c.mu.Unlock()
}

func (c *MemoryCache) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	for scope, entry := range c.entries {
		entry.stale = true
		c.entries[scope] = entry
	}
	c.mu.Unlock()
}

func (c *MemoryCache) Scopes(_ context.Context) []Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	scopes := make([]Scope, 0, len(c.entries))
	for scope := range c.entries {
		scopes = append(scopes, scope)
	}
	return scopes
}
