package agent

import (
	"sync"
	"time"
)

// storeCache avoids repeated filesystem scans within one process. All
// fields are lazily populated on first access; Reset forces a rescan.
//
// When ttl is set, cached data expires and is transparently refetched on
// the next access. With ttl=0 (default), data is cached forever.
type storeCache struct {
	mu  sync.RWMutex
	ttl time.Duration

	workspacesCached   bool
	workspacesCachedAt time.Time
	workspaces         []WorkspaceRecord

	// chats is keyed by workspace hash, populated on demand.
	chats map[string]*chatsCacheEntry
}

type chatsCacheEntry struct {
	cachedAt time.Time
	chats    []ChatMeta
}

// SetTTL configures the cache time-to-live. Cached data older than d is
// treated as a miss. Zero means cache forever.
func (c *storeCache) SetTTL(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = d
}

func (c *storeCache) GetWorkspaces() ([]WorkspaceRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.workspacesCached {
		return nil, false
	}
	if c.ttl > 0 && time.Since(c.workspacesCachedAt) > c.ttl {
		return nil, false
	}
	return c.workspaces, true
}

func (c *storeCache) SetWorkspaces(recs []WorkspaceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workspacesCached = true
	c.workspacesCachedAt = time.Now()
	c.workspaces = recs
}

func (c *storeCache) GetChats(hash string) ([]ChatMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.chats[hash]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.cachedAt) > c.ttl {
		return nil, false
	}
	return entry.chats, true
}

func (c *storeCache) SetChats(hash string, chats []ChatMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chats == nil {
		c.chats = make(map[string]*chatsCacheEntry)
	}
	c.chats[hash] = &chatsCacheEntry{cachedAt: time.Now(), chats: chats}
}

// Reset clears everything so the next access rescans the filesystem.
func (c *storeCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workspacesCached = false
	c.workspaces = nil
	c.chats = nil
}
