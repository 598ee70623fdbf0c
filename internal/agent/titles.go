package agent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TitleCache persists titles derived from chat history, keyed by workspace
// hash and chat ID. cursor-agent names most chats "New Agent"; derived
// titles are computed once and reused across runs. Index rebuilds read it
// from worker goroutines while the UI writes, so all methods are safe for
// concurrent use.
type TitleCache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]map[string]titleEntry
	dirty   bool
}

type titleEntry struct {
	Title     string `json:"title"`
	UpdatedMS int64  `json:"updated_ms"`
}

type titleCacheFile struct {
	Version    int                              `json:"version"`
	Workspaces map[string]map[string]titleEntry `json:"workspaces"`
}

// LoadTitleCache reads the cache at path. Missing or corrupt files yield an
// empty cache; the cache is advisory and never blocks anything.
func LoadTitleCache(path string) *TitleCache {
	c := &TitleCache{path: path, entries: map[string]map[string]titleEntry{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var f titleCacheFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return c
	}
	for hash, chats := range f.Workspaces {
		for id, e := range chats {
			if strings.TrimSpace(e.Title) == "" {
				continue
			}
			c.set(hash, id, e)
		}
	}
	c.dirty = false
	return c
}

// Get returns the cached title for a chat, or "" when absent.
func (c *TitleCache) Get(hash, chatID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if chats, ok := c.entries[hash]; ok {
		return chats[chatID].Title
	}
	return ""
}

// Set records a derived title. Empty titles are ignored.
func (c *TitleCache) Set(hash, chatID, title string) {
	t := strings.TrimSpace(title)
	if t == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if chats, ok := c.entries[hash]; ok && chats[chatID].Title == t {
		return
	}
	c.set(hash, chatID, titleEntry{Title: t, UpdatedMS: time.Now().UnixMilli()})
}

func (c *TitleCache) set(hash, chatID string, e titleEntry) {
	chats, ok := c.entries[hash]
	if !ok {
		chats = map[string]titleEntry{}
		c.entries[hash] = chats
	}
	chats[chatID] = e
	c.dirty = true
}

// Dirty reports whether Set changed anything since the last Flush.
func (c *TitleCache) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Flush writes the cache atomically. No-op when nothing changed.
func (c *TitleCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	f := titleCacheFile{Version: 1, Workspaces: c.entries}
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return err
	}
	c.dirty = false
	return nil
}
