// Package workspace resolves cursor-agent workspace hashes back to
// filesystem paths. The hash is md5(cwd) and cannot be reversed, so
// identity comes from observation (running in a directory) or inference
// (Cursor IDE history), persisted across runs.
package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Confidence ranks how a hash→path binding was established. Higher values
// are stronger; bindings only ever upgrade.
type Confidence int

const (
	Unknown Confidence = iota
	Inferred
	Observed
)

func (c Confidence) String() string {
	switch c {
	case Observed:
		return "observed"
	case Inferred:
		return "inferred"
	}
	return "unknown"
}

// MarshalJSON writes the confidence as its lowercase name.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the lowercase names; anything else is Unknown.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "observed":
		*c = Observed
	case "inferred":
		*c = Inferred
	default:
		*c = Unknown
	}
	return nil
}

// Entry is one persisted hash→path binding.
type Entry struct {
	Path       string     `json:"path"`
	Confidence Confidence `json:"confidence"`
	LastSeenMS int64      `json:"last_seen_ms,omitempty"`
}

// Map is the persisted workspace mapping backing a Resolver. It is not
// safe for concurrent use; Resolver serializes access.
type Map struct {
	path    string
	entries map[string]Entry
	dirty   bool
}

type mapFile struct {
	Version    int              `json:"version"`
	Workspaces map[string]Entry `json:"workspaces"`
}

// LoadMap reads the mapping at path. A missing or corrupt file yields an
// empty map; losing the mapping degrades display names, nothing else.
func LoadMap(path string) *Map {
	m := &Map{path: path, entries: map[string]Entry{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		return m
	}

	var f mapFile
	if err := json.Unmarshal(raw, &f); err == nil && f.Workspaces != nil {
		for hash, e := range f.Workspaces {
			if e.Path == "" {
				continue
			}
			if e.Confidence == Unknown {
				// Files written before confidence existed only ever
				// recorded observed paths.
				e.Confidence = Observed
			}
			m.entries[hash] = e
		}
		return m
	}

	// Legacy format: a flat {hash: "/path"} object.
	var legacy map[string]string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		for hash, p := range legacy {
			if p == "" {
				continue
			}
			m.entries[hash] = Entry{Path: p, Confidence: Observed}
		}
	}
	return m
}

// Lookup returns the entry for a hash, if any.
func (m *Map) Lookup(hash string) (Entry, bool) {
	e, ok := m.entries[hash]
	return e, ok
}

// Record binds hash to path at the given confidence. Weaker confidence
// never overwrites stronger; equal confidence refreshes the timestamp and
// path. Reports whether anything changed.
func (m *Map) Record(hash, path string, conf Confidence) bool {
	if hash == "" || path == "" || conf == Unknown {
		return false
	}
	cur, ok := m.entries[hash]
	if ok && cur.Confidence > conf {
		return false
	}
	if ok && cur.Confidence == conf && cur.Path == path {
		return false
	}
	m.entries[hash] = Entry{Path: path, Confidence: conf, LastSeenMS: time.Now().UnixMilli()}
	m.dirty = true
	return true
}

// Len returns the number of bindings.
func (m *Map) Len() int { return len(m.entries) }

// Dirty reports whether Record changed anything since the last Flush.
func (m *Map) Dirty() bool { return m.dirty }

// Flush writes the mapping atomically via a temp file rename. No-op when
// nothing changed.
func (m *Map) Flush() error {
	if !m.dirty {
		return nil
	}
	raw, err := json.MarshalIndent(mapFile{Version: 1, Workspaces: m.entries}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return err
	}
	m.dirty = false
	return nil
}
