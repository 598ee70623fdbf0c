package agent

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrStorageRootMissing is returned when the chats root directory does not
// exist at all. This is the only condition treated as fatal by callers;
// everything below it degrades per item.
var ErrStorageRootMissing = errors.New("cursor-agent chats directory not found")

// WorkspaceRecord is one hash-named subdirectory of the chats root.
type WorkspaceRecord struct {
	Hash string
	Dir  string
}

// ChatMeta describes a single chat without its message content.
// Unreadable chats are still listed: a store.db that cannot be opened or
// parsed yields a ChatMeta with Unreadable set and the directory mtime as
// UpdatedAt, never an absent entry.
type ChatMeta struct {
	ID               string    `json:"id"`
	WorkspaceHash    string    `json:"workspace_hash"`
	Title            string    `json:"title"`
	Mode             string    `json:"mode,omitempty"`
	AgentID          string    `json:"agent_id,omitempty"`
	LatestRootBlobID string    `json:"-"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
	StorePath        string    `json:"store_path"`
	Unreadable       bool      `json:"unreadable,omitempty"`
	Err              string    `json:"error,omitempty"`
}

// Store reads the cursor-agent chat store. All access is read-only; the
// store never mutates cursor-agent's files.
type Store struct {
	dirs  Dirs
	cache storeCache
}

// NewStore creates a Store over the given directories.
func NewStore(dirs Dirs) *Store {
	return &Store{dirs: dirs}
}

// Dirs returns the directories this store reads from.
func (s *Store) Dirs() Dirs { return s.dirs }

// ResetCache drops cached listings, forcing the next calls to rescan.
func (s *Store) ResetCache() { s.cache.Reset() }

// ListWorkspaces returns one record per hash directory under the chats
// root, unordered. A missing chats root is ErrStorageRootMissing; an empty
// one is an empty slice.
func (s *Store) ListWorkspaces(ctx context.Context) ([]WorkspaceRecord, error) {
	if recs, ok := s.cache.GetWorkspaces(); ok {
		return recs, nil
	}

	root := s.dirs.ChatsDir()
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStorageRootMissing, root)
		}
		return nil, fmt.Errorf("read chats root: %w", err)
	}

	var recs []WorkspaceRecord
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() || !IsWorkspaceHash(e.Name()) {
			continue
		}
		recs = append(recs, WorkspaceRecord{
			Hash: strings.ToLower(e.Name()),
			Dir:  filepath.Join(root, e.Name()),
		})
	}
	s.cache.SetWorkspaces(recs)
	return recs, nil
}

// ListChats returns the chats of one workspace, sorted by UpdatedAt
// descending with ID ascending as the tiebreaker. Filesystem and parse
// errors are contained per chat.
func (s *Store) ListChats(ctx context.Context, hash string) ([]ChatMeta, error) {
	if chats, ok := s.cache.GetChats(hash); ok {
		return chats, nil
	}

	dir := filepath.Join(s.dirs.ChatsDir(), hash)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // workspace vanished between scans
		}
		return nil, fmt.Errorf("read workspace dir: %w", err)
	}

	chats := make([]ChatMeta, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}
		chats = append(chats, s.readChat(hash, filepath.Join(dir, e.Name()), e.Name()))
	}

	SortChats(chats)
	s.cache.SetChats(hash, chats)
	return chats, nil
}

// SortChats orders chats newest-first, breaking timestamp ties by ID so
// listings are deterministic across runs.
func SortChats(chats []ChatMeta) {
	sort.SliceStable(chats, func(i, j int) bool {
		ti, tj := chats[i].UpdatedAt, chats[j].UpdatedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return chats[i].ID < chats[j].ID
	})
}

// readChat builds the ChatMeta for one chat directory, degrading to an
// unreadable placeholder on any error.
func (s *Store) readChat(hash, chatDir, chatID string) ChatMeta {
	meta := ChatMeta{
		ID:            chatID,
		WorkspaceHash: hash,
		StorePath:     filepath.Join(chatDir, "store.db"),
	}

	// The store.db mtime is the freshest update signal cursor-agent gives
	// us; meta createdAt only marks chat creation.
	if info, err := os.Stat(meta.StorePath); err == nil {
		meta.UpdatedAt = info.ModTime()
	} else if info, err := os.Stat(chatDir); err == nil {
		meta.UpdatedAt = info.ModTime()
	}

	cm, err := ReadChatMeta(meta.StorePath)
	if err != nil {
		meta.Unreadable = true
		meta.Err = err.Error()
		return meta
	}

	meta.Title = cm.Name
	meta.Mode = cm.Mode
	meta.AgentID = cm.AgentID
	meta.LatestRootBlobID = cm.LatestRootBlobID
	if cm.CreatedAtMS > 0 {
		meta.CreatedAt = time.UnixMilli(cm.CreatedAtMS)
		if meta.UpdatedAt.IsZero() || meta.CreatedAt.After(meta.UpdatedAt) {
			meta.UpdatedAt = meta.CreatedAt
		}
	}
	return meta
}

// chatMetaRecord is the JSON object stored (hex-encoded) in the meta table.
type chatMetaRecord struct {
	AgentID          string `json:"agentId"`
	LatestRootBlobID string `json:"latestRootBlobId"`
	Name             string `json:"name"`
	Mode             string `json:"mode"`
	CreatedAtMS      int64  `json:"createdAt"`
}

// ReadChatMeta reads the meta table of a chat's store.db.
//
// Observed schema: a single row with key "0" whose value is hex-encoded
// JSON bytes. Older stores fall back to a plain key/value map.
func ReadChatMeta(storePath string) (*chatMetaRecord, error) {
	if _, err := os.Stat(storePath); err != nil {
		return nil, fmt.Errorf("stat store.db: %w", err)
	}
	db, err := OpenReadOnly(storePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()

	kv := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan meta row: %w", err)
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read meta rows: %w", err)
	}
	if len(kv) == 0 {
		return nil, errors.New("empty meta table")
	}

	var rec chatMetaRecord
	if len(kv) == 1 {
		for _, v := range kv {
			if obj := decodeHexJSON(v); obj != nil {
				rec = *obj
			}
		}
	}
	if rec.AgentID == "" {
		// Best-effort key/value fallback.
		rec = chatMetaRecord{
			AgentID:          kv["agentId"],
			LatestRootBlobID: kv["latestRootBlobId"],
			Name:             kv["name"],
			Mode:             kv["mode"],
		}
	}
	if rec.AgentID == "" {
		return nil, errors.New("meta table has no agentId")
	}
	if strings.TrimSpace(rec.Name) == "" {
		rec.Name = "Untitled"
	}
	return &rec, nil
}

// decodeHexJSON decodes a value that may be a hex-encoded JSON object or
// plain JSON. Returns nil when it is neither.
func decodeHexJSON(s string) *chatMetaRecord {
	ss := strings.TrimSpace(s)
	if ss == "" {
		return nil
	}
	raw := []byte(ss)
	if len(ss)%2 == 0 && isHex(ss) {
		if decoded, err := hex.DecodeString(ss); err == nil {
			raw = decoded
		}
	}
	var rec chatMetaRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	return &rec
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
