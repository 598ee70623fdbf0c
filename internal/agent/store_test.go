package agent

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeStoreDB creates a chat store.db fixture with the given meta object
// and blobs, mirroring what cursor-agent writes.
func writeStoreDB(t *testing.T, dir string, meta map[string]any, blobs map[string][]byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "store.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)",
		"CREATE TABLE IF NOT EXISTS blobs (id TEXT PRIMARY KEY, data BLOB)",
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec("INSERT INTO meta (key, value) VALUES ('0', ?)", hex.EncodeToString(raw)); err != nil {
			t.Fatal(err)
		}
	}
	for id, data := range blobs {
		if _, err := db.Exec("INSERT INTO blobs (id, data) VALUES (?, ?)", id, data); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func testDirs(t *testing.T) Dirs {
	t.Helper()
	return Dirs{ConfigDir: t.TempDir()}
}

func TestListWorkspacesMissingRoot(t *testing.T) {
	store := NewStore(Dirs{ConfigDir: filepath.Join(t.TempDir(), "nope")})
	_, err := store.ListWorkspaces(context.Background())
	if err == nil {
		t.Fatal("expected error for missing chats root")
	}
	if !errors.Is(err, ErrStorageRootMissing) {
		t.Fatalf("want ErrStorageRootMissing, got %v", err)
	}
}

func TestListWorkspacesFiltersNonHashDirs(t *testing.T) {
	dirs := testDirs(t)
	hash := MD5Hex("/home/u/proj")
	for _, name := range []string{hash, "not-a-hash", ".hidden"} {
		if err := os.MkdirAll(filepath.Join(dirs.ChatsDir(), name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// A stray file at the root must be ignored too.
	if err := os.WriteFile(filepath.Join(dirs.ChatsDir(), MD5Hex("file")), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dirs)
	recs, err := store.ListWorkspaces(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Hash != hash {
		t.Fatalf("want exactly [%s], got %+v", hash, recs)
	}
}

func TestListChatsReadsMetaAndSorts(t *testing.T) {
	dirs := testDirs(t)
	hash := MD5Hex("/w")
	wsDir := filepath.Join(dirs.ChatsDir(), hash)

	writeStoreDB(t, filepath.Join(wsDir, "chat-old"), map[string]any{
		"agentId": "chat-old", "name": "Old", "mode": "default",
		"createdAt": time.Now().Add(-2 * time.Hour).UnixMilli(),
	}, nil)
	writeStoreDB(t, filepath.Join(wsDir, "chat-new"), map[string]any{
		"agentId": "chat-new", "name": "New", "mode": "default",
		"createdAt": time.Now().UnixMilli(),
	}, nil)

	// Force distinct mtimes so the sort is driven by them.
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(wsDir, "chat-old", "store.db"), old, old); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dirs)
	chats, err := store.ListChats(context.Background(), hash)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 2 {
		t.Fatalf("want 2 chats, got %d", len(chats))
	}
	if chats[0].ID != "chat-new" || chats[1].ID != "chat-old" {
		t.Fatalf("wrong order: %s, %s", chats[0].ID, chats[1].ID)
	}
	if chats[0].Title != "New" {
		t.Fatalf("title = %q", chats[0].Title)
	}
	if chats[0].Unreadable || chats[1].Unreadable {
		t.Fatal("readable chats flagged unreadable")
	}
}

func TestListChatsDegradesUnreadable(t *testing.T) {
	dirs := testDirs(t)
	hash := MD5Hex("/w")
	wsDir := filepath.Join(dirs.ChatsDir(), hash)

	writeStoreDB(t, filepath.Join(wsDir, "good"), map[string]any{
		"agentId": "good", "name": "Fine", "createdAt": int64(1000),
	}, nil)

	// Garbage store.db: must still be listed, flagged unreadable.
	badDir := filepath.Join(wsDir, "bad")
	if err := os.MkdirAll(badDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "store.db"), []byte("not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}

	// No store.db at all: also listed.
	if err := os.MkdirAll(filepath.Join(wsDir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dirs)
	chats, err := store.ListChats(context.Background(), hash)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 3 {
		t.Fatalf("want 3 chats, got %d: %+v", len(chats), chats)
	}
	byID := map[string]ChatMeta{}
	for _, c := range chats {
		byID[c.ID] = c
	}
	if byID["good"].Unreadable {
		t.Fatal("good chat flagged unreadable")
	}
	for _, id := range []string{"bad", "empty"} {
		c := byID[id]
		if !c.Unreadable {
			t.Fatalf("%s not flagged unreadable", id)
		}
		if c.Err == "" {
			t.Fatalf("%s missing error detail", id)
		}
	}
}

func TestListChatsSortTiebreakByID(t *testing.T) {
	ts := time.Unix(1000, 0)
	chats := []ChatMeta{
		{ID: "b", UpdatedAt: ts},
		{ID: "a", UpdatedAt: ts},
		{ID: "c", UpdatedAt: ts.Add(time.Second)},
	}
	SortChats(chats)
	got := chats[0].ID + chats[1].ID + chats[2].ID
	if got != "cab" {
		t.Fatalf("order = %q, want cab", got)
	}
}

func TestReadChatMetaKeyValueFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE meta (key TEXT, value TEXT)"); err != nil {
		t.Fatal(err)
	}
	for k, v := range map[string]string{"agentId": "c1", "name": "KV Chat", "mode": "plan"} {
		if _, err := db.Exec("INSERT INTO meta VALUES (?, ?)", k, v); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	rec, err := ReadChatMeta(path)
	if err != nil {
		t.Fatal(err)
	}
	if rec.AgentID != "c1" || rec.Name != "KV Chat" || rec.Mode != "plan" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestStoreCacheResetForcesRescan(t *testing.T) {
	dirs := testDirs(t)
	hash := MD5Hex("/w")
	writeStoreDB(t, filepath.Join(dirs.ChatsDir(), hash, "c1"), map[string]any{"agentId": "c1", "name": "One"}, nil)

	store := NewStore(dirs)
	ctx := context.Background()
	if _, err := store.ListWorkspaces(ctx); err != nil {
		t.Fatal(err)
	}

	hash2 := MD5Hex("/w2")
	writeStoreDB(t, filepath.Join(dirs.ChatsDir(), hash2, "c2"), map[string]any{"agentId": "c2", "name": "Two"}, nil)

	recs, err := store.ListWorkspaces(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("cache miss: got %d workspaces before reset", len(recs))
	}

	store.ResetCache()
	recs, err = store.ListWorkspaces(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 workspaces after reset, got %d", len(recs))
	}
}
