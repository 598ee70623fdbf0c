package agent

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

// messageBlob embeds a JSON message inside binary padding, matching how
// cursor-agent root blobs look on disk.
func messageBlob(jsonMsg string) []byte {
	var b []byte
	b = append(b, 0x00, 0x01, 0x02, 0xff)
	b = append(b, []byte(jsonMsg)...)
	b = append(b, 0xfe, 0x00)
	return b
}

func TestIterEmbeddedJSON(t *testing.T) {
	blob := messageBlob(`{"role":"user","content":"hi {there}"}`)
	blob = append(blob, messageBlob(`{"role":"assistant","content":"\"quoted } brace\""}`)...)

	objs := iterEmbeddedJSON(blob, 10)
	if len(objs) != 2 {
		t.Fatalf("want 2 objects, got %d", len(objs))
	}
	if objs[0]["content"] != "hi {there}" {
		t.Fatalf("brace inside string mangled: %v", objs[0]["content"])
	}
	if objs[1]["role"] != "assistant" {
		t.Fatalf("second object role = %v", objs[1]["role"])
	}
}

func TestIterEmbeddedJSONSkipsGarbage(t *testing.T) {
	blob := []byte("xx{not json}yy")
	blob = append(blob, []byte(`{"role":"user","content":"ok"}`)...)
	objs := iterEmbeddedJSON(blob, 10)
	if len(objs) != 1 || objs[0]["content"] != "ok" {
		t.Fatalf("got %v", objs)
	}
}

func TestExtractRecentMessages(t *testing.T) {
	dir := t.TempDir()
	path := writeStoreDB(t, dir, map[string]any{"agentId": "c1", "name": "T"}, map[string][]byte{
		"b1": messageBlob(`{"role":"user","id":"m1","content":"<user_info>env noise</user_info>"}`),
		"b2": messageBlob(`{"role":"user","id":"m2","content":"real question"}`),
		"b3": messageBlob(`{"role":"assistant","id":"m3","content":[{"type":"text","text":"real answer"}]}`),
		"b4": messageBlob(`{"role":"tool","id":"m4","content":"ignored role"}`),
	})

	msgs := ExtractRecentMessages(path, 10, 200)
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d: %+v", len(msgs), msgs)
	}
	for _, m := range msgs {
		if strings.Contains(m.Text, "user_info") {
			t.Fatalf("env noise not skipped: %+v", m)
		}
	}
}

func TestExtractRecentMessagesDedupesByID(t *testing.T) {
	dir := t.TempDir()
	msg := `{"role":"user","id":"m1","content":"once"}`
	path := writeStoreDB(t, dir, map[string]any{"agentId": "c1", "name": "T"}, map[string][]byte{
		"b1": messageBlob(msg),
		"b2": messageBlob(msg),
	})
	msgs := ExtractRecentMessages(path, 10, 200)
	if len(msgs) != 1 {
		t.Fatalf("want 1 message after dedupe, got %d", len(msgs))
	}
}

func TestLastMessagePreviewPrefersRootBlob(t *testing.T) {
	dir := t.TempDir()
	path := writeStoreDB(t, dir, map[string]any{"agentId": "c1", "name": "T", "latestRootBlobId": "root"}, map[string][]byte{
		"root":  messageBlob(`{"role":"assistant","content":"from root"}`),
		"other": messageBlob(`{"role":"assistant","content":"elsewhere"}`),
	})
	m := LastMessagePreview(path, "root")
	if m.Text != "from root" {
		t.Fatalf("preview = %+v", m)
	}
}

func TestLastMessagePreviewFallsBackToScan(t *testing.T) {
	dir := t.TempDir()
	path := writeStoreDB(t, dir, map[string]any{"agentId": "c1", "name": "T", "latestRootBlobId": "root"}, map[string][]byte{
		"root": {0x00, 0x01, 0x02}, // binary root node, no embedded JSON
		"msg":  messageBlob(`{"role":"user","content":"fallback hit"}`),
	})
	m := LastMessagePreview(path, "root")
	if m.Text != "fallback hit" {
		t.Fatalf("preview = %+v", m)
	}
}

func TestLastMessagePreviewMissingDB(t *testing.T) {
	m := LastMessagePreview(filepath.Join(t.TempDir(), "nope", "store.db"), "root")
	if m.Role != "" || m.Text != "" {
		t.Fatalf("want zero message, got %+v", m)
	}
}

func TestFormatPreviewTruncates(t *testing.T) {
	out := FormatPreview([]Message{
		{Role: "user", Text: "hello"},
		{Role: "assistant", Text: strings.Repeat("x", 50)},
	}, 10)
	if !strings.Contains(out, "User:\nhello") {
		t.Fatalf("missing user block:\n%s", out)
	}
	if !strings.Contains(out, "…") {
		t.Fatalf("long message not truncated:\n%s", out)
	}
}

func TestFormatPreviewTruncatesOnRuneBoundary(t *testing.T) {
	// Every rune is multi-byte, so a byte-offset cut would split one.
	out := FormatPreview([]Message{
		{Role: "assistant", Text: strings.Repeat("é", 40)},
	}, 11)
	if !utf8.ValidString(out) {
		t.Fatalf("truncated preview is not valid UTF-8: %q", out)
	}
	if strings.ContainsRune(out, utf8.RuneError) {
		t.Fatalf("truncation split a rune: %q", out)
	}
	if !strings.Contains(out, "…") {
		t.Fatalf("long message not truncated:\n%s", out)
	}
}

func TestIsGenericTitle(t *testing.T) {
	for _, name := range []string{"New Agent", "new agent", " Untitled ", ""} {
		if !IsGenericTitle(name) {
			t.Errorf("IsGenericTitle(%q) = false", name)
		}
	}
	if IsGenericTitle("Fix the flaky test") {
		t.Error("real title flagged generic")
	}
}

func TestDeriveTitle(t *testing.T) {
	preview := "User:\n<user_query>\nAdd retry logic to the uploader\n</user_query>\n\nAssistant:\nSure."
	got := DeriveTitle(preview)
	if got != "Add retry logic to the uploader" {
		t.Fatalf("DeriveTitle = %q", got)
	}
	if DeriveTitle("Assistant:\nno user block") != "" {
		t.Fatal("derived title from assistant-only preview")
	}
}
