package agent

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Message is one extracted chat message.
type Message struct {
	Role string
	Text string
}

// ReadBlob returns the raw bytes of one blob, or nil when it is absent or
// the database cannot be read.
func ReadBlob(storePath, blobID string) []byte {
	if blobID == "" {
		return nil
	}
	db, err := OpenReadOnly(storePath)
	if err != nil {
		return nil
	}
	defer db.Close()

	var data []byte
	if err := db.QueryRow("SELECT data FROM blobs WHERE id=? LIMIT 1", blobID).Scan(&data); err != nil {
		return nil
	}
	return data
}

// ExtractRecentMessages pulls up to maxMessages user/assistant messages out
// of the most recent blobs, in chronological order. Everything is
// best-effort; any failure yields fewer (or no) messages, never an error.
//
// Root blobs are sometimes binary nodes with message JSON embedded at
// arbitrary offsets, so messages are recovered by balanced-brace scanning
// rather than decoding the blob wholesale.
func ExtractRecentMessages(storePath string, maxMessages, maxBlobs int) []Message {
	if maxMessages <= 0 {
		return nil
	}
	if maxBlobs <= 0 {
		maxBlobs = 200
	}
	db, err := OpenReadOnly(storePath)
	if err != nil {
		return nil
	}
	defer db.Close()

	// Only the most recent blobs are scanned, but rowid order is restored
	// so the result reads chronologically.
	rows, err := db.Query("SELECT rowid, data FROM blobs ORDER BY rowid DESC LIMIT ?", maxBlobs)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var blobs [][]byte
	for rows.Next() {
		var rowid int64
		var data []byte
		if err := rows.Scan(&rowid, &data); err != nil {
			return nil
		}
		blobs = append(blobs, data)
	}
	if rows.Err() != nil {
		return nil
	}
	for i, j := 0, len(blobs)-1; i < j; i, j = i+1, j-1 {
		blobs[i], blobs[j] = blobs[j], blobs[i]
	}

	seen := map[string]bool{}
	var out []Message
	for _, blob := range blobs {
		if !bytes.Contains(blob, []byte(`"role"`)) {
			continue
		}
		for _, obj := range iterEmbeddedJSON(blob, 500) {
			role, _ := obj["role"].(string)
			if role != "user" && role != "assistant" {
				continue
			}
			text := messageText(obj)
			if text == "" {
				continue
			}
			if role == "user" && strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "<user_info>") {
				continue
			}
			key := role + "\x00" + text
			if id, ok := obj["id"].(string); ok && id != "" {
				key = role + "\x00" + id
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Message{Role: role, Text: strings.TrimSpace(text)})
		}
	}

	// The same message can be embedded in several adjacent blobs.
	deduped := out[:0]
	for _, m := range out {
		if len(deduped) > 0 && deduped[len(deduped)-1] == m {
			continue
		}
		deduped = append(deduped, m)
	}
	if len(deduped) > maxMessages {
		deduped = deduped[len(deduped)-maxMessages:]
	}
	return deduped
}

// LastMessagePreview returns the last meaningful message of a chat,
// preferring the blob the meta row points at and falling back to a scan of
// recent blobs. Returns a zero Message when nothing is found.
func LastMessagePreview(storePath, latestRootBlobID string) Message {
	if blob := ReadBlob(storePath, latestRootBlobID); len(blob) > 0 {
		var last Message
		for _, obj := range iterEmbeddedJSON(blob, 200) {
			role, _ := obj["role"].(string)
			if role == "" {
				continue
			}
			text := messageText(obj)
			if text == "" {
				continue
			}
			if role == "user" && strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "<user_info>") {
				continue
			}
			last = Message{Role: role, Text: text}
		}
		if last.Text != "" {
			return last
		}
	}
	if msgs := ExtractRecentMessages(storePath, 1, 200); len(msgs) > 0 {
		return msgs[len(msgs)-1]
	}
	return Message{}
}

// FormatPreview renders messages into a multi-line markdown-ish preview.
func FormatPreview(msgs []Message, maxCharsPerMessage int) string {
	var b strings.Builder
	for _, m := range msgs {
		label := m.Role
		switch m.Role {
		case "user":
			label = "User"
		case "assistant":
			label = "Assistant"
		}
		b.WriteString(label)
		b.WriteString(":\n")
		t := strings.TrimSpace(m.Text)
		if maxCharsPerMessage > 0 && len(t) > maxCharsPerMessage {
			// Back up to a rune boundary so the cut never splits UTF-8.
			cut := maxCharsPerMessage - 1
			for cut > 0 && !utf8.RuneStart(t[cut]) {
				cut--
			}
			t = strings.TrimRight(t[:cut], " \t\r\n") + "…"
		}
		b.WriteString(t)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// IsGenericTitle reports whether a chat name is one of cursor-agent's
// placeholder names and worth replacing with a derived title.
func IsGenericTitle(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "new agent", "untitled", "":
		return true
	}
	return false
}

// DeriveTitle picks a title from preview text: the first meaningful line
// after the first "User:" label, skipping wrapper tags.
func DeriveTitle(preview string) string {
	lines := strings.Split(preview, "\n")
	for i, ln := range lines {
		l := strings.ToLower(strings.TrimSpace(ln))
		if l != "user:" && l != "user" {
			continue
		}
		for _, cand := range lines[i+1:] {
			c := strings.TrimSpace(cand)
			if c == "" {
				continue
			}
			if strings.HasPrefix(c, "<") && strings.HasSuffix(c, ">") {
				continue
			}
			return c
		}
	}
	return ""
}

// iterEmbeddedJSON extracts up to maxObjects JSON objects embedded in a
// binary blob by scanning for balanced braces, tracking string literals so
// braces inside strings do not confuse the depth count.
func iterEmbeddedJSON(data []byte, maxObjects int) []map[string]any {
	var out []map[string]any
	n := len(data)
	i := 0
	for i < n && len(out) < maxObjects {
		start := bytes.IndexByte(data[i:], '{')
		if start == -1 {
			break
		}
		start += i

		depth := 0
		inStr := false
		esc := false
		advanced := false
		for j := start; j < n; j++ {
			c := data[j]
			if inStr {
				switch {
				case esc:
					esc = false
				case c == '\\':
					esc = true
				case c == '"':
					inStr = false
				}
				continue
			}
			switch c {
			case '"':
				inStr = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					var obj map[string]any
					if err := json.Unmarshal(data[start:j+1], &obj); err == nil && obj != nil {
						out = append(out, obj)
						i = j + 1
					} else {
						i = start + 1
					}
					advanced = true
				}
			}
			if advanced {
				break
			}
		}
		if !advanced {
			i = start + 1
		}
	}
	return out
}

// messageText pulls display text out of a decoded message object. Content
// is either a plain string or a list of typed parts.
func messageText(obj map[string]any) string {
	switch content := obj["content"].(type) {
	case string:
		if strings.TrimSpace(content) != "" {
			return content
		}
	case []any:
		for _, p := range content {
			part, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := part["text"].(string); ok && strings.TrimSpace(t) != "" {
				return t
			}
			typ, _ := part["type"].(string)
			switch typ {
			case "text", "output_text", "input_text":
				if d, ok := part["data"].(string); ok && strings.TrimSpace(d) != "" {
					return d
				}
			}
		}
	}
	return ""
}
