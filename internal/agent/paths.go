// Package agent provides read access to the cursor-agent on-disk chat store
// and builds the commands used to launch or resume chats.
package agent

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
)

// Environment overrides honored by this package.
const (
	EnvConfigDir = "CURSOR_AGENT_CONFIG_DIR"
	EnvAgentPath = "CURSOR_AGENT_PATH"
)

// Dirs locates cursor-agent's config directory.
// Chats live under <config>/chats/<md5(cwd)>/<chatID>/store.db.
type Dirs struct {
	ConfigDir string
}

// DefaultDirs resolves the cursor-agent config directory, honoring
// $CURSOR_AGENT_CONFIG_DIR and falling back to ~/.cursor.
func DefaultDirs() (Dirs, error) {
	if override := os.Getenv(EnvConfigDir); override != "" {
		return Dirs{ConfigDir: expandHome(override)}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Dirs{}, err
	}
	return Dirs{ConfigDir: filepath.Join(home, ".cursor")}, nil
}

// ChatsDir returns the root directory holding one subdirectory per
// workspace hash.
func (d Dirs) ChatsDir() string {
	return filepath.Join(d.ConfigDir, "chats")
}

// WorkspaceMapPath returns the location of the persisted hash→path map.
func (d Dirs) WorkspaceMapPath() string {
	return filepath.Join(d.ConfigDir, "ccm-workspaces.json")
}

// TitleCachePath returns the location of the derived-title cache.
func (d Dirs) TitleCachePath() string {
	return filepath.Join(d.ConfigDir, "ccm-chat-titles.json")
}

// ConfigPath returns the location of the tool's own config file.
func (d Dirs) ConfigPath() string {
	return filepath.Join(d.ConfigDir, "ccm-config.json")
}

// ThemePath returns the location of the optional theme override file.
func (d Dirs) ThemePath() string {
	return filepath.Join(d.ConfigDir, "ccm-theme.toml")
}

// MD5Hex returns the lowercase hex MD5 digest of s.
//
// cursor-agent buckets chats by md5(process.cwd()); this must match that
// scheme exactly or hash lookups silently miss.
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashCandidates returns the workspace hashes a path may be stored under.
// cursor-agent hashes whatever process.cwd() returned, which can be either
// the logical path or the symlink-resolved one, so both are candidates.
func HashCandidates(path string) []string {
	p := expandHome(path)
	if !filepath.IsAbs(p) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	out := []string{MD5Hex(p)}
	if resolved, err := filepath.EvalSymlinks(p); err == nil && resolved != p {
		out = append(out, MD5Hex(resolved))
	}
	return out
}

// IsWorkspaceHash reports whether s looks like an md5 hex digest, i.e. a
// plausible chats subdirectory name.
func IsWorkspaceHash(s string) bool {
	if len(s) != 32 {
		return false
	}
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

func expandHome(p string) string {
	if p == "~" || len(p) >= 2 && p[0] == '~' && p[1] == os.PathSeparator || len(p) >= 2 && p[0] == '~' && p[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				return home
			}
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
