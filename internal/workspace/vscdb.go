package workspace

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
)

// EnvUserDataDir overrides where the Cursor IDE keeps its User directory.
const EnvUserDataDir = "CURSOR_USER_DATA_DIR"

// UserDirs locates the Cursor IDE's state database, which holds the
// folder-open history used for hash inference.
type UserDirs struct {
	UserDir string
}

// GlobalStateDB returns the path of the IDE's global state database.
func (d UserDirs) GlobalStateDB() string {
	return filepath.Join(d.UserDir, "globalStorage", "state.vscdb")
}

// DefaultUserDirs resolves the Cursor User directory: $CURSOR_USER_DATA_DIR,
// else the first existing platform default, else the first default even if
// missing so diagnostics can name it.
func DefaultUserDirs() UserDirs {
	if override := os.Getenv(EnvUserDataDir); override != "" {
		return UserDirs{UserDir: override}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return UserDirs{}
	}
	candidates := platformUserDirs(home)
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return UserDirs{UserDir: c}
		}
	}
	return UserDirs{UserDir: candidates[0]}
}

func platformUserDirs(home string) []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{filepath.Join(home, "Library", "Application Support", "Cursor", "User")}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return []string{filepath.Join(appData, "Cursor", "User")}
		}
		return []string{filepath.Join(home, "AppData", "Roaming", "Cursor", "User")}
	default:
		return []string{
			filepath.Join(home, ".config", "Cursor", "User"),
			filepath.Join(home, ".config", "cursor", "User"),
		}
	}
}

// recentPathsKey is the IDE state key whose value lists recently opened
// folders and files.
const recentPathsKey = "history.recentlyOpenedPathsList"

type recentPathsList struct {
	Entries []struct {
		FolderURI string `json:"folderUri"`
	} `json:"entries"`
}

// RecentWorkspacePaths reads the IDE's recently opened folders. A missing
// or unreadable database yields nil; inference is always best-effort.
func RecentWorkspacePaths(stateDB string) []string {
	if _, err := os.Stat(stateDB); err != nil {
		return nil
	}
	db, err := agent.OpenReadOnly(stateDB)
	if err != nil {
		return nil
	}
	defer db.Close()

	var raw []byte
	if err := db.QueryRow("SELECT value FROM ItemTable WHERE key = ? LIMIT 1", recentPathsKey).Scan(&raw); err != nil {
		return nil
	}
	var list recentPathsList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	for _, e := range list.Entries {
		p := folderURIToPath(e.FolderURI)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// folderURIToPath converts a file:// URI into a local filesystem path.
// Remote URIs (vscode-remote:// etc.) are skipped; their paths do not
// exist locally and would pollute the map.
func folderURIToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	p := u.Path
	if p == "" {
		return ""
	}
	// Windows URIs look like file:///C:/dir.
	if runtime.GOOS == "windows" && len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}
