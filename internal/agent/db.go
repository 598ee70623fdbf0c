package agent

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenReadOnly opens a SQLite database without taking locks or creating
// journal files. Some stores live on read-only filesystems, so a plain
// mode=ro open can succeed but fail on the first statement; we validate by
// touching sqlite_master and fall back to immutable=1.
func OpenReadOnly(dbPath string) (*sql.DB, error) {
	uris := []string{
		roURI(dbPath, false),
		roURI(dbPath, true),
	}
	var lastErr error
	for _, uri := range uris {
		db, err := sql.Open("sqlite", uri)
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := db.Exec("SELECT name FROM sqlite_master WHERE type='table' LIMIT 1"); err != nil {
			lastErr = err
			db.Close()
			continue
		}
		return db, nil
	}
	return nil, fmt.Errorf("open %s read-only: %w", dbPath, lastErr)
}

func roURI(dbPath string, immutable bool) string {
	q := "?mode=ro"
	if immutable {
		q += "&immutable=1"
	}
	return "file:" + filepath.ToSlash(dbPath) + q
}
