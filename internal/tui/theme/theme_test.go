package theme

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesBuiltin(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "ccm-theme.toml"), "light")
	if got.Name != "light" || got.Accent != Light().Accent {
		t.Fatalf("theme = %+v", got)
	}
}

func TestLoadOverrideMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccm-theme.toml")
	if err := os.WriteFile(path, []byte("accent = \"#FF0000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := Load(path, "dark")
	if got.Accent != "#FF0000" {
		t.Fatalf("accent = %q", got.Accent)
	}
	if got.Muted != Dark().Muted {
		t.Fatal("unset field lost builtin value")
	}
}

func TestLoadCorruptOverrideFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccm-theme.toml")
	if err := os.WriteFile(path, []byte("accent = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	got := Load(path, "dark")
	if got.Accent != Dark().Accent {
		t.Fatalf("theme = %+v", got)
	}
}
