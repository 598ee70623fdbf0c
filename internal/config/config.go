// Package config provides application configuration for ccm.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config holds the ccm configuration, read from ccm-config.json in the
// cursor-agent config directory.
type Config struct {
	Theme      string   `json:"theme,omitempty"`       // name of the active theme
	AgentPath  string   `json:"agent_path,omitempty"`  // explicit cursor-agent binary
	AgentFlags []string `json:"agent_flags,omitempty"` // overrides the built-in launch flags
	Refresh    string   `json:"refresh,omitempty"`     // periodic refresh interval (e.g. "5s", "0s" = off)
	Preview    Preview  `json:"preview"`
}

// Preview holds preview extraction limits.
type Preview struct {
	MaxMessages int `json:"max_messages"` // messages shown in the viewer
	MaxBlobs    int `json:"max_blobs"`    // recent blobs scanned per chat
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Theme:   "dark",
		Refresh: "5s",
		Preview: Preview{MaxMessages: 10, MaxBlobs: 200},
	}
}

// RefreshInterval returns the parsed periodic refresh interval. Zero
// disables the timer; malformed values fall back to the default.
func (c Config) RefreshInterval() time.Duration {
	if c.Refresh == "" {
		return 5 * time.Second
	}
	if d, err := time.ParseDuration(c.Refresh); err == nil && d >= 0 {
		return d
	}
	return 5 * time.Second
}

// Load reads the config at path. A missing file yields defaults; unknown
// keys are ignored so newer files stay readable by older binaries.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	} else if err != nil {
		return Config{}, err
	}

	// Start from defaults so missing keys keep their built-in values.
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Preview.MaxMessages <= 0 {
		cfg.Preview.MaxMessages = 10
	}
	if cfg.Preview.MaxBlobs <= 0 {
		cfg.Preview.MaxBlobs = 200
	}
	return cfg, nil
}

// Save writes the config atomically.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
