// Package version reports the build version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version can be set at build time:
// -ldflags="-X github.com/baaaaaaaka/cursor-cli-manager/internal/version.Version=v1.0.0"
var Version = ""

// Get returns the version string, falling back to module build info.
func Get() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return fmt.Sprintf("dev-%s", setting.Value[:7])
			}
		}
	}
	return "dev"
}

// String returns a formatted version line.
func String(name string) string {
	return fmt.Sprintf("%s version %s", name, Get())
}
