// Package theme provides theming support for the TUI.
package theme

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Theme defines the colors used in the TUI. Values are hex colors or
// ANSI color numbers, as understood by lipgloss.
type Theme struct {
	Name string `toml:"name"`

	Accent    string `toml:"accent"`
	Border    string `toml:"border"`
	Title     string `toml:"title"`
	Muted     string `toml:"muted"`
	Error     string `toml:"error"`
	Unknown   string `toml:"unknown"`   // unresolved workspace marker
	Degraded  string `toml:"degraded"`  // unreadable session marker
	UserLabel string `toml:"user_label"`
	AsstLabel string `toml:"asst_label"`
}

// Dark is the built-in default.
func Dark() Theme {
	return Theme{
		Name:      "dark",
		Accent:    "#7D56F4",
		Border:    "240",
		Title:     "#FAFAFA",
		Muted:     "243",
		Error:     "#FF5F87",
		Unknown:   "214",
		Degraded:  "203",
		UserLabel: "#5FAFFF",
		AsstLabel: "#87D787",
	}
}

// Light is the built-in light variant.
func Light() Theme {
	return Theme{
		Name:      "light",
		Accent:    "#5F5FD7",
		Border:    "250",
		Title:     "#1C1C1C",
		Muted:     "245",
		Error:     "#D70057",
		Unknown:   "130",
		Degraded:  "160",
		UserLabel: "#005FD7",
		AsstLabel: "#008700",
	}
}

// Builtin returns a built-in theme by name, defaulting to dark.
func Builtin(name string) Theme {
	if name == "light" {
		return Light()
	}
	return Dark()
}

// Load resolves the active theme: the override file at path wins when it
// exists and parses, with the named built-in filling unset fields.
func Load(path, name string) Theme {
	t := Builtin(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return t
	}
	var override Theme
	if err := toml.Unmarshal(data, &override); err != nil {
		return t
	}
	merge(&t, override)
	return t
}

func merge(dst *Theme, src Theme) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Name, src.Name)
	set(&dst.Accent, src.Accent)
	set(&dst.Border, src.Border)
	set(&dst.Title, src.Title)
	set(&dst.Muted, src.Muted)
	set(&dst.Error, src.Error)
	set(&dst.Unknown, src.Unknown)
	set(&dst.Degraded, src.Degraded)
	set(&dst.UserLabel, src.UserLabel)
	set(&dst.AsstLabel, src.AsstLabel)
}
