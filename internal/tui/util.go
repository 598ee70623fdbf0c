package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// truncate shortens s to a display width, appending an ellipsis when it
// was cut. Width-aware so CJK and emoji don't break the layout.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width-1, "…")
}

// relTime renders a timestamp as a compact age like "3m" or "2d".
func relTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2006")
	}
}
