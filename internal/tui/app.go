package tui

import (
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/config"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/tui/theme"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/workspace"
)

// App bundles everything the TUI needs.
type App struct {
	Dirs     agent.Dirs
	Store    *agent.Store
	Resolver *workspace.Resolver
	Titles   *agent.TitleCache
	Config   config.Config
	Styles   Styles
}

// NewApp wires the TUI dependencies from loaded state.
func NewApp(dirs agent.Dirs, store *agent.Store, resolver *workspace.Resolver, titles *agent.TitleCache, cfg config.Config) *App {
	return &App{
		Dirs:     dirs,
		Store:    store,
		Resolver: resolver,
		Titles:   titles,
		Config:   cfg,
		Styles:   buildStyles(theme.Load(dirs.ThemePath(), cfg.Theme)),
	}
}

// Run starts the interactive browser and blocks until it exits.
func Run(app *App) error {
	shell := NewShell(app)
	p := tea.NewProgram(shell, termSizeOpts()...)
	_, err := p.Run()
	shell.Close()
	if err != nil {
		return err
	}
	return shell.FatalErr()
}

// termSizeOpts probes the terminal size up front so the first frame is
// laid out correctly even when stdin is redirected.
func termSizeOpts() []tea.ProgramOption {
	var opts []tea.ProgramOption
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd()), int(os.Stderr.Fd())} {
		if term.IsTerminal(fd) {
			w, h, err := term.GetSize(fd)
			if err == nil && w > 0 && h > 0 {
				opts = append(opts, tea.WithWindowSize(w, h))
				break
			}
		}
	}
	return opts
}
