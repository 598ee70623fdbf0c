package tui

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/index"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/tuilog"
)

// NavItem represents a page in the navigation stack.
type NavItem struct {
	Title string
	Model tea.Model
}

// PushPageMsg asks the shell to push a new page.
type PushPageMsg struct {
	Item NavItem
}

// PopPageMsg asks the shell to pop the current page.
type PopPageMsg struct{}

// RequestRefreshMsg asks the shell to rebuild the index. Pages emit it on
// the manual refresh key.
type RequestRefreshMsg struct{}

// indexLoadedMsg carries the first snapshot (or the startup failure).
type indexLoadedMsg struct {
	ix  *index.Index
	err error
}

// indexSwappedMsg is broadcast to every stacked page when a refresh
// completes, so each re-seats its selection against the new snapshot.
type indexSwappedMsg struct {
	ix *index.Index
}

// refreshFailedMsg reports a refresh that could not produce a snapshot.
// The previous snapshot stays current.
type refreshFailedMsg struct {
	err error
}

// storeChangedMsg fires when the filesystem watcher sees activity under
// the chats root.
type storeChangedMsg struct{}

// refreshTickMsg drives the periodic rescan.
type refreshTickMsg time.Time

// resumeFinishedMsg reports how a terminal handoff to cursor-agent ended.
type resumeFinishedMsg struct {
	outcome agent.ExitOutcome
}

func loadIndexCmd(app *App) tea.Cmd {
	return func() tea.Msg {
		ix, err := index.Build(context.Background(), app.Store, app.Resolver, app.Titles)
		return indexLoadedMsg{ix: ix, err: err}
	}
}

func refreshIndexCmd(app *App, prev *index.Index) tea.Cmd {
	return func() tea.Msg {
		ix, err := index.Refresh(context.Background(), prev, app.Store, app.Resolver, app.Titles)
		if err != nil {
			tuilog.Log.Warnf("refresh failed: %v", err)
			return refreshFailedMsg{err: err}
		}
		if app.Titles.Dirty() {
			if err := app.Titles.Flush(); err != nil {
				tuilog.Log.Warnf("title cache flush failed: %v", err)
			}
		}
		return indexSwappedMsg{ix: ix}
	}
}

func refreshTickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}
