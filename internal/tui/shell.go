package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/index"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/tuilog"
)

// NavStack manages navigation history.
type NavStack struct {
	items []NavItem
}

func NewNavStack() *NavStack {
	return &NavStack{items: make([]NavItem, 0)}
}

func (ns *NavStack) Push(item NavItem, width, height int) tea.Cmd {
	ns.items = append(ns.items, item)
	initCmd := item.Model.Init()
	// Send the current window size so the new page can lay itself out.
	if width > 0 && height > 0 {
		sizeCmd := func() tea.Msg {
			return tea.WindowSizeMsg{Width: width, Height: height}
		}
		return tea.Batch(initCmd, sizeCmd)
	}
	return initCmd
}

func (ns *NavStack) Pop() {
	if len(ns.items) > 0 {
		ns.items = ns.items[:len(ns.items)-1]
	}
}

func (ns *NavStack) Peek() (NavItem, bool) {
	if len(ns.items) == 0 {
		return NavItem{}, false
	}
	return ns.items[len(ns.items)-1], true
}

func (ns *NavStack) IsEmpty() bool {
	return len(ns.items) == 0
}

// Shell is the main TUI container. It owns the index snapshot and the
// navigation stack; pages never trigger scans themselves, they ask the
// shell via RequestRefreshMsg.
type Shell struct {
	app    *App
	width  int
	height int
	stack  *NavStack

	ix         *index.Index
	loading    bool
	refreshing bool
	fatalErr   error

	watcher *storeWatcher
}

// NewShell creates the main TUI shell.
func NewShell(app *App) *Shell {
	return &Shell{
		app:     app,
		stack:   NewNavStack(),
		loading: true,
	}
}

// Close releases the filesystem watcher.
func (s *Shell) Close() {
	s.watcher.Close()
}

func (s *Shell) Init() tea.Cmd {
	tuilog.Log.Infof("shell: starting, chats=%s", s.app.Dirs.ChatsDir())
	s.watcher = newStoreWatcher(s.app.Dirs.ChatsDir())
	return tea.Batch(
		loadIndexCmd(s.app),
		s.watcher.waitCmd(),
		refreshTickCmd(s.app.Config.RefreshInterval()),
	)
}

func (s *Shell) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case indexLoadedMsg:
		s.loading = false
		if msg.err != nil {
			// The only fatal condition: nothing to browse at all.
			s.fatalErr = msg.err
			tuilog.Log.Errorf("shell: initial scan failed: %v", msg.err)
			return s, tea.Quit
		}
		s.ix = msg.ix
		tuilog.Log.Infof("shell: index loaded, workspaces=%d sessions=%d",
			len(s.ix.Workspaces), s.ix.SessionCount())
		picker := NewWorkspacePicker(s.app, s.ix)
		cmds = append(cmds, s.stack.Push(NavItem{Title: "Workspaces", Model: picker}, s.width, s.height))

	case RequestRefreshMsg:
		if !s.refreshing && s.ix != nil {
			s.refreshing = true
			cmds = append(cmds, refreshIndexCmd(s.app, s.ix))
		}
		return s, tea.Batch(cmds...)

	case storeChangedMsg:
		cmds = append(cmds, s.watcher.waitCmd())
		if !s.refreshing && s.ix != nil {
			s.refreshing = true
			cmds = append(cmds, refreshIndexCmd(s.app, s.ix))
		}
		return s, tea.Batch(cmds...)

	case refreshTickMsg:
		cmds = append(cmds, refreshTickCmd(s.app.Config.RefreshInterval()))
		if !s.refreshing && s.ix != nil {
			s.refreshing = true
			cmds = append(cmds, refreshIndexCmd(s.app, s.ix))
		}
		return s, tea.Batch(cmds...)

	case indexSwappedMsg:
		s.refreshing = false
		s.ix = msg.ix
		// Broadcast to every stacked page so selections re-seat against
		// the new snapshot, not just the visible page.
		for i := range s.stack.items {
			newModel, cmd := s.stack.items[i].Model.Update(msg)
			s.stack.items[i].Model = newModel
			cmds = append(cmds, cmd)
		}
		return s, tea.Batch(cmds...)

	case refreshFailedMsg:
		// Keep showing the previous snapshot.
		s.refreshing = false
		return s, nil

	case PushPageMsg:
		cmds = append(cmds, s.stack.Push(msg.Item, s.width, s.height))
		return s, tea.Batch(cmds...)

	case PopPageMsg:
		s.stack.Pop()
		if s.stack.IsEmpty() {
			return s, tea.Quit
		}
		// Re-send the window size so the revealed page re-renders.
		if s.width > 0 && s.height > 0 {
			cmds = append(cmds, func() tea.Msg {
				return tea.WindowSizeMsg{Width: s.width, Height: s.height}
			})
		}
	}

	if current, ok := s.stack.Peek(); ok {
		newModel, cmd := current.Model.Update(msg)
		current.Model = newModel
		s.stack.items[len(s.stack.items)-1] = current
		cmds = append(cmds, cmd)
	}

	return s, tea.Batch(cmds...)
}

func (s *Shell) View() tea.View {
	if s.loading {
		v := tea.NewView("Scanning chats…")
		v.AltScreen = true
		return v
	}
	if s.stack.IsEmpty() {
		v := tea.NewView("")
		v.AltScreen = true
		return v
	}
	current, _ := s.stack.Peek()
	return current.Model.View()
}

// FatalErr reports the startup error that ended the program, if any.
func (s *Shell) FatalErr() error {
	return s.fatalErr
}
