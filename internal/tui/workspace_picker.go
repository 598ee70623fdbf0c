package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/index"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/workspace"
)

// workspaceItem wraps an index.Workspace for the picker list.
type workspaceItem struct {
	ws index.Workspace
}

func (i workspaceItem) Title() string {
	if i.ws.Path != "" {
		return i.ws.Base()
	}
	return "? " + i.ws.DisplayName()
}

func (i workspaceItem) Description() string {
	var parts []string
	if i.ws.Path != "" {
		parts = append(parts, i.ws.Path)
	} else {
		parts = append(parts, "path unknown")
	}
	if i.ws.Err != "" {
		parts = append(parts, "unreadable")
	}
	parts = append(parts, fmt.Sprintf("%d chats", len(i.ws.Sessions)))
	if i.ws.Confidence == workspace.Inferred {
		parts = append(parts, "inferred")
	}
	if last := i.ws.LastActivity(); !last.IsZero() {
		parts = append(parts, relTime(last))
	}
	return strings.Join(parts, "  •  ")
}

func (i workspaceItem) FilterValue() string {
	return i.ws.Path + " " + i.ws.Hash
}

type workspacePickerKeyMap struct {
	Enter   key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func defaultWorkspacePickerKeyMap() workspacePickerKeyMap {
	return workspacePickerKeyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// WorkspacePicker is the top-level page: one row per workspace.
type WorkspacePicker struct {
	app   *App
	list  list.Model
	ready bool
}

// NewWorkspacePicker builds the picker over the current snapshot.
func NewWorkspacePicker(app *App, ix *index.Index) *WorkspacePicker {
	l := list.New(workspaceItems(ix), list.NewDefaultDelegate(), 0, 0)
	l.Title = "Cursor Workspaces"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Filter = substringFilter
	return &WorkspacePicker{app: app, list: l}
}

func workspaceItems(ix *index.Index) []list.Item {
	items := make([]list.Item, len(ix.Workspaces))
	for i, ws := range ix.Workspaces {
		items[i] = workspaceItem{ws: ws}
	}
	return items
}

func (m *WorkspacePicker) Init() tea.Cmd {
	return nil
}

func (m *WorkspacePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keys := defaultWorkspacePickerKeyMap()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-2)
		m.ready = true
		return m, nil

	case indexSwappedMsg:
		// Re-seat the selection by hash; same-position fallback comes
		// free since SetItems keeps the cursor index in range.
		var selected string
		if it, ok := m.list.SelectedItem().(workspaceItem); ok {
			selected = it.ws.Hash
		}
		cmd := m.list.SetItems(workspaceItems(msg.ix))
		if selected != "" {
			for i, it := range m.list.Items() {
				if wi, ok := it.(workspaceItem); ok && wi.ws.Hash == selected {
					m.list.Select(i)
					break
				}
			}
		}
		return m, cmd

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, func() tea.Msg { return PopPageMsg{} }

		case key.Matches(msg, keys.Refresh):
			return m, func() tea.Msg { return RequestRefreshMsg{} }

		case key.Matches(msg, keys.Enter):
			if it, ok := m.list.SelectedItem().(workspaceItem); ok {
				picker := NewSessionPicker(m.app, it.ws)
				return m, func() tea.Msg {
					return PushPageMsg{Item: NavItem{Title: it.ws.Base(), Model: picker}}
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *WorkspacePicker) View() tea.View {
	if !m.ready {
		v := tea.NewView("Loading…")
		v.AltScreen = true
		return v
	}
	v := tea.NewView(m.app.Styles.Page.Render(m.list.View()))
	v.AltScreen = true
	return v
}
