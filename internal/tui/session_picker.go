package tui

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/index"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/tuilog"
)

// sessionItem wraps one chat for the picker list.
type sessionItem struct {
	chat agent.ChatMeta
}

func (i sessionItem) Title() string {
	title := i.chat.Title
	if title == "" {
		title = i.chat.ID
	}
	if i.chat.Unreadable {
		return "! " + title
	}
	return title
}

func (i sessionItem) Description() string {
	var parts []string
	if i.chat.Unreadable {
		parts = append(parts, "unreadable: "+truncate(i.chat.Err, 40))
	} else if i.chat.Mode != "" {
		parts = append(parts, i.chat.Mode)
	}
	parts = append(parts, relTime(i.chat.UpdatedAt), i.chat.ID)
	return strings.Join(parts, "  •  ")
}

func (i sessionItem) FilterValue() string {
	return i.chat.Title + " " + i.chat.ID
}

type sessionPickerKeyMap struct {
	Enter   key.Binding
	Resume  key.Binding
	New     key.Binding
	Refresh key.Binding
	Back    key.Binding
}

func defaultSessionPickerKeyMap() sessionPickerKeyMap {
	return sessionPickerKeyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "preview"),
		),
		Resume: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "resume"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new chat"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("esc", "back"),
		),
	}
}

// SessionPicker lists the chats of one workspace.
type SessionPicker struct {
	app     *App
	ws      index.Workspace
	list    list.Model
	ready   bool
	lastErr string
}

// NewSessionPicker builds the page for a workspace from the snapshot.
func NewSessionPicker(app *App, ws index.Workspace) *SessionPicker {
	l := list.New(sessionItems(ws), list.NewDefaultDelegate(), 0, 0)
	l.Title = ws.DisplayName()
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Filter = substringFilter
	return &SessionPicker{app: app, ws: ws, list: l}
}

func sessionItems(ws index.Workspace) []list.Item {
	items := make([]list.Item, len(ws.Sessions))
	for i, c := range ws.Sessions {
		items[i] = sessionItem{chat: c}
	}
	return items
}

func (m *SessionPicker) Init() tea.Cmd {
	return nil
}

func (m *SessionPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keys := defaultSessionPickerKeyMap()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-2)
		m.ready = true
		return m, nil

	case indexSwappedMsg:
		ws, ok := msg.ix.Find(m.ws.Hash)
		if !ok {
			// The whole workspace vanished; fall back to the parent page.
			return m, func() tea.Msg { return PopPageMsg{} }
		}
		m.ws = ws
		var selected string
		if it, ok := m.list.SelectedItem().(sessionItem); ok {
			selected = it.chat.ID
		}
		cmd := m.list.SetItems(sessionItems(ws))
		if selected != "" {
			for i, it := range m.list.Items() {
				if si, ok := it.(sessionItem); ok && si.chat.ID == selected {
					m.list.Select(i)
					break
				}
			}
		}
		return m, cmd

	case resumeFinishedMsg:
		if msg.outcome.LaunchErr != nil {
			m.lastErr = fmt.Sprintf("launch failed: %v", msg.outcome.LaunchErr)
		} else if !msg.outcome.Success {
			m.lastErr = fmt.Sprintf("cursor-agent exited with status %d", msg.outcome.ExitCode)
		} else {
			m.lastErr = ""
		}
		// The store very likely changed while the agent ran.
		return m, func() tea.Msg { return RequestRefreshMsg{} }

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keys.Back):
			return m, func() tea.Msg { return PopPageMsg{} }

		case key.Matches(msg, keys.Refresh):
			return m, func() tea.Msg { return RequestRefreshMsg{} }

		case key.Matches(msg, keys.New):
			m.lastErr = ""
			return m, newChatCmd(m.app, m.ws)

		case key.Matches(msg, keys.Resume):
			if it, ok := m.list.SelectedItem().(sessionItem); ok {
				m.lastErr = ""
				return m, resumeChatCmd(m.app, m.ws, it.chat.ID)
			}

		case key.Matches(msg, keys.Enter):
			if it, ok := m.list.SelectedItem().(sessionItem); ok {
				viewer := NewViewer(m.app, m.ws, it.chat)
				title := truncate(it.chat.Title, 24)
				return m, func() tea.Msg {
					return PushPageMsg{Item: NavItem{Title: title, Model: viewer}}
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *SessionPicker) View() tea.View {
	if !m.ready {
		v := tea.NewView("Loading…")
		v.AltScreen = true
		return v
	}
	content := m.list.View()
	if m.lastErr != "" {
		content += "\n" + m.app.Styles.ErrorBar.Render(m.lastErr)
	}
	v := tea.NewView(m.app.Styles.Page.Render(content))
	v.AltScreen = true
	return v
}

// resumeChatCmd hands the terminal to cursor-agent and reclaims it when
// the agent exits.
func resumeChatCmd(app *App, ws index.Workspace, chatID string) tea.Cmd {
	agentPath, err := agent.ResolveAgentPath(app.Config.AgentPath)
	if err != nil {
		return func() tea.Msg {
			return resumeFinishedMsg{outcome: agent.ExitOutcome{LaunchErr: err}}
		}
	}
	info := agent.BuildResumeCommand(agentPath, ws.Path, chatID, app.Config.AgentFlags)
	tuilog.Log.Infof("resume: chat=%s dir=%s", chatID, info.Dir)
	return tea.ExecProcess(info.Cmd(), func(err error) tea.Msg {
		return resumeFinishedMsg{outcome: classifyExec(err)}
	})
}

// newChatCmd starts a fresh chat in the workspace directory.
func newChatCmd(app *App, ws index.Workspace) tea.Cmd {
	agentPath, err := agent.ResolveAgentPath(app.Config.AgentPath)
	if err != nil {
		return func() tea.Msg {
			return resumeFinishedMsg{outcome: agent.ExitOutcome{LaunchErr: err}}
		}
	}
	info := agent.BuildNewCommand(agentPath, ws.Path, app.Config.AgentFlags)
	tuilog.Log.Infof("new chat: dir=%s", info.Dir)
	return tea.ExecProcess(info.Cmd(), func(err error) tea.Msg {
		return resumeFinishedMsg{outcome: classifyExec(err)}
	})
}

func classifyExec(err error) agent.ExitOutcome {
	if err == nil {
		return agent.ExitOutcome{Success: true}
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return agent.ExitOutcome{ExitCode: ee.ExitCode()}
	}
	return agent.ExitOutcome{LaunchErr: err}
}
