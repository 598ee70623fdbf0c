package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/index"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/tuilog"
)

// previewToken identifies one preview load request. Results whose token
// no longer matches the viewer's current token are stale and dropped.
type previewToken struct {
	chatID string
	gen    int
}

type previewLoadedMsg struct {
	token   previewToken
	content string
	derived string // title derived from the first user message, if any
	err     error
}

type viewerKeyMap struct {
	Resume key.Binding
	Reload key.Binding
	Back   key.Binding
}

func defaultViewerKeyMap() viewerKeyMap {
	return viewerKeyMap{
		Resume: key.NewBinding(
			key.WithKeys("enter", "o"),
			key.WithHelp("enter", "resume"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Back: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

// Viewer shows the recent history of one chat and resumes it.
type Viewer struct {
	app  *App
	ws   index.Workspace
	chat agent.ChatMeta

	viewport viewport.Model
	token    previewToken
	loading  bool
	loadErr  string
	raw      string
	lastErr  string
	width    int
	height   int
	ready    bool
}

// NewViewer builds the preview page for one chat.
func NewViewer(app *App, ws index.Workspace, chat agent.ChatMeta) *Viewer {
	return &Viewer{
		app:   app,
		ws:    ws,
		chat:  chat,
		token: previewToken{chatID: chat.ID, gen: 0},
	}
}

func (m *Viewer) Init() tea.Cmd {
	m.loading = true
	return loadPreviewCmd(m.app, m.chat, m.token)
}

// loadPreviewCmd extracts the chat history off the UI goroutine.
func loadPreviewCmd(app *App, chat agent.ChatMeta, token previewToken) tea.Cmd {
	return func() tea.Msg {
		if chat.Unreadable {
			return previewLoadedMsg{token: token, err: fmt.Errorf("chat store unreadable: %s", chat.Err)}
		}
		msgs := agent.ExtractRecentMessages(chat.StorePath, app.Config.Preview.MaxMessages, app.Config.Preview.MaxBlobs)
		if len(msgs) == 0 {
			return previewLoadedMsg{token: token, content: "(no messages found)"}
		}
		content := agent.FormatPreview(msgs, 600)

		var derived string
		if agent.IsGenericTitle(chat.Title) {
			derived = agent.DeriveTitle(content)
		}
		return previewLoadedMsg{token: token, content: content, derived: derived}
	}
}

func (m *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keys := defaultViewerKeyMap()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New()
			m.ready = true
		}
		m.viewport.SetWidth(msg.Width - 4)
		m.viewport.SetHeight(msg.Height - 6)
		if m.raw != "" {
			m.viewport.SetContent(m.render(m.raw))
		}
		return m, nil

	case previewLoadedMsg:
		if msg.token != m.token {
			tuilog.Log.Debugf("viewer: dropping stale preview chat=%s gen=%d", msg.token.chatID, msg.token.gen)
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			return m, nil
		}
		m.loadErr = ""
		m.raw = msg.content
		if m.ready {
			m.viewport.SetContent(m.render(m.raw))
			m.viewport.GotoTop()
		}
		if msg.derived != "" {
			m.chat.Title = msg.derived
			m.app.Titles.Set(m.ws.Hash, m.chat.ID, msg.derived)
			if err := m.app.Titles.Flush(); err != nil {
				tuilog.Log.Warnf("title cache flush failed: %v", err)
			}
		}
		return m, nil

	case indexSwappedMsg:
		// The chat may have new messages; reload under a fresh token.
		if ws, ok := msg.ix.Find(m.ws.Hash); ok {
			m.ws = ws
		}
		if _, chat, ok := msg.ix.FindSession(m.chat.ID); ok {
			m.chat = chat
		}
		m.token.gen++
		m.loading = true
		return m, loadPreviewCmd(m.app, m.chat, m.token)

	case resumeFinishedMsg:
		if msg.outcome.LaunchErr != nil {
			m.lastErr = fmt.Sprintf("launch failed: %v", msg.outcome.LaunchErr)
			return m, nil
		}
		if !msg.outcome.Success {
			m.lastErr = fmt.Sprintf("cursor-agent exited with status %d", msg.outcome.ExitCode)
		} else {
			m.lastErr = ""
		}
		// Pick up whatever the resumed chat wrote.
		return m, func() tea.Msg { return RequestRefreshMsg{} }

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Back):
			return m, func() tea.Msg { return PopPageMsg{} }

		case key.Matches(msg, keys.Reload):
			m.token.gen++
			m.loading = true
			return m, loadPreviewCmd(m.app, m.chat, m.token)

		case key.Matches(msg, keys.Resume):
			m.lastErr = ""
			return m, resumeChatCmd(m.app, m.ws, m.chat.ID)
		}
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// render runs the preview through glamour so assistant markdown reads
// well; on any failure the raw text is shown instead.
func (m *Viewer) render(raw string) string {
	width := m.width - 6
	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return raw
	}
	out, err := renderer.Render(raw)
	if err != nil {
		return raw
	}
	return out
}

func (m *Viewer) View() tea.View {
	if !m.ready {
		v := tea.NewView("Loading…")
		v.AltScreen = true
		return v
	}

	s := m.app.Styles
	title := m.chat.Title
	if title == "" {
		title = m.chat.ID
	}
	header := s.Title.Render(truncate(title, m.width-4))
	meta := s.StatusBar.Render(fmt.Sprintf("%s  •  %s  •  %s",
		m.ws.DisplayName(), relTime(m.chat.UpdatedAt), m.chat.ID))

	var body string
	switch {
	case m.loading:
		body = s.StatusBar.Render("Loading preview…")
	case m.loadErr != "":
		body = s.Degraded.Render("⚠ " + m.loadErr)
	default:
		body = m.viewport.View()
	}

	var footer string
	if m.lastErr != "" {
		footer = s.ErrorBar.Render(m.lastErr)
	} else {
		footer = s.Help.Render("enter resume  •  r reload  •  esc back")
	}

	content := strings.Join([]string{header, meta, "", body, footer}, "\n")
	v := tea.NewView(s.Page.Render(content))
	v.AltScreen = true
	return v
}
