package tui

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/config"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/index"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/workspace"
)

type probeModel struct {
	lastWidth  int
	lastHeight int
	swaps      int
}

func (m *probeModel) Init() tea.Cmd { return nil }

func (m *probeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.lastWidth = msg.Width
		m.lastHeight = msg.Height
	case indexSwappedMsg:
		m.swaps++
	}
	return m, nil
}

func (m *probeModel) View() tea.View { return tea.NewView("") }

func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, collectMsgs(sub)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func testShell() *Shell {
	return &Shell{
		app:    &App{Config: config.Default()},
		width:  120,
		height: 40,
		stack:  NewNavStack(),
	}
}

func TestShellPopRebroadcastsWindowSize(t *testing.T) {
	revealed := &probeModel{}
	top := &probeModel{}
	s := testShell()
	s.stack.items = append(s.stack.items,
		NavItem{Title: "revealed", Model: revealed},
		NavItem{Title: "top", Model: top},
	)

	model, cmd := s.Update(PopPageMsg{})
	shell := model.(*Shell)
	if len(shell.stack.items) != 1 {
		t.Fatalf("pages after pop = %d", len(shell.stack.items))
	}

	found := false
	for _, msg := range collectMsgs(cmd) {
		if ws, ok := msg.(tea.WindowSizeMsg); ok {
			found = true
			if ws.Width != 120 || ws.Height != 40 {
				t.Fatalf("size = %dx%d", ws.Width, ws.Height)
			}
		}
	}
	if !found {
		t.Fatal("no WindowSizeMsg rebroadcast after pop")
	}
}

func TestShellPopLastPageQuits(t *testing.T) {
	s := testShell()
	s.stack.items = append(s.stack.items, NavItem{Title: "only", Model: &probeModel{}})

	_, cmd := s.Update(PopPageMsg{})
	quit := false
	for _, msg := range collectMsgs(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			quit = true
		}
	}
	if !quit {
		t.Fatal("popping the last page did not quit")
	}
}

func TestShellBroadcastsSwapToAllPages(t *testing.T) {
	bottom := &probeModel{}
	top := &probeModel{}
	s := testShell()
	s.ix = &index.Index{}
	s.refreshing = true
	s.stack.items = append(s.stack.items,
		NavItem{Title: "bottom", Model: bottom},
		NavItem{Title: "top", Model: top},
	)

	s.Update(indexSwappedMsg{ix: &index.Index{Generation: 2}})
	if bottom.swaps != 1 || top.swaps != 1 {
		t.Fatalf("swaps = bottom %d, top %d", bottom.swaps, top.swaps)
	}
	if s.refreshing {
		t.Fatal("refreshing flag not cleared")
	}
	if s.ix.Generation != 2 {
		t.Fatal("snapshot not swapped")
	}
}

func TestShellRefreshFailureKeepsSnapshot(t *testing.T) {
	s := testShell()
	prev := &index.Index{Generation: 7}
	s.ix = prev
	s.refreshing = true

	s.Update(refreshFailedMsg{err: agent.ErrStorageRootMissing})
	if s.ix != prev {
		t.Fatal("snapshot replaced on failed refresh")
	}
	if s.refreshing {
		t.Fatal("refreshing flag not cleared")
	}
}

func TestShellSingleRefreshInFlight(t *testing.T) {
	s := testShell()
	s.ix = &index.Index{}

	s.Update(RequestRefreshMsg{})
	if !s.refreshing {
		t.Fatal("first request did not start a refresh")
	}
	// A second request while one is running must not start another; the
	// command batch would rebuild concurrently otherwise.
	_, cmd := s.Update(RequestRefreshMsg{})
	if cmd != nil && len(collectMsgs(cmd)) != 0 {
		t.Fatal("second refresh started while one was in flight")
	}
}

func testWorkspace(hash string, n int) index.Workspace {
	ws := index.Workspace{Hash: hash, Path: "/w/" + hash, Confidence: workspace.Observed}
	for i := 0; i < n; i++ {
		ws.Sessions = append(ws.Sessions, agent.ChatMeta{
			ID:        hash + "-c" + string(rune('a'+i)),
			Title:     "Chat",
			UpdatedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
	return ws
}

func TestWorkspacePickerReseatsSelectionByHash(t *testing.T) {
	app := &App{Config: config.Default()}
	ix := &index.Index{Workspaces: []index.Workspace{
		testWorkspace("aaaa", 1),
		testWorkspace("bbbb", 1),
		testWorkspace("cccc", 1),
	}}
	p := NewWorkspacePicker(app, ix)
	p.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	p.list.Select(2) // cccc

	// New snapshot reorders and drops a workspace.
	p.Update(indexSwappedMsg{ix: &index.Index{Workspaces: []index.Workspace{
		testWorkspace("cccc", 2),
		testWorkspace("aaaa", 1),
	}}})
	it, ok := p.list.SelectedItem().(workspaceItem)
	if !ok || it.ws.Hash != "cccc" {
		t.Fatalf("selection lost: %+v, ok=%v", it, ok)
	}
}

func TestSessionPickerReseatsSelectionByID(t *testing.T) {
	app := &App{Config: config.Default()}
	ws := testWorkspace("aaaa", 3)
	p := NewSessionPicker(app, ws)
	p.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	p.list.Select(1)
	selected := p.list.SelectedItem().(sessionItem).chat.ID

	// Reordered snapshot: same chats, new order.
	ws2 := ws
	ws2.Sessions = []agent.ChatMeta{ws.Sessions[2], ws.Sessions[0], ws.Sessions[1]}
	p.Update(indexSwappedMsg{ix: &index.Index{Workspaces: []index.Workspace{ws2}}})

	after, ok := p.list.SelectedItem().(sessionItem)
	if !ok || after.chat.ID != selected {
		t.Fatalf("selection moved from %s to %+v", selected, after)
	}
}

func TestSessionPickerPopsWhenWorkspaceVanishes(t *testing.T) {
	app := &App{Config: config.Default()}
	p := NewSessionPicker(app, testWorkspace("aaaa", 1))
	p.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	_, cmd := p.Update(indexSwappedMsg{ix: &index.Index{}})
	popped := false
	for _, msg := range collectMsgs(cmd) {
		if _, ok := msg.(PopPageMsg); ok {
			popped = true
		}
	}
	if !popped {
		t.Fatal("picker did not pop after its workspace vanished")
	}
}

func TestViewerDropsStalePreview(t *testing.T) {
	app := &App{Config: config.Default()}
	v := NewViewer(app, testWorkspace("aaaa", 1), agent.ChatMeta{ID: "c1", Title: "T"})
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	v.loading = true
	v.token.gen = 3

	v.Update(previewLoadedMsg{token: previewToken{chatID: "c1", gen: 2}, content: "stale"})
	if v.raw == "stale" || !v.loading {
		t.Fatal("stale preview accepted")
	}

	v.Update(previewLoadedMsg{token: previewToken{chatID: "c1", gen: 3}, content: "fresh"})
	if v.raw != "fresh" || v.loading {
		t.Fatalf("fresh preview rejected: raw=%q loading=%v", v.raw, v.loading)
	}
}

func TestSessionItemMarkers(t *testing.T) {
	degraded := sessionItem{chat: agent.ChatMeta{ID: "c1", Title: "Broken", Unreadable: true, Err: "no such table"}}
	if got := degraded.Title(); got != "! Broken" {
		t.Fatalf("degraded title = %q", got)
	}
	if desc := degraded.Description(); !strings.Contains(desc, "unreadable") {
		t.Fatalf("degraded description = %q", desc)
	}

	unknown := workspaceItem{ws: index.Workspace{Hash: "0123456789abcdef0123456789abcdef"}}
	if got := unknown.Title(); got != "? 0123456789ab…" {
		t.Fatalf("unknown title = %q", got)
	}
}
