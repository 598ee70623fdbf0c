package tui

import (
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/tuilog"
)

// watchDebounce coalesces bursts of store writes into one refresh.
const watchDebounce = 500 * time.Millisecond

// storeWatcher watches the chats tree and emits one notification per
// debounced burst of filesystem activity.
type storeWatcher struct {
	fw     *fsnotify.Watcher
	events chan struct{}
	done   chan struct{}
}

// newStoreWatcher watches the chats root and its hash directories.
// cursor-agent creates chat dirs two levels deep, so new hash dirs are
// added to the watch as they appear. Returns nil when watching is
// unavailable; the TUI then relies on the periodic tick.
func newStoreWatcher(chatsRoot string) *storeWatcher {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		tuilog.Log.Warnf("fsnotify unavailable: %v", err)
		return nil
	}
	w := &storeWatcher{
		fw:     fw,
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if err := fw.Add(chatsRoot); err != nil {
		tuilog.Log.Warnf("watch %s: %v", chatsRoot, err)
		fw.Close()
		return nil
	}
	if entries, err := os.ReadDir(chatsRoot); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				fw.Add(filepath.Join(chatsRoot, e.Name()))
			}
		}
	}
	go w.loop()
	return w
}

func (w *storeWatcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.fw.Add(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			tuilog.Log.Warnf("watcher error: %v", err)
		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.events <- struct{}{}:
			default:
			}
		}
	}
}

// Close stops the watcher.
func (w *storeWatcher) Close() {
	if w == nil {
		return
	}
	close(w.done)
	w.fw.Close()
}

// waitCmd blocks until the next debounced change notification.
func (w *storeWatcher) waitCmd() tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.events; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}
