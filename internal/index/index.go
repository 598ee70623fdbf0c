// Package index builds a browsable snapshot of every cursor-agent chat on
// the machine, joining the on-disk store with workspace identity.
package index

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/workspace"
)

// scanParallelism bounds concurrent workspace scans. Each scan opens
// sqlite files, so unbounded fan-out mostly burns file descriptors.
const scanParallelism = 8

// Workspace is one hash bucket with its resolved identity and chats.
// Err is set when the workspace directory itself could not be read; the
// workspace stays listed with no sessions.
type Workspace struct {
	Hash       string               `json:"hash"`
	Path       string               `json:"path,omitempty"`
	Confidence workspace.Confidence `json:"confidence"`
	Sessions   []agent.ChatMeta     `json:"sessions"`
	Err        string               `json:"error,omitempty"`
}

// DisplayName returns what pickers show for this workspace: the resolved
// path, or the truncated hash when unresolved.
func (w Workspace) DisplayName() string {
	if w.Path != "" {
		return w.Path
	}
	return w.Hash[:12] + "…"
}

// Base returns the last path element of the resolved path, for compact
// listings. Falls back to DisplayName.
func (w Workspace) Base() string {
	if w.Path != "" {
		return filepath.Base(w.Path)
	}
	return w.DisplayName()
}

// LastActivity returns the newest session timestamp, or zero when the
// workspace has no sessions.
func (w Workspace) LastActivity() time.Time {
	if len(w.Sessions) == 0 {
		return time.Time{}
	}
	return w.Sessions[0].UpdatedAt
}

// Index is an immutable snapshot. Refresh builds a new one; consumers
// swap pointers and never mutate a published snapshot.
type Index struct {
	Workspaces []Workspace `json:"workspaces"`
	BuiltAt    time.Time   `json:"built_at"`
	Generation uint64      `json:"-"`
}

// SessionCount totals sessions across all workspaces.
func (ix *Index) SessionCount() int {
	n := 0
	for _, w := range ix.Workspaces {
		n += len(w.Sessions)
	}
	return n
}

// Find returns the workspace for a hash, if present.
func (ix *Index) Find(hash string) (Workspace, bool) {
	for _, w := range ix.Workspaces {
		if w.Hash == hash {
			return w, true
		}
	}
	return Workspace{}, false
}

// FindSession locates a session by chat ID across all workspaces.
func (ix *Index) FindSession(chatID string) (Workspace, agent.ChatMeta, bool) {
	for _, w := range ix.Workspaces {
		for _, s := range w.Sessions {
			if s.ID == chatID {
				return w, s, true
			}
		}
	}
	return Workspace{}, agent.ChatMeta{}, false
}

// Build scans the store and resolves identities into a fresh snapshot.
// The only fatal error is a missing storage root (or a canceled context);
// per-workspace and per-chat failures degrade in place.
func Build(ctx context.Context, store *agent.Store, resolver *workspace.Resolver, titles *agent.TitleCache) (*Index, error) {
	return build(ctx, store, resolver, titles, 1)
}

// Refresh builds a successor snapshot. Identity strength only grows: the
// resolver's map already holds everything prev learned, so re-resolving
// cannot lose an Observed binding. Vanished hashes and chats drop out.
func Refresh(ctx context.Context, prev *Index, store *agent.Store, resolver *workspace.Resolver, titles *agent.TitleCache) (*Index, error) {
	store.ResetCache()
	gen := uint64(1)
	if prev != nil {
		gen = prev.Generation + 1
	}
	return build(ctx, store, resolver, titles, gen)
}

func build(ctx context.Context, store *agent.Store, resolver *workspace.Resolver, titles *agent.TitleCache, gen uint64) (*Index, error) {
	recs, err := store.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}

	workspaces := make([]Workspace, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanParallelism)
	for i, rec := range recs {
		g.Go(func() error {
			chats, err := store.ListChats(gctx, rec.Hash)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				// An unreadable workspace dir degrades in place; only the
				// missing chats root aborts a build.
				res := resolver.Resolve(rec.Hash)
				workspaces[i] = Workspace{
					Hash:       rec.Hash,
					Path:       res.Path,
					Confidence: res.Confidence,
					Err:        err.Error(),
				}
				return nil
			}
			res := resolver.Resolve(rec.Hash)
			if titles != nil {
				hydrateTitles(titles, rec.Hash, chats)
			}
			workspaces[i] = Workspace{
				Hash:       rec.Hash,
				Path:       res.Path,
				Confidence: res.Confidence,
				Sessions:   chats,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortWorkspaces(workspaces)
	return &Index{Workspaces: workspaces, BuiltAt: time.Now(), Generation: gen}, nil
}

// hydrateTitles swaps generic chat names for cached derived titles.
func hydrateTitles(titles *agent.TitleCache, hash string, chats []agent.ChatMeta) {
	for i := range chats {
		if !agent.IsGenericTitle(chats[i].Title) {
			continue
		}
		if t := titles.Get(hash, chats[i].ID); t != "" {
			chats[i].Title = t
		}
	}
}

// sortWorkspaces puts resolved workspaces first, newest activity first
// within each group, hash ascending on ties.
func sortWorkspaces(ws []Workspace) {
	sort.SliceStable(ws, func(i, j int) bool {
		ri := ws[i].Confidence != workspace.Unknown
		rj := ws[j].Confidence != workspace.Unknown
		if ri != rj {
			return ri
		}
		ti, tj := ws[i].LastActivity(), ws[j].LastActivity()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ws[i].Hash < ws[j].Hash
	})
}
