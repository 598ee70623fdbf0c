package workspace

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
)

// Resolution is the answer for one hash.
type Resolution struct {
	Hash       string
	Path       string
	Confidence Confidence
}

// Resolver maps workspace hashes to paths. It is the single writer of the
// persisted Map; all methods are safe for concurrent use.
type Resolver struct {
	mu   sync.Mutex
	m    *Map
	dirs UserDirs

	inferredOnce bool
	inferred     map[string]string // hash -> path, from IDE history

	flushWarned bool
	Logf        func(format string, args ...any)
}

// NewResolver wraps a loaded Map. The IDE dirs are only touched lazily,
// when a hash cannot be resolved from the map.
func NewResolver(m *Map, dirs UserDirs) *Resolver {
	return &Resolver{m: m, dirs: dirs}
}

// Observe records that path is a live workspace, binding every hash
// candidate at Observed confidence. Calling it repeatedly with the same
// path settles into a no-op.
func (r *Resolver) Observe(path string) {
	abs := path
	if !filepath.IsAbs(abs) {
		if a, err := filepath.Abs(abs); err == nil {
			abs = a
		}
	}
	canonical := abs
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		canonical = resolved
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	changed := false
	for _, h := range agent.HashCandidates(abs) {
		if r.m.Record(h, canonical, Observed) {
			changed = true
		}
	}
	if changed {
		r.flushLocked()
	}
}

// ObserveCwd is the self-healing hook: every run of the tool teaches the
// map about the directory it ran in.
func (r *Resolver) ObserveCwd() {
	if cwd, err := os.Getwd(); err == nil {
		r.Observe(cwd)
	}
}

// Resolve answers for one hash. Observed entries win, then Inferred ones,
// then a lazy scan of the IDE's folder history; otherwise Unknown.
func (r *Resolver) Resolve(hash string) Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.m.Lookup(hash); ok && e.Confidence == Observed {
		return Resolution{Hash: hash, Path: e.Path, Confidence: Observed}
	}
	if e, ok := r.m.Lookup(hash); ok && e.Confidence == Inferred {
		return Resolution{Hash: hash, Path: e.Path, Confidence: Inferred}
	}

	r.inferLocked()
	if p, ok := r.inferred[hash]; ok {
		if r.m.Record(hash, p, Inferred) {
			r.flushLocked()
		}
		return Resolution{Hash: hash, Path: p, Confidence: Inferred}
	}
	return Resolution{Hash: hash, Confidence: Unknown}
}

// RecordInferred binds a hash at Inferred confidence, never downgrading
// an Observed entry.
func (r *Resolver) RecordInferred(hash, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m.Record(hash, path, Inferred) {
		r.flushLocked()
	}
}

// inferLocked builds the hash->path table from the IDE's recently opened
// folders, once per process.
func (r *Resolver) inferLocked() {
	if r.inferredOnce {
		return
	}
	r.inferredOnce = true
	r.inferred = map[string]string{}
	for _, p := range RecentWorkspacePaths(r.dirs.GlobalStateDB()) {
		for _, h := range agent.HashCandidates(p) {
			if _, ok := r.inferred[h]; !ok {
				r.inferred[h] = p
			}
		}
	}
}

// flushLocked persists the map. A write failure degrades to in-memory
// operation with a single warning.
func (r *Resolver) flushLocked() {
	if err := r.m.Flush(); err != nil && !r.flushWarned {
		r.flushWarned = true
		if r.Logf != nil {
			r.Logf("workspace map not persisted, continuing in memory: %v", err)
		}
	}
}
