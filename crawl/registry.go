package crawl

import (
	"errors"
	"sort"
	"sync"
)

// ErrSessionNotFound is returned by registry lookups for unknown IDs.
var ErrSessionNotFound = errors.New("session not found")

// Registry tracks live and finished sessions in memory. It owns the
// cancellation path: handlers look sessions up here and ask the
// registry to cancel them.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	session *Session
	engine  *Engine
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Add registers a session and the engine driving it.
func (r *Registry) Add(s *Session, e *Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[s.ID] = &registryEntry{session: s, engine: e}
}

// Get returns a snapshot of the session with the given ID, safe to read
// while its engine is running.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ent, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return ent.snapshot(), true
}

func (ent *registryEntry) snapshot() *Session {
	if ent.engine == nil {
		return ent.session
	}
	snap := ent.engine.Snapshot()
	return &snap
}

// Cancel requests cancellation of a running session. Cancelling a
// session that already reached a terminal state is a no-op.
func (r *Registry) Cancel(id string) error {
	r.mu.RLock()
	ent, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	if ent.snapshot().Status.Terminal() {
		return nil
	}
	if ent.engine != nil {
		ent.engine.RequestCancel()
	}
	return nil
}

// List returns snapshots of all known sessions, newest first.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.entries))
	for _, ent := range r.entries {
		out = append(out, ent.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}
