package pyenv

import (
	"context"
	"sync"
)

// Manager caches resolved interpreters per workspace root. A cached entry
// is reused while the configured interpreter path stays value-equal;
// changing the setting or an explicit invalidation forces a full re-run of
// the probe chain. Reads dominate; last-write-wins is acceptable.
type Manager struct {
	mu       sync.Mutex
	resolver *Resolver
	entries  map[string]managedEntry
}

type managedEntry struct {
	configured string
	interp     Interpreter
}

// NewManager wraps a Resolver with per-workspace caching.
func NewManager(resolver *Resolver) *Manager {
	return &Manager{
		resolver: resolver,
		entries:  make(map[string]managedEntry),
	}
}

// Interpreter returns the cached interpreter for root, resolving when the
// cache is empty or the configured path changed since the last resolution.
func (m *Manager) Interpreter(ctx context.Context, root string, env Environ, configured string) Interpreter {
	m.mu.Lock()
	if entry, ok := m.entries[root]; ok && entry.configured == configured {
		m.mu.Unlock()
		return entry.interp
	}
	m.mu.Unlock()

	// Резолвим вне лока: пробы ходят в файловую систему и запускают процессы.
	interp := m.resolver.Resolve(ctx, root, env, configured)

	m.mu.Lock()
	m.entries[root] = managedEntry{configured: configured, interp: interp}
	m.mu.Unlock()
	return interp
}

// Invalidate drops the cached entry for one workspace.
func (m *Manager) Invalidate(root string) {
	m.mu.Lock()
	delete(m.entries, root)
	m.mu.Unlock()
}

// InvalidateAll drops every cached entry.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	m.entries = make(map[string]managedEntry)
	m.mu.Unlock()
}
