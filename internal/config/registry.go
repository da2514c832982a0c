package config

import (
	"sync"
)

// Registry owns one Settings instance per workspace root. It replaces the
// usual process-wide singleton: collaborators receive the registry
// explicitly, and Close releases every entry and its subscriptions.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Settings
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Settings)}
}

// Get returns the Settings for root, loading pybridge.toml (or defaults)
// on first access.
func (r *Registry) Get(root string) (*Settings, error) {
	r.mu.Lock()
	if s, ok := r.entries[root]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	cfg, _, err := LoadWorkspace(root)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Кто-то мог успеть создать запись, пока мы читали файл.
	if s, ok := r.entries[root]; ok {
		return s, nil
	}
	s := NewSettings(root, cfg)
	r.entries[root] = s
	return s, nil
}

// Reload re-reads the manifest for root and fires subscribers on change.
func (r *Registry) Reload(root string) error {
	s, err := r.Get(root)
	if err != nil {
		return err
	}
	cfg, _, err := LoadWorkspace(root)
	if err != nil {
		return err
	}
	s.Replace(cfg)
	return nil
}

// Close releases all entries and their subscription handles.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.entries {
		s.closeAll()
	}
	r.entries = make(map[string]*Settings)
}
