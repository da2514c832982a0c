package config

import (
	"sync"
)

// Settings owns the live configuration for one workspace and notifies
// subscribers when it is replaced. Subscriptions are explicit handles
// closed deterministically by their owner.
type Settings struct {
	mu     sync.Mutex
	root   string
	cfg    Config
	nextID int
	subs   map[int]func(Config)
}

// NewSettings wraps a decoded configuration for the given workspace root.
func NewSettings(root string, cfg Config) *Settings {
	return &Settings{
		root: root,
		cfg:  cfg,
		subs: make(map[int]func(Config)),
	}
}

// Root returns the workspace root these settings belong to.
func (s *Settings) Root() string {
	return s.root
}

// Config returns the current configuration snapshot.
func (s *Settings) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Replace installs a new configuration and fires all subscribers.
// Subscribers run outside the lock; a handler may close its own handle.
func (s *Settings) Replace(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	handlers := make([]func(Config), 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(cfg)
	}
}

// Subscription is a handle to a change notification registration.
type Subscription struct {
	owner *Settings
	id    int
	once  sync.Once
}

// Close detaches the subscription. Safe to call more than once.
func (sub *Subscription) Close() {
	if sub == nil || sub.owner == nil {
		return
	}
	sub.once.Do(func() {
		sub.owner.mu.Lock()
		delete(sub.owner.subs, sub.id)
		sub.owner.mu.Unlock()
	})
}

// Subscribe registers fn to run on every Replace. The returned handle must
// be closed by the owner when the interest ends.
func (s *Settings) Subscribe(fn func(Config)) *Subscription {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return &Subscription{owner: s, id: id}
}

// closeAll drops every subscriber; used by Registry teardown.
func (s *Settings) closeAll() {
	s.mu.Lock()
	s.subs = make(map[int]func(Config))
	s.mu.Unlock()
}
