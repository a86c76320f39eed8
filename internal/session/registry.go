package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Key struct {
	BrowserID string
	Code      string
}

// Registry holds the live sessions of every browser, one per game code.
type Registry struct {
	mu       sync.Mutex
	sessions map[Key]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[Key]*Session)}
}

func (r *Registry) Get(key Key) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Put stores s under key, closing whatever session it replaces.
func (r *Registry) Put(key Key, s *Session) {
	r.mu.Lock()
	old := r.sessions[key]
	r.sessions[key] = s
	r.mu.Unlock()
	if old != nil && old != s {
		old.Close()
	}
}

func (r *Registry) Remove(key Key) {
	r.mu.Lock()
	s := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

// FindPlayer returns the session currently driving playerID, if any.
func (r *Registry) FindPlayer(playerID uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.Unlock()
	for _, s := range list {
		if s.PlayerID() == playerID {
			return s, true
		}
	}
	return nil, false
}

// Sweep closes and drops sessions untouched for longer than idle.
func (r *Registry) Sweep(idle time.Duration, now time.Time) int {
	r.mu.Lock()
	var stale []*Session
	for key, s := range r.sessions {
		if s.idleSince(now) > idle {
			stale = append(stale, s)
			delete(r.sessions, key)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// CloseAll closes and drops every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	list := make([]*Session, 0, len(r.sessions))
	for key, s := range r.sessions {
		list = append(list, s)
		delete(r.sessions, key)
	}
	r.mu.Unlock()
	for _, s := range list {
		s.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
