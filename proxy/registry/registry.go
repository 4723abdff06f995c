// Package registry tracks the relay sessions a proxy has created, so
// the inspection API can enumerate them and dump their capture logs.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wiretap-proxy/wiretap/internal/session"
)

// ErrNotFound is returned when a session ID is not in the registry
var ErrNotFound = fmt.Errorf("session not found")

// Registry is a concurrency-safe collection of sessions keyed by ID.
// Ended sessions stay registered until explicitly removed, so their
// captures remain inspectable after teardown.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{
		sessions: make(map[string]*session.Session),
	}
}

// Add registers a session under its ID
func (r *Registry) Add(s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns the session with the given ID
func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Remove deletes the session with the given ID, if present
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// List returns all registered sessions ordered by start time
func (r *Registry) List() []*session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime().Before(out[j].StartTime())
	})
	return out
}

// Count returns the number of registered sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
