// Package session keeps dialogue states between turns and serializes the
// turns of each session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/posting-assistant/internal/dialogue"
)

// Store persists dialogue states by session id. Get returns
// ErrSessionNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (dialogue.State, error)
	Put(ctx context.Context, s dialogue.State) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps states in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]dialogue.State
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]dialogue.State)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (dialogue.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return dialogue.State{}, ErrSessionNotFound
	}
	return s, nil
}

// Put implements Store. States are values built copy-on-write by the
// dialogue package, so they are stored as given.
func (m *MemoryStore) Put(_ context.Context, s dialogue.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle removes the sessions last updated before cutoff and returns
// their ids. Sessions for which busy reports true are kept; busy may be nil.
func (m *MemoryStore) EvictIdle(cutoff time.Time, busy func(id string) bool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var evicted []string
	for id, s := range m.sessions {
		last := s.UpdatedAt
		if last.IsZero() {
			last = s.CreatedAt
		}
		if !last.Before(cutoff) || (busy != nil && busy(id)) {
			continue
		}
		delete(m.sessions, id)
		evicted = append(evicted, id)
	}
	return evicted
}
