package interview

import (
	"log/slog"
	"sync"
	"time"
)

// Store maps session identifiers to live interview sessions. Entries are
// created on connect and removed on disconnect; there is no persistence.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create inserts a fresh session for the given identifier. An existing entry
// under the same identifier is invalidated and replaced.
func (st *Store) Create(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if existing, ok := st.sessions[id]; ok {
		existing.mu.Lock()
		existing.invalidateLocked()
		existing.mu.Unlock()
	}

	s := newSession(id)
	st.sessions[id] = s
	slog.Info("Interview session created", "session_id", id)
	return s
}

// Get returns the session for the identifier, or nil.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// Delete removes a session, cancelling its pending timer and invalidating
// any in-flight turn. Safe to call for unknown identifiers.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	if !ok {
		return
	}

	s.mu.Lock()
	s.invalidateLocked()
	s.mu.Unlock()
	slog.Info("Interview session deleted", "session_id", id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Idle returns sessions with no activity for at least maxIdle.
func (st *Store) Idle(maxIdle time.Duration) []*Session {
	cutoff := time.Now().Add(-maxIdle)

	st.mu.RLock()
	defer st.mu.RUnlock()

	var idle []*Session
	for _, s := range st.sessions {
		if s.LastActivity().Before(cutoff) {
			idle = append(idle, s)
		}
	}
	return idle
}
