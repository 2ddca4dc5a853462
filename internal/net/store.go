package net

import "sync"

// SessionStore indexes live sessions by ID. The game loop adds and removes;
// action-result goroutines look sessions up to deliver verdicts, so access
// is locked.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *SessionStore) Remove(id uint64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.sessions[id]
	delete(st.sessions, id)
	return s
}

func (st *SessionStore) Get(id uint64) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Snapshot returns the current sessions as a slice, so the game loop can
// iterate and dispatch handlers without holding the store lock.
func (st *SessionStore) Snapshot() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}

// Each calls fn for every live session. Game loop use.
func (st *SessionStore) Each(fn func(*Session)) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, s := range st.sessions {
		fn(s)
	}
}
