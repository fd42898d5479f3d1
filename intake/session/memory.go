package session

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how often Save scans for idle sessions.
const sweepEvery = time.Minute

// MemoryStore keeps sessions in process memory. Sessions idle for longer than
// the TTL are treated as missing and dropped, as Redis would expire them.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	sessions  map[int64]*Session
	lastSweep time.Time
}

// NewMemoryStore constructs an empty store with DefaultTTL.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreTTL(DefaultTTL)
}

// NewMemoryStoreTTL constructs an empty store; ttl <= 0 means DefaultTTL.
func NewMemoryStoreTTL(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[int64]*Session),
	}
}

// Get returns a copy of the user's session if it exists and has not expired.
func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok || m.expired(s, m.now()) {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

// Save stores a copy of s, replacing any previous session of the same user.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored := s.Clone()
	stored.UpdatedAt = now
	m.sessions[s.UserID] = stored
	m.sweep(now)
	return nil
}

// Reset replaces the user's session with a fresh one and returns a copy of it.
func (m *MemoryStore) Reset(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := New(userID)
	s.UpdatedAt = m.now()
	m.sessions[userID] = s
	return s.Clone(), nil
}

// Delete removes the user's session.
func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

// Len reports how many sessions are held, expired ones included until swept.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(s *Session, now time.Time) bool {
	return now.Sub(s.UpdatedAt) > m.ttl
}

// sweep drops expired sessions. Callers hold the write lock.
func (m *MemoryStore) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepEvery {
		return
	}
	m.lastSweep = now
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
		}
	}
}
