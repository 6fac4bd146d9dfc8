package storage

import (
	"context"
	"sync"
	"time"

	"rosterd/core"
)

// MemoryStore is an in-process StateStore and SessionStore guarded by a
// mutex. Expired entries are dropped lazily on access and by
// DeleteExpiredSessions sweeps.
type MemoryStore struct {
	mu       sync.Mutex
	states   map[string]time.Time
	sessions map[string]*core.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:   make(map[string]time.Time),
		sessions: make(map[string]*core.Session),
	}
}

func (m *MemoryStore) PutState(ctx context.Context, state string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[state] = expiresAt
	return nil
}

func (m *MemoryStore) ConsumeState(ctx context.Context, state string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt, ok := m.states[state]
	if !ok {
		return false, nil
	}

	// Single redemption: the entry is gone whether or not it was still valid.
	delete(m.states, state)

	if time.Now().After(expiresAt) {
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) CreateSession(ctx context.Context, session *core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return core.ErrAlreadyExists
	}

	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *MemoryStore) FindSession(ctx context.Context, id string) (*core.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, core.ErrNotFound
	}

	copied := *session
	return &copied, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return core.ErrNotFound
	}

	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var count int64

	for id, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, id)
			count++
		}
	}

	for state, expiresAt := range m.states {
		if now.After(expiresAt) {
			delete(m.states, state)
		}
	}

	return count, nil
}
