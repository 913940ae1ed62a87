package redis

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      SessionData
	expiresAt time.Time
}

// MemoryStore is the session store used when REDIS_URL is empty. Expired
// sessions are dropped when they are next read.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) SetSession(ctx context.Context, sessionID string, data *SessionData, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = memoryEntry{data: *data, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, sessionID string) (*SessionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.sessions, sessionID)
		return nil, ErrSessionNotFound
	}
	data := entry.data
	return &data, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
