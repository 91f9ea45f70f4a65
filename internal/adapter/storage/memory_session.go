package storage

import (
	"context"
	"sync"
	"time"

	"github.com/snikitin/parts-bot/internal/core/domain"
)

// MemorySessionStore keeps sessions in process memory. TTL of zero
// means sessions never expire; otherwise a stale session is dropped
// lazily on the next Get.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]domain.Session
	ttl      time.Duration
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[int64]domain.Session),
		ttl:      ttl,
	}
}

func (m *MemorySessionStore) Get(ctx context.Context, chatID int64) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && time.Since(s.UpdatedAt) > m.ttl {
		delete(m.sessions, chatID)
		return nil, nil
	}
	out := s
	return &out, nil
}

func (m *MemorySessionStore) Put(ctx context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ChatID] = session
	return nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}
