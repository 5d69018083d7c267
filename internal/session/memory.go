package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	memberID  int64
	expiresAt time.Time
}

// MemoryStore はプロセス内でセッションを保持します。開発環境とテスト用です。
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore は MemoryStore を作成します。ttl が 0 以下の場合は期限切れになりません。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Bind(_ context.Context, token string, memberID int64) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{memberID: memberID}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[token] = entry
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, token string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return 0, false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, token)
		return 0, false, nil
	}
	return entry.memberID, true, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}
