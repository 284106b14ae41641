package session

import (
	"context"
	"sync"
)

// MemoryStore mirrors the redis store's semantics behind a mutex. TTL is not
// simulated; tests that need expiry drive the redis store against a real
// instance instead.
type MemoryStore struct {
	mu           sync.Mutex
	defaultQuota int
	quotas       map[string]int
	sources      map[string][]SourceMetadata
}

var _ Store = &MemoryStore{}

func NewMemoryStore(defaultQuota int) *MemoryStore {
	return &MemoryStore{
		defaultQuota: defaultQuota,
		quotas:       make(map[string]int),
		sources:      make(map[string][]SourceMetadata),
	}
}

func (s *MemoryStore) ConsumeQuota(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining, ok := s.quotas[sessionID]
	if !ok {
		remaining = s.defaultQuota
	}
	if remaining <= 0 {
		return 0, ErrQuotaExhausted
	}
	remaining--
	s.quotas[sessionID] = remaining
	return remaining, nil
}

func (s *MemoryStore) GetQuota(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining, ok := s.quotas[sessionID]
	if !ok {
		return s.defaultQuota, nil
	}
	return remaining, nil
}

func (s *MemoryStore) ResetQuota(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotas[sessionID] = s.defaultQuota
	return s.defaultQuota, nil
}

func (s *MemoryStore) AppendSource(ctx context.Context, sessionID string, src SourceMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources[sessionID] = append(s.sources[sessionID], src)
	return nil
}

func (s *MemoryStore) ListSources(ctx context.Context, sessionID string) ([]SourceMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources := s.sources[sessionID]
	out := make([]SourceMetadata, len(sources))
	copy(out, sources)
	return out, nil
}

func (s *MemoryStore) RemoveSource(ctx context.Context, sessionID string, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources := s.sources[sessionID]
	kept := sources[:0]
	removed := false
	for _, src := range sources {
		if src.Name == name {
			removed = true
			continue
		}
		kept = append(kept, src)
	}
	s.sources[sessionID] = kept
	return removed, nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.quotas, sessionID)
	delete(s.sources, sessionID)
	return nil
}
