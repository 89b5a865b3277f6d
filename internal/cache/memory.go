package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is the in-process TTL cache. Entries are evicted lazily on
// read; a mutation on the same process invalidates synchronously, so a
// local reader never observes its own stale write.
type MemoryStore struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]entry),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.m, key)
		s.mu.Unlock()
		return nil, false
	}
	cp := make([]byte, len(e.value))
	copy(cp, e.value)
	return cp, true
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.mu.Lock()
	s.m[key] = entry{value: cp, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *MemoryStore) Invalidate(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}
