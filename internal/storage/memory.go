package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/brightpath/learning-core/internal/logger"
)

// MemoryBackend keeps every record in process memory. It is the fallback
// when neither relational nor object-storage configuration is present, and
// the workhorse for tests. List is documented to return values in
// ascending key order.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
	log  *logger.Logger
}

func NewMemoryBackend(baseLog *logger.Logger) *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string][]byte),
		log:  baseLog.With("backend", "memory"),
	}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Save(ctx context.Context, key string, value []byte, _ Options) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("memory.save", err)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	m.data[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Load(ctx context.Context, key string, _ Options) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, wrapErr("memory.load", err)
	}
	m.mu.RLock()
	value, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, key string, _ Options) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("memory.delete", err)
	}
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) List(ctx context.Context, prefix string, _ Options) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("memory.list", err)
	}
	m.mu.RLock()
	keys := make([]string, 0)
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		value := m.data[k]
		cp := make([]byte, len(value))
		copy(cp, value)
		out = append(out, cp)
	}
	m.mu.RUnlock()
	return out, nil
}

// Len reports the number of stored records. Used by tests and the sync
// idempotence checks.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
