package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	raw     []byte
	expires time.Time
}

// MemoryStore is the single-process fallback used when no redis is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]entry
	versions map[string]int64
	now      func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]entry),
		versions: make(map[string]int64),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expires) {
		return false, nil
	}
	return true, json.Unmarshal(e.raw, dest)
}

func (m *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{raw: raw, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Version(_ context.Context, namespace string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[namespace], nil
}

func (m *MemoryStore) Bump(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[namespace]++
	// older versions can never be read again
	for k, e := range m.entries {
		if m.now().After(e.expires) {
			delete(m.entries, k)
		}
	}
	return nil
}
