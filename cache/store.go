// Package cache holds fetched upstream data behind a pluggable key-value
// store. Values are stored JSON-encoded together with the time they were
// written so the Cache can apply a TTL policy independently of the backend.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Entry is one stored value
type Entry struct {
	Value    []byte
	StoredAt time.Time
}

// Store is the backing key-value store
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, entry Entry) error {
	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{Value: value, StoredAt: entry.StoredAt}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Open builds the store named by driver: "memory", "sqlite" (path) or
// "postgres" (dsn).
func Open(ctx context.Context, driver, path, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(path)
	case "postgres":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}
