// Package cache provides the shared key/value store behind screen state
// snapshots. The contract is deliberately small: set a value with a TTL, and
// take it back exactly once. Two backends ship with the platform — an
// in-process map for tests and single-node deployments, and an SQLite table
// for anything that must survive a restart.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a TTL'd key/value store with a single-use read.
type Cache interface {
	// SetWithTTL stores value under key. The entry expires after ttl.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// GetAndDelete atomically removes and returns the entry for key.
	// When two callers race on the same key, exactly one receives the value;
	// the other sees ok=false. Absent or expired keys yield ok=false, not an
	// error.
	GetAndDelete(ctx context.Context, key string) (value []byte, ok bool, err error)
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a mutex-guarded in-process Cache.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

// SetWithTTL implements Cache.
func (m *Memory) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// GetAndDelete implements Cache.
func (m *Memory) GetAndDelete(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	delete(m.entries, key)
	if m.now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Len returns the number of entries currently held, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
