package cache

import (
	"context"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration. Expired
// entries are dropped lazily on read and swept when the cache grows
// past its size limit.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	sets    map[string]map[string]struct{}
	maxSize int
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		sets:    make(map[string]map[string]struct{}),
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get retrieves a value, treating expired entries as missing.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if e.expired(time.Now()) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a value with the given TTL.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}
	m.entries[key] = &entry{value: stored, expiresAt: expiresAt}
	return nil
}

// Delete removes a value.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// AddToSet adds a member to the set at key.
func (m *Memory) AddToSet(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]struct{})
		m.sets[key] = s
	}
	s[member] = struct{}{}
	return nil
}

// RemoveFromSet removes a member from the set at key.
func (m *Memory) RemoveFromSet(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key]
	if !ok {
		return nil
	}
	delete(s, member)
	if len(s) == 0 {
		delete(m.sets, key)
	}
	return nil
}

// SetMembers returns the members of the set at key.
func (m *Memory) SetMembers(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sets[key]
	out := make([]string, 0, len(s))
	for member := range s {
		out = append(out, member)
	}
	return out, nil
}

// DeleteSet removes the set at key.
func (m *Memory) DeleteSet(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.sets, key)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds for the in-memory backend.
func (m *Memory) Ping(_ context.Context) error { return nil }

// Close clears the cache.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]*entry)
	m.sets = make(map[string]map[string]struct{})
	m.mu.Unlock()
	return nil
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
