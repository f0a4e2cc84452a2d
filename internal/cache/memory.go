package cache

import (
	"context"
	"sync"
)

// DefaultCapacity bounds the in-memory store when no capacity is configured.
const DefaultCapacity = 1000

// MemoryStore is a thread-safe bounded map with insertion-order eviction.
// When full, inserting a new key evicts the single oldest surviving key.
// Entries never expire by time, only under capacity pressure.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*Entry
	order    []string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a memory store holding at most capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		entries:  make(map[string]*Entry, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	return entry, ok
}

func (s *MemoryStore) Put(_ context.Context, key string, value *Entry) {
	if value == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; exists {
		// Overwrite keeps the key's original insertion position.
		s.entries[key] = value
		return
	}

	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}

	s.entries[key] = value
	s.order = append(s.order, key)
}

func (s *MemoryStore) Len(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
