package pastesvc

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps paste entries in process memory. Meant for tests and for
// development runs that should not touch disk.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*Entry),
	}
}

func (s *MemoryStore) Put(_ context.Context, entry *Entry) error {
	stored := *entry
	stored.Content = append([]byte(nil), entry.Content...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[entry.ID] = &stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.data[id]
	if !ok || stored.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	entry := *stored
	entry.Content = append([]byte(nil), stored.Content...)
	return &entry, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context) (int, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, stored := range s.data {
		if stored.Expired(now) {
			delete(s.data, id)
			purged++
		}
	}
	return purged, nil
}
