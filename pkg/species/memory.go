package species

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for development and tests
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Species
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Species)}
}

func (s *MemoryStore) List(ctx context.Context) ([]*Species, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Species, 0, len(s.byID))
	for _, sp := range s.byID {
		sp := sp
		list = append(list, &sp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Species, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sp, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func (s *MemoryStore) Insert(ctx context.Context, entries []*Species) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range entries {
		sp.ID = uuid.NewString()
		s.byID[sp.ID] = *sp
	}
	return nil
}
