package pets

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for development and tests
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Pet
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Pet)}
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]*Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Pet, 0)
	for _, p := range s.byID {
		if p.OwnerID == ownerID {
			p := p
			list = append(list, &p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) GetByOwner(ctx context.Context, ownerID, id string) (*Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok || p.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) Create(ctx context.Context, pet *Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet.ID = uuid.NewString()
	s.byID[pet.ID] = *pet
	return nil
}
