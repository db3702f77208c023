package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"copro/internal/resident/models"
	"copro/pkg/platform/sentinel"
)

// InMemoryStore keeps residents in a map keyed by ID and enforces one
// resident per building, floor and door.
type InMemoryStore struct {
	mu        sync.RWMutex
	residents map[string]*models.Resident
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{residents: make(map[string]*models.Resident)}
}

func (s *InMemoryStore) Create(_ context.Context, resident *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.residents[resident.ID]; exists {
		return fmt.Errorf("resident %s: %w", resident.ID, sentinel.ErrConflict)
	}
	if s.unitTakenLocked(resident.Location, resident.ID) {
		return fmt.Errorf("unit occupied: %w", sentinel.ErrConflict)
	}
	s.residents[resident.ID] = resident.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.residents[id]
	if !ok {
		return nil, fmt.Errorf("resident %s: %w", id, sentinel.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Resident, 0, len(s.residents))
	for _, r := range s.residents {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) Search(_ context.Context, q models.Query) ([]*models.Resident, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Resident, 0)
	for _, r := range s.residents {
		if q.Matches(r) {
			matched = append(matched, r)
		}
	}

	slices.SortFunc(matched, q.Compare)
	total := int64(len(matched))
	start := min(q.Offset(), len(matched))
	end := min(start+q.Size, len(matched))
	page := make([]*models.Resident, 0, end-start)
	for _, r := range matched[start:end] {
		page = append(page, r.Clone())
	}
	return page, total, nil
}

func (s *InMemoryStore) Update(_ context.Context, resident *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residents[resident.ID]; !ok {
		return fmt.Errorf("resident %s: %w", resident.ID, sentinel.ErrNotFound)
	}
	if s.unitTakenLocked(resident.Location, resident.ID) {
		return fmt.Errorf("unit occupied: %w", sentinel.ErrConflict)
	}
	s.residents[resident.ID] = resident.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residents[id]; !ok {
		return fmt.Errorf("resident %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.residents, id)
	return nil
}

func (s *InMemoryStore) unitTakenLocked(loc models.Location, exceptID string) bool {
	for id, r := range s.residents {
		if id == exceptID {
			continue
		}
		if r.Location.Building == loc.Building && r.Location.Floor == loc.Floor && r.Location.Door == loc.Door {
			return true
		}
	}
	return false
}
