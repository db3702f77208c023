package store

import (
	"context"
	"sort"
	"sync"

	"copro/internal/history/models"
)

// InMemoryStore keeps history records in process memory. It backs local
// runs and tests; records are lost on restart.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []models.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

func (s *InMemoryStore) Save(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, cloneRecord(record))
	return nil
}

func (s *InMemoryStore) ListByApartment(_ context.Context, apartmentKey string) ([]models.Record, error) {
	return s.filter(func(r models.Record) bool { return r.ApartmentKey == apartmentKey }), nil
}

func (s *InMemoryStore) ListByResident(_ context.Context, residentKey string) ([]models.Record, error) {
	return s.filter(func(r models.Record) bool { return r.ResidentKey == residentKey }), nil
}

// filter walks records newest-saved first so the stable sort leaves
// equal timestamps in reverse save order.
func (s *InMemoryStore) filter(match func(models.Record) bool) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		if match(s.records[i]) {
			out = append(out, cloneRecord(s.records[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out
}

func cloneRecord(r models.Record) models.Record {
	if r.Changes != nil {
		r.Changes = append([]models.Change(nil), r.Changes...)
	}
	return r
}
