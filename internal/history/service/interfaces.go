package service

import (
	"context"

	"copro/internal/history/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/history-mocks.go -package=mocks Store,Publisher

// Store is the append-only persistence for history records.
// Both list queries return records ordered by OccurredAt, newest first.
type Store interface {
	// Save appends a record. Records are never updated or deleted.
	Save(ctx context.Context, record models.Record) error

	// ListByApartment returns every record for a physical unit, across
	// all residents that occupied it.
	ListByApartment(ctx context.Context, apartmentKey string) ([]models.Record, error)

	// ListByResident returns every record for one resident aggregate.
	ListByResident(ctx context.Context, residentKey string) ([]models.Record, error)
}

// Publisher forwards persisted records to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, record models.Record) error
}
