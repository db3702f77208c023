package service

import (
	"context"

	historyservice "copro/internal/history/service"
	"copro/internal/resident/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/resident-mocks.go -package=mocks Store,HistoryRecorder,StoreTx

// Store persists resident aggregates.
type Store interface {
	// Create inserts a resident. Returns sentinel.ErrConflict when another
	// resident already occupies the same building, floor and door.
	Create(ctx context.Context, resident *models.Resident) error

	// FindByID returns sentinel.ErrNotFound when no resident has id.
	FindByID(ctx context.Context, id string) (*models.Resident, error)

	// List returns every resident in no particular order.
	List(ctx context.Context) ([]*models.Resident, error)

	// Search returns one page of residents matching q, already normalized,
	// and the number of matches across all pages.
	Search(ctx context.Context, q models.Query) ([]*models.Resident, int64, error)

	// Update replaces a stored resident. Returns sentinel.ErrNotFound or
	// sentinel.ErrConflict.
	Update(ctx context.Context, resident *models.Resident) error

	// Delete removes a resident. Returns sentinel.ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// HistoryRecorder captures resident changes in the audit trail. Its
// outcome never fails the calling mutation. Record* run inside the
// mutation's transaction; Publish runs after it commits.
type HistoryRecorder interface {
	RecordUpdate(ctx context.Context, oldRes, newRes *models.Resident, actor string) historyservice.Outcome
	RecordDelete(ctx context.Context, resident *models.Resident, actor string) historyservice.Outcome
	Publish(ctx context.Context, outcome historyservice.Outcome)
}

// StoreTx runs fn inside one unit of work.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}
