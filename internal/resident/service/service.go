package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	historyservice "copro/internal/history/service"
	"copro/internal/resident/models"
	dErrors "copro/pkg/domain-errors"
	"copro/pkg/platform/sentinel"
	txcontext "copro/pkg/platform/tx"
	"copro/pkg/requestcontext"
)

// Service orchestrates resident lifecycle and feeds the history recorder.
type Service struct {
	residents Store
	history   HistoryRecorder
	tx        StoreTx
	logger    *slog.Logger
	newID     func() string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithStoreTx sets the transaction runner. Defaults to an in-memory runner.
func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// New constructs a Service.
func New(residents Store, history HistoryRecorder, opts ...Option) (*Service, error) {
	if residents == nil {
		return nil, errors.New("resident store is required")
	}
	if history == nil {
		return nil, errors.New("history recorder is required")
	}
	s := &Service{
		residents: residents,
		history:   history,
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = txcontext.NewInMemoryRunner()
	}
	return s, nil
}

// Create registers a new resident.
func (s *Service) Create(ctx context.Context, input *models.Resident) (*models.Resident, error) {
	if input == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident is required")
	}
	resident := input.Clone()
	resident.Normalize()
	if err := resident.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	resident.ID = s.newID()
	resident.CreatedAt = now
	resident.UpdatedAt = now
	ensureSlices(resident)

	if err := s.residents.Create(ctx, resident); err != nil {
		return nil, wrapStoreErr(err, resident, "failed to create resident")
	}
	s.logger.InfoContext(ctx, "resident created",
		"resident_id", resident.ID,
		"lot_id", resident.LotID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return resident, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Resident, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}
	resident, err := s.residents.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, nil, "failed to load resident")
	}
	return resident, nil
}

// Search returns one page of residents. Without a sort field the page is
// ordered by building then door.
func (s *Service) Search(ctx context.Context, q models.Query) (models.Page, error) {
	if err := q.Normalize(); err != nil {
		return models.Page{}, err
	}
	residents, total, err := s.residents.Search(ctx, q)
	if err != nil {
		return models.Page{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search residents")
	}
	return models.NewPage(residents, q, total), nil
}

// Statistics aggregates every resident.
func (s *Service) Statistics(ctx context.Context) (models.Statistics, error) {
	residents, err := s.residents.List(ctx)
	if err != nil {
		return models.Statistics{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute statistics")
	}
	return models.ComputeStatistics(residents), nil
}

// Update replaces a resident and records what changed. The history record
// is written in the same transaction as the update when the store supports
// it and published once that transaction commits. A history failure never
// fails the update.
func (s *Service) Update(ctx context.Context, id string, input *models.Resident) (*models.Resident, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}
	if input == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident is required")
	}
	updated := input.Clone()
	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	ensureSlices(updated)

	actor := requestcontext.Actor(ctx)
	var outcome historyservice.Outcome
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.residents.FindByID(txCtx, id)
		if err != nil {
			return wrapStoreErr(err, nil, "failed to load resident")
		}
		snapshot := current.Clone()

		updated.ID = snapshot.ID
		updated.CreatedAt = snapshot.CreatedAt
		updated.UpdatedAt = requestcontext.Now(txCtx)
		if err := s.residents.Update(txCtx, updated); err != nil {
			return wrapStoreErr(err, updated, "failed to update resident")
		}

		outcome = s.history.RecordUpdate(txCtx, snapshot, updated, actor)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome.Recorded() {
		s.history.Publish(ctx, outcome)
	}

	s.logger.InfoContext(ctx, "resident updated",
		"resident_id", updated.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

// Delete removes a resident after recording a deletion entry listing
// everything it held.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}

	actor := requestcontext.Actor(ctx)
	var outcome historyservice.Outcome
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.residents.FindByID(txCtx, id)
		if err != nil {
			return wrapStoreErr(err, nil, "failed to load resident")
		}

		outcome = s.history.RecordDelete(txCtx, current.Clone(), actor)

		if err := s.residents.Delete(txCtx, id); err != nil {
			return wrapStoreErr(err, nil, "failed to delete resident")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if outcome.Recorded() {
		s.history.Publish(ctx, outcome)
	}

	s.logger.InfoContext(ctx, "resident deleted",
		"resident_id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func ensureSlices(r *models.Resident) {
	if r.Occupants == nil {
		r.Occupants = []models.Occupant{}
	}
	if r.Accounts == nil {
		r.Accounts = []models.SecondaryAccount{}
	}
}

func wrapStoreErr(err error, r *models.Resident, msg string) error {
	switch {
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "resident not found")
	case errors.Is(err, sentinel.ErrConflict) && r != nil:
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(
			"a resident already occupies building %s, floor %s, door %s",
			r.Location.Building, r.Location.Floor, r.Location.Door))
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "resident conflict")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
