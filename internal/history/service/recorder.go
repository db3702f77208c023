package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"copro/internal/history/diff"
	historymetrics "copro/internal/history/metrics"
	"copro/internal/history/models"
	residentmodels "copro/internal/resident/models"
	"copro/pkg/requestcontext"
)

var tracer = otel.Tracer("copro/history")

const (
	// defaultSaveTimeout stays under the resident transaction timeout so a
	// stalled history store still leaves time to commit the mutation.
	defaultSaveTimeout    = 2 * time.Second
	defaultPublishTimeout = 2 * time.Second
)

// Recorder builds history records from resident snapshots and persists them.
//
// Recording is best-effort with respect to the resident mutation that
// triggered it: failures are logged and counted, reported in the returned
// Outcome, and never returned as errors. The Recorder holds no mutable
// state and is safe for concurrent use.
type Recorder struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *historymetrics.Metrics
	clock     func() time.Time
	newID     func() uuid.UUID

	saveTimeout    time.Duration
	publishTimeout time.Duration
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMetrics(m *historymetrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithClock overrides the time source for OccurredAt. Without it the
// request time from context is used.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// WithPublisher sets the stream that Publish forwards recorded outcomes to.
func WithPublisher(p Publisher) Option {
	return func(r *Recorder) {
		r.publisher = p
	}
}

// WithSaveTimeout bounds each history store write.
func WithSaveTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.saveTimeout = d
	}
}

// WithPublishTimeout bounds each Publish call.
func WithPublishTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.publishTimeout = d
	}
}

// New constructs a Recorder backed by store.
func New(store Store, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("history store is required")
	}
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		newID:  uuid.New,

		saveTimeout:    defaultSaveTimeout,
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RecordUpdate diffs old against new and persists an UPDATE record when
// something changed. The record is keyed on old's location so the trail
// stays attached to the unit the resident occupied before the update.
func (r *Recorder) RecordUpdate(ctx context.Context, oldRes, newRes *residentmodels.Resident, actor string) Outcome {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "history.RecordUpdate")
	defer span.End()

	if oldRes == nil || newRes == nil {
		return r.reject(ctx, span, ErrMissingSnapshot, "", "")
	}
	span.SetAttributes(attribute.String("resident_id", oldRes.ID))
	if oldRes.ID != newRes.ID {
		return r.reject(ctx, span, ErrResidentMismatch, oldRes.ID, newRes.ID)
	}

	changes := diff.Diff(oldRes, newRes)
	if len(changes) == 0 {
		r.logger.DebugContext(ctx, "no resident changes detected",
			"resident_id", oldRes.ID,
		)
		if r.metrics != nil {
			r.metrics.IncUpdatesSkipped()
		}
		span.SetAttributes(attribute.String("outcome", StatusSkipped.String()))
		return Outcome{Status: StatusSkipped}
	}

	record := models.Record{
		ID:           r.newID(),
		ResidentKey:  models.ResidentKey(oldRes),
		Lot:          models.LotOf(oldRes),
		Action:       models.ActionUpdate,
		Description:  diff.Describe(changes),
		Changes:      changes,
		OccurredAt:   r.now(ctx),
		Actor:        actor,
		ApartmentKey: models.ApartmentKeyOf(oldRes.Location),
	}
	return r.persist(ctx, span, record, start)
}

// RecordDelete persists a DELETE record listing every value the resident
// held. It always writes a record: the LOT entry is present even when the
// resident has no owner, occupants or accounts.
func (r *Recorder) RecordDelete(ctx context.Context, res *residentmodels.Resident, actor string) Outcome {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "history.RecordDelete")
	defer span.End()

	if res == nil {
		return r.reject(ctx, span, ErrMissingSnapshot, "", "")
	}
	span.SetAttributes(attribute.String("resident_id", res.ID))

	record := models.Record{
		ID:          r.newID(),
		ResidentKey: models.ResidentKey(res),
		Lot:         models.LotOf(res),
		Action:      models.ActionDelete,
		Description: fmt.Sprintf("deletion of lot %s (building %s, door %s)",
			res.LotID, res.Location.Building, res.Location.Door),
		Changes:      deletionChanges(res),
		OccurredAt:   r.now(ctx),
		Actor:        actor,
		ApartmentKey: models.ApartmentKeyOf(res.Location),
	}
	return r.persist(ctx, span, record, start)
}

func deletionChanges(res *residentmodels.Resident) []models.Change {
	changes := make([]models.Change, 0, 2+len(res.Occupants)+len(res.Accounts))
	changes = append(changes, models.Removed(models.CategoryLot, "lot "+res.LotID,
		fmt.Sprintf("building %s, floor %s, door %s", res.Location.Building, res.Location.Floor, res.Location.Door)))
	if owner := strings.TrimSpace(res.Owner.Name); owner != "" {
		changes = append(changes, models.Removed(models.CategoryOwner, "owner", owner))
	}
	for _, o := range res.Occupants {
		changes = append(changes, removedMember(models.CategoryOccupant, "occupant", o.Name))
	}
	for _, a := range res.Accounts {
		changes = append(changes, removedMember(models.CategoryAccount, "account", a.Name))
	}
	return changes
}

// removedMember keeps nameless members in the trail with a null old value.
func removedMember(cat models.Category, label, name string) models.Change {
	c := models.Removed(cat, label, strings.TrimSpace(name))
	if *c.OldValue == "" {
		c.OldValue = nil
	}
	return c
}

func (r *Recorder) persist(ctx context.Context, span trace.Span, record models.Record, start time.Time) Outcome {
	action := string(record.Action)
	span.SetAttributes(
		attribute.String("action", action),
		attribute.String("apartment_key", record.ApartmentKey),
		attribute.Int("change_count", len(record.Changes)),
	)
	if r.metrics != nil {
		defer r.metrics.ObserveRecord(start)
	}

	saveCtx, cancel := context.WithTimeout(ctx, r.saveTimeout)
	err := r.store.Save(saveCtx, record)
	cancel()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to persist resident history",
			"resident_id", record.ResidentKey,
			"apartment_key", record.ApartmentKey,
			"action", action,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.IncPersistFailures(action)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist history record")
		return Outcome{Status: StatusFailed, Record: &record, Err: fmt.Errorf("%w: %w", ErrPersistenceFailed, err)}
	}

	if r.metrics != nil {
		r.metrics.IncPersisted(action)
	}
	r.logger.InfoContext(ctx, "resident history recorded",
		"resident_id", record.ResidentKey,
		"apartment_key", record.ApartmentKey,
		"action", action,
		"description", record.Description,
		"request_id", requestcontext.RequestID(ctx),
	)
	span.SetAttributes(attribute.String("outcome", StatusRecorded.String()))
	return Outcome{Status: StatusRecorded, Record: &record}
}

// Publish forwards a recorded outcome to the configured publisher. Call it
// after the transaction that persisted the record has committed. Failures
// are logged and counted, never returned.
func (r *Recorder) Publish(ctx context.Context, out Outcome) {
	if r.publisher == nil || !out.Recorded() || out.Record == nil {
		return
	}
	record := *out.Record
	pubCtx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, record); err != nil {
		r.logger.WarnContext(ctx, "failed to publish resident history",
			"record_id", record.ID,
			"apartment_key", record.ApartmentKey,
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.IncPublishFailures()
		}
	}
}

func (r *Recorder) reject(ctx context.Context, span trace.Span, err error, oldID, newID string) Outcome {
	r.logger.ErrorContext(ctx, "rejected resident history request",
		"old_resident_id", oldID,
		"new_resident_id", newID,
		"error", err,
	)
	if r.metrics != nil {
		r.metrics.IncRejected()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Outcome{Status: StatusRejected, Err: err}
}

// now is truncated to the microsecond precision every store keeps, so a
// record reads back exactly as it was built.
func (r *Recorder) now(ctx context.Context) time.Time {
	var t time.Time
	if r.clock != nil {
		t = r.clock()
	} else {
		t = requestcontext.Now(ctx)
	}
	return t.Truncate(time.Microsecond)
}
