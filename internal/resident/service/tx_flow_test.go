package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	historymodels "copro/internal/history/models"
	historyservice "copro/internal/history/service"
	historystore "copro/internal/history/store"
	"copro/internal/resident/models"
	"copro/internal/resident/service"
	residentstore "copro/internal/resident/store"
	txcontext "copro/pkg/platform/tx"
	"copro/pkg/requestcontext"
	"copro/pkg/testutil"
)

// stalledPublisher holds every publish until its context ends or hold
// elapses, then fails. It notes whether the transaction had committed.
type stalledPublisher struct {
	hold      time.Duration
	committed func() bool

	mu               sync.Mutex
	calls            int
	committedAtCalls []bool
}

func (p *stalledPublisher) Publish(ctx context.Context, _ historymodels.Record) error {
	p.mu.Lock()
	p.calls++
	p.committedAtCalls = append(p.committedAtCalls, p.committed())
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.hold):
		return errors.New("broker unreachable")
	}
}

func (p *stalledPublisher) snapshot() (int, []bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls, append([]bool(nil), p.committedAtCalls...)
}

// historyStub wraps the memory history store and overrides Save.
type historyStub struct {
	*historystore.InMemoryStore
	save func(ctx context.Context) error
}

func (h historyStub) Save(ctx context.Context, record historymodels.Record) error {
	if err := h.save(ctx); err != nil {
		return err
	}
	return h.InMemoryStore.Save(ctx, record)
}

type txFixture struct {
	mock      sqlmock.Sqlmock
	residents *residentstore.InMemoryStore
	publisher *stalledPublisher
	svc       *service.Service
	created   *models.Resident
}

func newTxFixture(t *testing.T, history historyservice.Store, txTimeout time.Duration, opts ...historyservice.Option) *txFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &txFixture{mock: mock, residents: residentstore.NewInMemoryStore()}
	f.publisher = &stalledPublisher{
		hold:      3 * txTimeout,
		committed: func() bool { return mock.ExpectationsWereMet() == nil },
	}

	opts = append([]historyservice.Option{
		historyservice.WithLogger(logger),
		historyservice.WithPublisher(f.publisher),
	}, opts...)
	recorder, err := historyservice.New(history, opts...)
	require.NoError(t, err)

	f.svc, err = service.New(f.residents, recorder,
		service.WithLogger(logger),
		service.WithStoreTx(txcontext.NewPostgresRunner(db, txcontext.WithTimeout(txTimeout))),
	)
	require.NoError(t, err)

	// Create does not open a transaction, so the mock sees only the update.
	f.created, err = f.svc.Create(syndicCtx(), &models.Resident{
		LotID:    "12",
		Location: models.Location{Building: "A", Floor: "3", Door: "B"},
		Owner:    models.Owner{Name: "Jean Dupont"},
	})
	require.NoError(t, err)
	return f
}

func syndicCtx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))
	return requestcontext.WithActor(ctx, "syndic@example.com")
}

func (f *txFixture) changePhone(t *testing.T) (*models.Resident, error) {
	t.Helper()
	next := f.created.Clone()
	next.Owner.Phone = "0600000000"
	return f.svc.Update(syndicCtx(), f.created.ID, next)
}

func TestUpdateThroughPostgresRunner(t *testing.T) {
	const txTimeout = 50 * time.Millisecond

	testutil.Given(t, "a publisher stalled longer than the transaction timeout", func(t *testing.T) {
		history := historystore.NewInMemoryStore()
		f := newTxFixture(t, history, txTimeout, historyservice.WithPublishTimeout(time.Second))
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		updated, err := f.changePhone(t)

		testutil.Then(t, "the update commits and is published afterwards", func(t *testing.T) {
			require.NoError(t, err)
			assert.Equal(t, "0600000000", updated.Owner.Phone)
			assert.NoError(t, f.mock.ExpectationsWereMet())

			calls, committed := f.publisher.snapshot()
			assert.Equal(t, 1, calls)
			assert.Equal(t, []bool{true}, committed)

			records, err := history.ListByResident(context.Background(), f.created.ID)
			require.NoError(t, err)
			assert.Len(t, records, 1)
		})
	})

	testutil.Given(t, "a failing history store", func(t *testing.T) {
		history := historyStub{
			InMemoryStore: historystore.NewInMemoryStore(),
			save:          func(context.Context) error { return errors.New("disk full") },
		}
		f := newTxFixture(t, history, txTimeout)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		_, err := f.changePhone(t)

		testutil.Then(t, "the update still commits and nothing is published", func(t *testing.T) {
			require.NoError(t, err)
			assert.NoError(t, f.mock.ExpectationsWereMet())
			calls, _ := f.publisher.snapshot()
			assert.Zero(t, calls)
		})
	})

	testutil.Given(t, "a history store that never answers", func(t *testing.T) {
		history := historyStub{
			InMemoryStore: historystore.NewInMemoryStore(),
			save: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}
		f := newTxFixture(t, history, 4*txTimeout, historyservice.WithSaveTimeout(txTimeout/2))
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		_, err := f.changePhone(t)

		testutil.Then(t, "the save is cut off before the transaction expires", func(t *testing.T) {
			require.NoError(t, err)
			assert.NoError(t, f.mock.ExpectationsWereMet())
			calls, _ := f.publisher.snapshot()
			assert.Zero(t, calls)
		})
	})

	testutil.Given(t, "a commit that fails", func(t *testing.T) {
		f := newTxFixture(t, historystore.NewInMemoryStore(), txTimeout)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		_, err := f.changePhone(t)

		testutil.Then(t, "the update fails and the record is never published", func(t *testing.T) {
			require.Error(t, err)
			calls, _ := f.publisher.snapshot()
			assert.Zero(t, calls)
		})
	})
}
