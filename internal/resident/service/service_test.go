package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	historyservice "copro/internal/history/service"
	"copro/internal/resident/models"
	"copro/internal/resident/service/mocks"
	dErrors "copro/pkg/domain-errors"
	"copro/pkg/platform/sentinel"
	"copro/pkg/requestcontext"
)

// =============================================================================
// Resident Service Test Suite
// =============================================================================
// Store and recorder are mocked to pin down when history is recorded, with
// which snapshots, and that recorder outcomes never change the result.

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockStore    *mocks.MockStore
	mockRecorder *mocks.MockHistoryRecorder
	service      *Service
	ctx          context.Context
	now          time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockRecorder = mocks.NewMockHistoryRecorder(s.ctrl)

	var err error
	s.service, err = New(s.mockStore, s.mockRecorder,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.service.newID = func() string { return "res-new" }

	s.now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithActor(requestcontext.WithTime(context.Background(), s.now), "syndic@example.com")
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func stored() *models.Resident {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.Resident{
		ID:        "res-1",
		LotID:     "12",
		Location:  models.Location{Building: "A", Floor: "3", Door: "B"},
		Owner:     models.Owner{Name: "Jean Dupont", Phone: "0600000000"},
		Occupants: []models.Occupant{{Name: "Marie"}},
		Accounts:  []models.SecondaryAccount{},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.mockRecorder)
		s.Require().Error(err)
		s.Contains(err.Error(), "resident store is required")
	})

	s.Run("nil recorder returns error", func() {
		_, err := New(s.mockStore, nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "history recorder is required")
	})
}

func (s *ServiceSuite) TestCreate() {
	s.Run("normalizes and stamps the resident", func() {
		input := &models.Resident{
			LotID:    " 12 ",
			Location: models.Location{Building: "A ", Floor: "3", Door: " B"},
			Owner:    models.Owner{Name: " Jean ", Email: " Jean@Example.COM "},
		}
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		got, err := s.service.Create(s.ctx, input)

		s.Require().NoError(err)
		s.Equal("res-new", got.ID)
		s.Equal("12", got.LotID)
		s.Equal("A", got.Location.Building)
		s.Equal("jean@example.com", got.Owner.Email)
		s.Equal(s.now, got.CreatedAt)
		s.NotNil(got.Occupants)
		s.Equal(" 12 ", input.LotID, "input must not be mutated")
	})

	s.Run("invalid resident is a validation error", func() {
		_, err := s.service.Create(s.ctx, &models.Resident{LotID: "1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("occupied unit is a conflict", func() {
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)
		_, err := s.service.Create(s.ctx, stored())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "building A, floor 3, door B")
	})
}

func (s *ServiceSuite) TestGet() {
	s.Run("missing resident is not found", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), "nope").Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Get(s.ctx, "nope")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestSearch() {
	s.Run("normalizes the query and wraps the page", func() {
		s.mockStore.EXPECT().Search(gomock.Any(), models.Query{Page: 1, Size: models.DefaultPageSize, Search: "dupont"}).
			Return([]*models.Resident{stored()}, int64(11), nil)

		page, err := s.service.Search(s.ctx, models.Query{Page: 1, Search: " dupont ", Building: "all"})
		s.Require().NoError(err)
		s.Len(page.Residents, 1)
		s.Equal(1, page.CurrentPage)
		s.Equal(2, page.TotalPages)
		s.Equal(int64(11), page.TotalElements)
	})

	s.Run("oversized page is a bad request", func() {
		_, err := s.service.Search(s.ctx, models.Query{Size: models.MaxPageSize + 1})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("store failure is internal", func() {
		s.mockStore.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, int64(0), errors.New("connection reset"))
		_, err := s.service.Search(s.ctx, models.Query{})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestStatistics() {
	s.Run("aggregates every resident", func() {
		other := stored()
		other.ID, other.Location.Building, other.Occupants = "res-2", "B", nil
		s.mockStore.EXPECT().List(gomock.Any()).Return([]*models.Resident{stored(), other}, nil)

		st, err := s.service.Statistics(s.ctx)
		s.Require().NoError(err)
		s.Equal(int64(2), st.TotalLots)
		s.Equal(int64(2), st.TotalBuildings)
		s.Equal(int64(1), st.LotsWithOccupants)
		s.Equal(0.5, st.AverageOccupants)
	})

	s.Run("store failure is internal", func() {
		s.mockStore.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection reset"))
		_, err := s.service.Statistics(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestUpdate() {
	s.Run("records history with the pre-update snapshot", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), "res-1").Return(stored(), nil)
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.mockRecorder.EXPECT().RecordUpdate(gomock.Any(), gomock.Any(), gomock.Any(), "syndic@example.com").
			DoAndReturn(func(_ context.Context, oldRes, newRes *models.Resident, _ string) historyservice.Outcome {
				s.Equal("0600000000", oldRes.Owner.Phone)
				s.Equal("0699999999", newRes.Owner.Phone)
				return historyservice.Outcome{Status: historyservice.StatusRecorded}
			})
		s.mockRecorder.EXPECT().Publish(gomock.Any(), historyservice.Outcome{Status: historyservice.StatusRecorded})

		input := stored()
		input.ID = ""
		input.Owner.Phone = "0699999999"
		got, err := s.service.Update(s.ctx, "res-1", input)

		s.Require().NoError(err)
		s.Equal("res-1", got.ID)
		s.Equal(stored().CreatedAt, got.CreatedAt)
		s.Equal(s.now, got.UpdatedAt)
	})

	s.Run("publishes only after the transaction commits", func() {
		mockTx := mocks.NewMockStoreTx(s.ctrl)
		svc, err := New(s.mockStore, s.mockRecorder, WithStoreTx(mockTx))
		s.Require().NoError(err)

		committed := false
		mockTx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
				if err := fn(ctx); err != nil {
					return err
				}
				committed = true
				return nil
			})
		s.mockStore.EXPECT().FindByID(gomock.Any(), "res-1").Return(stored(), nil)
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.mockRecorder.EXPECT().RecordUpdate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(historyservice.Outcome{Status: historyservice.StatusRecorded})
		s.mockRecorder.EXPECT().Publish(gomock.Any(), gomock.Any()).
			Do(func(context.Context, historyservice.Outcome) {
				s.True(committed, "published before commit")
			})

		_, err = svc.Update(s.ctx, "res-1", stored())
		s.NoError(err)
	})

	s.Run("rolled back update is not published", func() {
		mockTx := mocks.NewMockStoreTx(s.ctrl)
		svc, err := New(s.mockStore, s.mockRecorder, WithStoreTx(mockTx))
		s.Require().NoError(err)

		mockTx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
				if err := fn(ctx); err != nil {
					return err
				}
				return errors.New("commit: connection reset")
			})
		s.mockStore.EXPECT().FindByID(gomock.Any(), "res-1").Return(stored(), nil)
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.mockRecorder.EXPECT().RecordUpdate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(historyservice.Outcome{Status: historyservice.StatusRecorded})

		_, err = svc.Update(s.ctx, "res-1", stored())
		s.Error(err)
	})

	s.Run("failed history does not fail the update", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), "res-1").Return(stored(), nil)
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.mockRecorder.EXPECT().RecordUpdate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(historyservice.Outcome{Status: historyservice.StatusFailed, Err: historyservice.ErrPersistenceFailed})

		input := stored()
		input.Status = models.StatusLandlord
		_, err := s.service.Update(s.ctx, "res-1", input)
		s.NoError(err)
	})

	s.Run("store failure skips history", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), "res-1").Return(stored(), nil)
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := s.service.Update(s.ctx, "res-1", stored())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("unknown resident is not found", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), "ghost").Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Update(s.ctx, "ghost", stored())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDelete() {
	s.Run("records deletion before removing", func() {
		gomock.InOrder(
			s.mockStore.EXPECT().FindByID(gomock.Any(), "res-1").Return(stored(), nil),
			s.mockRecorder.EXPECT().RecordDelete(gomock.Any(), gomock.Any(), "syndic@example.com").
				Return(historyservice.Outcome{Status: historyservice.StatusRecorded}),
			s.mockStore.EXPECT().Delete(gomock.Any(), "res-1").Return(nil),
			s.mockRecorder.EXPECT().Publish(gomock.Any(), gomock.Any()),
		)
		s.NoError(s.service.Delete(s.ctx, "res-1"))
	})

	s.Run("failed history does not block deletion", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), "res-1").Return(stored(), nil)
		s.mockRecorder.EXPECT().RecordDelete(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(historyservice.Outcome{Status: historyservice.StatusFailed})
		s.mockStore.EXPECT().Delete(gomock.Any(), "res-1").Return(nil)
		s.NoError(s.service.Delete(s.ctx, "res-1"))
	})

	s.Run("blank id is a bad request", func() {
		err := s.service.Delete(s.ctx, " ")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestRunsInsideStoreTx() {
	mockTx := mocks.NewMockStoreTx(s.ctrl)
	svc, err := New(s.mockStore, s.mockRecorder, WithStoreTx(mockTx))
	s.Require().NoError(err)

	mockTx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(sentinel.ErrUnavailable)

	err = svc.Delete(s.ctx, "res-1")
	s.ErrorIs(err, sentinel.ErrUnavailable)
}
