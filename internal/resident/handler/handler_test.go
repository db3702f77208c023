package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"copro/internal/resident/handler/mocks"
	"copro/internal/resident/models"
	dErrors "copro/pkg/domain-errors"
	"copro/pkg/requestcontext"
	"copro/pkg/testutil"
)

type ResidentHandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	router      chi.Router
}

func TestResidentHandlerSuite(t *testing.T) {
	suite.Run(t, new(ResidentHandlerSuite))
}

func (s *ResidentHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	s.router = testutil.Router(New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *ResidentHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ResidentHandlerSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	return testutil.Serve(s.router, req)
}

func resident() *models.Resident {
	return &models.Resident{
		ID:        "res-1",
		LotID:     "12",
		Location:  models.Location{Building: "A", Floor: "3", Door: "B"},
		Owner:     models.Owner{Name: "Jean Dupont"},
		Occupants: []models.Occupant{},
		Accounts:  []models.SecondaryAccount{},
	}
}

func (s *ResidentHandlerSuite) TestCreate() {
	s.Run("returns 201 with the created resident", func() {
		s.mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, input *models.Resident) (*models.Resident, error) {
				s.Equal("12", input.LotID)
				return resident(), nil
			})

		rr := s.serve(testutil.SendJSON(s.T(), http.MethodPost, "/api/residents", resident()))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		s.Equal("res-1", testutil.DecodeJSON[models.Resident](s.T(), rr).ID)
	})

	s.Run("malformed body is a bad request", func() {
		rr := s.serve(testutil.SendRaw(s.T(), http.MethodPost, "/api/residents", `{"lot_id":`))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown fields are rejected", func() {
		rr := s.serve(testutil.SendRaw(s.T(), http.MethodPost, "/api/residents", `{"lot":"12"}`))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("validation errors are surfaced", func() {
		s.mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "owner name is required"))

		rr := s.serve(testutil.SendJSON(s.T(), http.MethodPost, "/api/residents", resident()))

		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *ResidentHandlerSuite) TestGet() {
	s.Run("get returns the resident", func() {
		s.mockService.EXPECT().Get(gomock.Any(), "res-1").Return(resident(), nil)
		rr := s.serve(testutil.Get(s.T(), "/api/residents/res-1"))
		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.DecodeJSON[models.Resident](s.T(), rr)
		s.Equal("A", got.Location.Building)
	})

	s.Run("get unknown is 404", func() {
		s.mockService.EXPECT().Get(gomock.Any(), "ghost").Return(nil, dErrors.New(dErrors.CodeNotFound, "resident not found"))
		rr := s.serve(testutil.Get(s.T(), "/api/residents/ghost"))
		testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *ResidentHandlerSuite) TestSearch() {
	s.Run("passes paging, filters and sort to the service", func() {
		want := models.Query{Page: 2, Size: 5, Search: "dupont", Building: "A", Status: "landlord", Sort: models.SortOwnerName, Desc: true}
		s.mockService.EXPECT().Search(gomock.Any(), want).
			Return(models.NewPage([]*models.Resident{resident()}, want, 11), nil)

		rr := s.serve(testutil.Get(s.T(),
			"/api/residents?page=2&size=5&search=dupont&building=A&status=landlord&sort=owner_name,desc"))

		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.DecodeJSON[models.Page](s.T(), rr)
		s.Len(got.Residents, 1)
		s.Equal(2, got.CurrentPage)
		s.Equal(3, got.TotalPages)
		s.Equal(int64(11), got.TotalElements)
	})

	s.Run("no parameters asks for the first page", func() {
		s.mockService.EXPECT().Search(gomock.Any(), models.Query{}).Return(models.NewPage(nil, models.Query{Size: 10}, 0), nil)
		rr := s.serve(testutil.Get(s.T(), "/api/residents"))
		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.DecodeJSON[models.Page](s.T(), rr)
		s.NotNil(got.Residents)
	})

	s.Run("non numeric page is 400", func() {
		rr := s.serve(testutil.Get(s.T(), "/api/residents?page=two"))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown sort field is 400", func() {
		rr := s.serve(testutil.Get(s.T(), "/api/residents?sort=password"))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *ResidentHandlerSuite) TestStatistics() {
	s.Run("statistics is not taken for a resident id", func() {
		s.mockService.EXPECT().Statistics(gomock.Any()).
			Return(models.Statistics{TotalLots: 4, ByStatus: map[string]int64{"landlord": 4}}, nil)
		rr := s.serve(testutil.Get(s.T(), "/api/residents/statistics"))
		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.DecodeJSON[models.Statistics](s.T(), rr)
		s.Equal(int64(4), got.TotalLots)
		s.Equal(int64(4), got.ByStatus["landlord"])
	})

	s.Run("service failure is 500", func() {
		s.mockService.EXPECT().Statistics(gomock.Any()).
			Return(models.Statistics{}, dErrors.New(dErrors.CodeInternal, "failed to compute statistics"))
		rr := s.serve(testutil.Get(s.T(), "/api/residents/statistics"))
		testutil.AssertInternalErrorHidden(s.T(), rr)
	})
}

func (s *ResidentHandlerSuite) TestUpdate() {
	s.Run("passes the path id and the caller's actor", func() {
		s.mockService.EXPECT().Update(gomock.Any(), "res-1", gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ string, _ *models.Resident) (*models.Resident, error) {
				s.Equal("gardien", requestcontext.Actor(ctx))
				return resident(), nil
			})
		req := testutil.WithActor(testutil.SendJSON(s.T(), http.MethodPut, "/api/residents/res-1", resident()), "gardien")
		rr := s.serve(req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("conflict maps to 409", func() {
		s.mockService.EXPECT().Update(gomock.Any(), "res-1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "a resident already occupies building A, floor 3, door B"))
		rr := s.serve(testutil.SendJSON(s.T(), http.MethodPut, "/api/residents/res-1", resident()))
		testutil.AssertError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *ResidentHandlerSuite) TestDelete() {
	s.mockService.EXPECT().Delete(gomock.Any(), "res-1").Return(nil)
	rr := s.serve(testutil.Delete(s.T(), "/api/residents/res-1"))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
}
