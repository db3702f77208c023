package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"copro/internal/resident/models"
	dErrors "copro/pkg/domain-errors"
	"copro/pkg/platform/httputil"
	"copro/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service

const maxBodyBytes = 1 << 20

// Service defines the resident operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, input *models.Resident) (*models.Resident, error)
	Get(ctx context.Context, id string) (*models.Resident, error)
	Search(ctx context.Context, q models.Query) (models.Page, error)
	Statistics(ctx context.Context) (models.Statistics, error)
	Update(ctx context.Context, id string, input *models.Resident) (*models.Resident, error)
	Delete(ctx context.Context, id string) error
}

// Handler handles resident CRUD endpoints.
type Handler struct {
	residents Service
	logger    *slog.Logger
}

func New(residents Service, logger *slog.Logger) *Handler {
	return &Handler{residents: residents, logger: logger}
}

// Register registers the resident routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/residents", h.handleSearch)
	r.Post("/api/residents", h.handleCreate)
	r.Get("/api/residents/statistics", h.handleStatistics)
	r.Get("/api/residents/{id}", h.handleGet)
	r.Put("/api/residents/{id}", h.handleUpdate)
	r.Delete("/api/residents/{id}", h.handleDelete)
}

// handleSearch serves one page of residents. Query parameters: page
// (zero-based), size, search, building, status and sort=field[,asc|desc].
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.residents.Search(r.Context(), q)
	if err != nil {
		h.fail(w, r, "failed to search residents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.residents.Statistics(r.Context())
	if err != nil {
		h.fail(w, r, "failed to compute statistics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func parseQuery(values url.Values) (models.Query, error) {
	q := models.Query{
		Search:   values.Get("search"),
		Building: values.Get("building"),
		Status:   values.Get("status"),
	}
	var err error
	if q.Page, err = intParam(values, "page"); err != nil {
		return q, err
	}
	if q.Size, err = intParam(values, "size"); err != nil {
		return q, err
	}
	q.Sort, q.Desc, err = models.ParseSort(values.Get("sort"))
	return q, err
}

func intParam(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be an integer")
	}
	return n, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.residents.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, "failed to create resident", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	resident, err := h.residents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "failed to load resident", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resident)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	updated, err := h.residents.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.fail(w, r, "failed to update resident", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.residents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "failed to delete resident", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*models.Resident, bool) {
	var input models.Resident
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		h.logger.WarnContext(r.Context(), "invalid resident request",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return &input, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
