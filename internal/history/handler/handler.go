package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"copro/internal/history/models"
	dErrors "copro/pkg/domain-errors"
	"copro/pkg/platform/httputil"
	"copro/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service

// Service is the read side of resident history.
type Service interface {
	ApartmentHistory(ctx context.Context, building, floor, door string) ([]models.Record, error)
	ResidentHistory(ctx context.Context, residentID string) ([]models.Record, error)
}

// Handler serves resident history queries.
type Handler struct {
	history Service
	logger  *slog.Logger
}

func New(history Service, logger *slog.Logger) *Handler {
	return &Handler{history: history, logger: logger}
}

// Register registers the history routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/residents/history/apartment", h.handleApartmentHistory)
	r.Get("/api/residents/history/resident/{residentID}", h.handleResidentHistory)
}

func (h *Handler) handleApartmentHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	records, err := h.history.ApartmentHistory(ctx, q.Get("building"), q.Get("floor"), q.Get("door"))
	if err != nil {
		h.writeError(w, r, "failed to load apartment history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleResidentHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.history.ResidentHistory(ctx, chi.URLParam(r, "residentID"))
	if err != nil {
		h.writeError(w, r, "failed to load resident history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
