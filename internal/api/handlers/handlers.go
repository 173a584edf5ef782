package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmolina/cash-closure/internal/api/middleware"
	"github.com/dmolina/cash-closure/internal/archive"
	"github.com/dmolina/cash-closure/internal/closure"
	"github.com/dmolina/cash-closure/internal/domain"
	"github.com/dmolina/cash-closure/internal/period"
)

// CashService is the slice of the closure manager the HTTP layer needs.
type CashService interface {
	Current(ctx context.Context) (*domain.CashClosure, error)
	Close(ctx context.Context, closedBy string) (*domain.CashClosure, error)
	History(ctx context.Context, filter closure.Filter) ([]*domain.CashClosure, int, error)
}

// ClosuresHandler handles cash-closure endpoints.
type ClosuresHandler struct {
	service  CashService
	archiver *archive.Archiver
	log      zerolog.Logger
}

// NewClosuresHandler creates a new closures handler. archiver may be nil when
// snapshot archiving is not configured.
func NewClosuresHandler(service CashService, archiver *archive.Archiver, log zerolog.Logger) *ClosuresHandler {
	return &ClosuresHandler{
		service:  service,
		archiver: archiver,
		log:      log,
	}
}

// GetCurrent handles GET /api/cash-closures/current
func (h *ClosuresHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	current, err := h.service.Current(ctx)
	if err != nil {
		h.writeDomainError(w, err, "Failed to compute current closure")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, current)
}

// CloseCurrent handles POST /api/cash-closures/close
func (h *ClosuresHandler) CloseCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ClosedBy string `json:"closed_by"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ClosedBy == "" {
		middleware.WriteError(w, http.StatusBadRequest, "closed_by is required")
		return
	}

	closed, err := h.service.Close(ctx, req.ClosedBy)
	if err != nil {
		h.writeDomainError(w, err, "Failed to close period")
		return
	}

	// The closure is already durable; archiving is best effort.
	if h.archiver != nil {
		if uri, err := h.archiver.ArchiveClosure(ctx, closed); err != nil {
			h.log.Warn().
				Err(err).
				Str("closure_id", closed.ID).
				Msg("Failed to archive closure snapshot")
		} else {
			h.log.Info().
				Str("closure_id", closed.ID).
				Str("archive_uri", uri).
				Msg("Closure snapshot archived")
		}
	}

	middleware.WriteJSON(w, http.StatusCreated, closed)
}

// ListClosures handles GET /api/cash-closures
func (h *ClosuresHandler) ListClosures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	closures, total, err := h.service.History(ctx, filter)
	if err != nil {
		h.writeDomainError(w, err, "Failed to list closures")
		return
	}

	if closures == nil {
		closures = []*domain.CashClosure{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"closures":  closures,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

// parseFilter reads pagination and date-range query parameters. It writes the
// error response itself and returns ok=false when a parameter is malformed.
func (h *ClosuresHandler) parseFilter(w http.ResponseWriter, r *http.Request) (closure.Filter, bool) {
	query := r.URL.Query()

	filter := closure.Filter{
		Page:     1,
		PageSize: closure.DefaultPageSize,
	}

	if s := query.Get("start_date"); s != "" {
		start, err := time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return closure.Filter{}, false
		}
		filter.Start = &start
	}

	if s := query.Get("end_date"); s != "" {
		end, err := time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return closure.Filter{}, false
		}
		// Make the bound inclusive of the named day.
		end = end.AddDate(0, 0, 1)
		filter.End = &end
	}

	if s := query.Get("status"); s != "" {
		filter.Status = domain.ClosureStatus(s)
	}

	if s := query.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid page")
			return closure.Filter{}, false
		}
		filter.Page = page
	}

	if s := query.Get("page_size"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil || size < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid page_size")
			return closure.Filter{}, false
		}
		filter.PageSize = size
	}

	return filter, true
}

// writeDomainError maps domain errors to HTTP status codes.
func (h *ClosuresHandler) writeDomainError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, closure.ErrAlreadyClosed):
		middleware.WriteError(w, http.StatusConflict, "Period already closed by a concurrent request")
	case errors.Is(err, period.ErrPeriodInversion):
		h.log.Error().Err(err).Msg(logMsg)
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Clock is behind the last closure watermark")
	case errors.Is(err, closure.ErrFeedUnavailable):
		h.log.Error().Err(err).Msg(logMsg)
		middleware.WriteError(w, http.StatusServiceUnavailable, "Transaction feed unavailable")
	case errors.Is(err, closure.ErrStoreUnavailable):
		h.log.Error().Err(err).Msg(logMsg)
		middleware.WriteError(w, http.StatusServiceUnavailable, "Closure store unavailable")
	default:
		h.log.Error().Err(err).Msg(logMsg)
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// HealthHandler handles GET /health
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
