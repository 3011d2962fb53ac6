package export

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leavedesk/leavedesk/internal/leave"
	"github.com/leavedesk/leavedesk/internal/platform/httpx"
	"github.com/leavedesk/leavedesk/internal/shared"
)

// Source provides the data sets offered for download.
type Source interface {
	ListRequests(ctx context.Context, filter leave.RequestFilter) ([]leave.Request, error)
	ListBalances(ctx context.Context, year int) ([]leave.Balance, error)
}

// Handler serves CSV downloads of requests and ledger rows.
type Handler struct {
	logger *slog.Logger
	source Source
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, source Source) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, source: source}
}

// MountRoutes attaches export routes. All downloads are admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(shared.RequireAdmin)
	r.Get("/requests.csv", h.requests)
	r.Get("/balances.csv", h.balances)
}

func (h *Handler) requests(w http.ResponseWriter, r *http.Request) {
	filter := leave.RequestFilter{}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid year")
			return
		}
		filter.Year = year
	}
	requests, err := h.source.ListRequests(r.Context(), filter)
	if err != nil {
		h.logger.Error("export requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leave_requests.csv"`)
	if err := WriteRequestsCSV(w, requests); err != nil {
		h.logger.Error("write requests csv", slog.Any("error", err))
	}
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	year := time.Now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid year")
			return
		}
		year = parsed
	}
	balances, err := h.source.ListBalances(r.Context(), year)
	if err != nil {
		h.logger.Error("export balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leave_balances.csv"`)
	if err := WriteBalancesCSV(w, balances); err != nil {
		h.logger.Error("write balances csv", slog.Any("error", err))
	}
}
