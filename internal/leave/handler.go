package leave

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/leavedesk/leavedesk/internal/platform/httpx"
	"github.com/leavedesk/leavedesk/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler exposes the leave API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes attaches leave routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/requests", h.submit)
	r.Get("/history/{name}", h.history)
	r.Get("/summary/{name}", h.summary)
	r.Get("/balance/{name}", h.balance)
	r.Get("/calendar/{year}/{month}", h.calendar)

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAdmin)
		r.Get("/requests", h.list)
		r.Post("/requests/{id}/approve", h.approve)
		r.Post("/requests/{id}/reject", h.reject)
		r.Put("/balance/{name}/{year}/entitlement", h.setEntitlement)
		r.Put("/balance/{name}/{year}/remaining", h.setRemaining)
	})
}

type submitForm struct {
	Employee  string `json:"employee" validate:"required"`
	LeaveType string `json:"leave_type" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	HalfDay   bool   `json:"half_day"`
	Reason    string `json:"reason"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var form submitForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be JSON")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "employee, leave_type, start_date and end_date are required")
		return
	}
	start, err := time.Parse(dateLayout, form.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, form.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end_date must be YYYY-MM-DD")
		return
	}

	result, err := h.service.Submit(r.Context(), SubmitInput{
		EmployeeName: form.Employee,
		LeaveType:    form.LeaveType,
		StartDate:    start,
		EndDate:      end,
		HalfDay:      form.HalfDay,
		Reason:       form.Reason,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"request":     result.Request,
		"low_balance": result.LowBalance,
		"remaining":   result.Remaining,
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	requests, err := h.service.History(r.Context(), name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, requests)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	year, err := yearOrCurrent(r.URL.Query().Get("year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid year")
		return
	}

	var (
		bal      Balance
		requests []Request
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		bal, err = h.service.BalanceFor(ctx, name, year)
		return err
	})
	g.Go(func() error {
		var err error
		requests, err = h.service.History(ctx, name)
		return err
	})
	if err := g.Wait(); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"balance":  bal,
		"requests": requests,
	})
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	year, err := yearOrCurrent(r.URL.Query().Get("year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid year")
		return
	}

	bal, err := h.service.BalanceFor(r.Context(), name, year)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bal)
}

func (h *Handler) calendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid month")
		return
	}

	days, err := h.service.Calendar(r.Context(), year, time.Month(month))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, days)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := RequestFilter{Employee: r.URL.Query().Get("employee")}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid year")
			return
		}
		filter.Year = year
	}
	requests, err := h.service.ListRequests(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, requests)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve, "approved")
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject, "rejected")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor shared.Actor, id int64) error, verb string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}
	actor := shared.ActorFromSession(shared.SessionFromContext(r.Context()))
	if err := op(r.Context(), actor, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": verb})
}

type amountForm struct {
	Value float64 `json:"value"`
}

func (h *Handler) setEntitlement(w http.ResponseWriter, r *http.Request) {
	h.override(w, r, h.service.SetEntitlement)
}

func (h *Handler) setRemaining(w http.ResponseWriter, r *http.Request) {
	h.override(w, r, h.service.SetBalance)
}

func (h *Handler) override(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor shared.Actor, employee string, year int, value float64) error) {
	name := chi.URLParam(r, "name")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid year")
		return
	}
	var form amountForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be JSON")
		return
	}
	actor := shared.ActorFromSession(shared.SessionFromContext(r.Context()))
	if err := op(r.Context(), actor, name, year, form.Value); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownEmployee):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "employee not found")
	case errors.Is(err, ErrRequestNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "leave request not found")
	case errors.Is(err, ErrInvalidDateRange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start date must not be after end date")
	case errors.Is(err, ErrInvalidDuration):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "requested duration must be positive")
	case errors.Is(err, ErrInvalidAmount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount must not be negative")
	case errors.Is(err, ErrAlreadyProcessed):
		httpx.Problem(w, http.StatusConflict, "Conflict", "leave request was already processed")
	case errors.Is(err, ErrInsufficientBalance):
		httpx.Problem(w, http.StatusConflict, "Conflict", "insufficient leave balance")
	case errors.Is(err, ErrNotAuthorized):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin privileges required")
	default:
		h.logger.Error("leave operation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func yearOrCurrent(raw string) (int, error) {
	if raw == "" {
		return time.Now().UTC().Year(), nil
	}
	return strconv.Atoi(raw)
}
