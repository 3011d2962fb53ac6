package directory

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/leavedesk/leavedesk/internal/leave"
	"github.com/leavedesk/leavedesk/internal/platform/httpx"
	"github.com/leavedesk/leavedesk/internal/shared"
)

// Handler exposes the employee directory API.
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

// MountRoutes attaches directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{name}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAdmin)
		r.Post("/", h.create)
		r.Post("/{name}/rename", h.rename)
		r.Delete("/{name}", h.remove)
	})
}

type createForm struct {
	Name        string   `json:"name" validate:"required"`
	Role        string   `json:"role"`
	JoinDate    string   `json:"join_date"`
	Entitlement *float64 `json:"entitlement"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form createForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be JSON")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name is required")
		return
	}
	input := CreateInput{Name: form.Name, Role: form.Role, Entitlement: form.Entitlement}
	if form.JoinDate != "" {
		joined, err := time.Parse("2006-01-02", form.JoinDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "join_date must be YYYY-MM-DD")
			return
		}
		input.JoinDate = joined
	}

	actor := shared.ActorFromSession(shared.SessionFromContext(r.Context()))
	emp, err := h.service.Create(r.Context(), actor, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, emp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, employees)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	emp, err := h.service.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, emp)
}

type renameForm struct {
	NewName string `json:"new_name" validate:"required"`
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	var form renameForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be JSON")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "new_name is required")
		return
	}
	actor := shared.ActorFromSession(shared.SessionFromContext(r.Context()))
	if err := h.service.Rename(r.Context(), actor, chi.URLParam(r, "name"), form.NewName); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromSession(shared.SessionFromContext(r.Context()))
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "name")); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmployeeNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "employee not found")
	case errors.Is(err, ErrDuplicateEmployee):
		httpx.Problem(w, http.StatusConflict, "Conflict", "an employee with that name already exists")
	case errors.Is(err, ErrRenameConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", "the new name is already taken")
	case errors.Is(err, ErrInvalidName):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name must not be empty")
	case errors.Is(err, ErrInvalidEntitlement):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entitlement must not be negative")
	case errors.Is(err, leave.ErrNotAuthorized):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin privileges required")
	default:
		h.logger.Error("directory operation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
