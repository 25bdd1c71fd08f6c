package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/institute-erp/institute/internal/platform/httpx"
	"github.com/institute-erp/institute/internal/rbac"
	"github.com/institute-erp/institute/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    *rbac.Guard
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *rbac.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(shared.OpGetAllRoles)).Get("/", h.listRoles)
	r.With(h.guard.Require(shared.OpGetRoleByID)).Get("/{id}", h.getRole)
	r.With(h.guard.Require(shared.OpCreateRole)).Post("/", h.createRole)
	r.With(h.guard.Require(shared.OpUpdateRole)).Put("/{id}", h.updateRole)
	r.With(h.guard.Require(shared.OpDeleteRole)).Delete("/{id}", h.deleteRole)
}

type createRoleRequest struct {
	Name      *string `json:"name" validate:"required,min=1,max=128"`
	IsEnabled *bool   `json:"is_enabled"`
}

type updateRoleRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=128"`
	IsEnabled *bool   `json:"is_enabled"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context(), shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, "list roles failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NonNil(roles))
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.fail(w, "get role failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.CreateRole(r.Context(), RoleInput(req))
	if err != nil {
		h.fail(w, "create role failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, RoleInput(req))
	if err != nil {
		h.fail(w, "update role failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.fail(w, "delete role failed", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
