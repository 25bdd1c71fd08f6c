package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/institute-erp/institute/internal/platform/httpx"
	"github.com/institute-erp/institute/internal/rbac"
	"github.com/institute-erp/institute/internal/shared"
)

// Handler manages user management endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(shared.OpGetUsers)).Get("/", h.listUsers)
	r.With(h.guard.Require(shared.OpGetUserByID)).Get("/{id}", h.getUser)
	r.With(h.guard.Require(shared.OpCreateUser)).Post("/", h.createUser)
	r.With(h.guard.Require(shared.OpUpdateUser)).Put("/{phone_number}", h.updateUser)
	r.With(h.guard.Require(shared.OpDeleteUser)).Delete("/{id}", h.deleteUser)
}

type createRequest struct {
	PhoneNumber       string `json:"phone_number" validate:"required,max=64"`
	Password          string `json:"password" validate:"required,max=72"`
	FirstName         string `json:"first_name" validate:"max=128"`
	LastName          string `json:"last_name" validate:"max=128"`
	RoleID            *int64 `json:"role_id" validate:"omitempty,gte=0"`
	PermissionGroupID *int64 `json:"permission_group_id" validate:"omitempty,gte=0"`
	IsPanelUser       bool   `json:"is_panel_user"`
}

type updateRequest struct {
	PhoneNumber       *string `json:"phone_number" validate:"omitempty,min=1,max=64"`
	Password          *string `json:"password" validate:"omitempty,min=1,max=72"`
	FirstName         *string `json:"first_name" validate:"omitempty,max=128"`
	LastName          *string `json:"last_name" validate:"omitempty,max=128"`
	RoleID            *int64  `json:"role_id" validate:"omitempty,gte=0"`
	PermissionGroupID *int64  `json:"permission_group_id" validate:"omitempty,gte=0"`
	IsPanelUser       *bool   `json:"is_panel_user"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, "list users failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NonNil(users))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get user failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Create(r.Context(), CreateInput(req))
	if err != nil {
		h.fail(w, "create user failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Update(r.Context(), chi.URLParam(r, "phone_number"), Patch(req))
	if err != nil {
		h.fail(w, "update user failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete user failed", err)
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
