package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/institute-erp/institute/internal/auth"
	"github.com/institute-erp/institute/internal/platform/httpx"
	"github.com/institute-erp/institute/internal/shared"
)

// Handler exposes permission administration and /me over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    *Guard
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers routes. Callers mount it behind auth.Middleware.RequireUser.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)

	r.Route("/permissions", func(r chi.Router) {
		r.With(h.guard.Require(shared.OpGetAllPermissions)).Get("/", h.listPermissions)
		r.With(h.guard.Require(shared.OpGetPermissionByID)).Get("/{id}", h.getPermission)
		r.With(h.guard.Require(shared.OpCreatePermission)).Post("/", h.createPermission)
		r.With(h.guard.Require(shared.OpUpdatePermission)).Put("/{id}", h.updatePermission)
		r.With(h.guard.Require(shared.OpDeletePermission)).Delete("/{id}", h.deletePermission)
	})
	r.Route("/permission_groups", func(r chi.Router) {
		r.With(h.guard.Require(shared.OpGetAllPermissionGroups)).Get("/", h.listGroups)
		r.With(h.guard.Require(shared.OpGetPermissionGroupByID)).Get("/{id}", h.getGroup)
		r.With(h.guard.Require(shared.OpCreatePermissionGroup)).Post("/", h.createGroup)
		r.With(h.guard.Require(shared.OpUpdatePermissionGroup)).Put("/{id}", h.updateGroup)
		r.With(h.guard.Require(shared.OpDeletePermissionGroup)).Delete("/{id}", h.deleteGroup)
	})
	r.Route("/permission_group_defines", func(r chi.Router) {
		r.With(h.guard.Require(shared.OpGetAllPermissionGroupDefines)).Get("/", h.listDefines)
		r.With(h.guard.Require(shared.OpGetPermissionGroupDefineByID)).Get("/{id}", h.getDefine)
		r.With(h.guard.Require(shared.OpCreatePermissionGroupDefine)).Post("/", h.createDefine)
		r.With(h.guard.Require(shared.OpUpdatePermissionGroupDefine)).Put("/{id}", h.updateDefine)
		r.With(h.guard.Require(shared.OpDeletePermissionGroupDefine)).Delete("/{id}", h.deleteDefine)
	})
}

type meResponse struct {
	ID                int64    `json:"id"`
	PhoneNumber       string   `json:"phone_number"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	IsSuperAdmin      bool     `json:"is_super_admin"`
	PermissionGroupID *int64   `json:"permission_group_id"`
	Permissions       []string `json:"permissions"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidToken)
		return
	}
	set, err := h.guard.Permissions(r.Context(), user)
	if err != nil {
		h.fail(w, "resolve permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{
		ID:                user.ID,
		PhoneNumber:       user.LoginID,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		IsSuperAdmin:      user.IsSuperAdmin,
		PermissionGroupID: user.PermissionGroupID,
		Permissions:       set.Names(),
	})
}

type permissionCreateRequest struct {
	Name      string `json:"name" validate:"required,max=128"`
	ParentID  *int64 `json:"parent_id" validate:"omitempty,gte=0"`
	IsEnabled *bool  `json:"is_enabled"`
}

type permissionUpdateRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=128"`
	ParentID  *int64  `json:"parent_id" validate:"omitempty,gte=0"`
	IsEnabled *bool   `json:"is_enabled"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context(), shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, "list permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NonNil(perms))
}

func (h *Handler) getPermission(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	perm, err := h.service.GetPermission(r.Context(), id)
	if err != nil {
		h.fail(w, "get permission", err)
		return
	}
	httpx.JSON(w, http.StatusOK, perm)
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionCreateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), PermissionInput(req))
	if err != nil {
		h.fail(w, "create permission", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, perm)
}

func (h *Handler) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req permissionUpdateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	perm, err := h.service.UpdatePermission(r.Context(), id, PermissionPatch(req))
	if err != nil {
		h.fail(w, "update permission", err)
		return
	}
	httpx.JSON(w, http.StatusOK, perm)
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "delete permission", h.service.DeletePermission)
}

type groupCreateRequest struct {
	Name      string `json:"name" validate:"required,max=128"`
	IsEnabled *bool  `json:"is_enabled"`
}

type groupUpdateRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=128"`
	IsEnabled *bool   `json:"is_enabled"`
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroups(r.Context(), shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, "list permission groups", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NonNil(groups))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	group, err := h.service.GetGroup(r.Context(), id)
	if err != nil {
		h.fail(w, "get permission group", err)
		return
	}
	httpx.JSON(w, http.StatusOK, group)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupCreateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	group, err := h.service.CreateGroup(r.Context(), GroupInput(req))
	if err != nil {
		h.fail(w, "create permission group", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, group)
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req groupUpdateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	group, err := h.service.UpdateGroup(r.Context(), id, GroupPatch(req))
	if err != nil {
		h.fail(w, "update permission group", err)
		return
	}
	httpx.JSON(w, http.StatusOK, group)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "delete permission group", h.service.DeleteGroup)
}

type defineCreateRequest struct {
	PermissionID      int64 `json:"permission_id" validate:"required,gt=0"`
	PermissionGroupID int64 `json:"permission_group_id" validate:"required,gt=0"`
}

type defineUpdateRequest struct {
	PermissionID      *int64 `json:"permission_id" validate:"omitempty,gt=0"`
	PermissionGroupID *int64 `json:"permission_group_id" validate:"omitempty,gt=0"`
}

func (h *Handler) listDefines(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.Int64Query(r, "permission_group_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defines, err := h.service.ListDefines(r.Context(), shared.PageFromRequest(r), groupID)
	if err != nil {
		h.fail(w, "list permission group defines", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NonNil(defines))
}

func (h *Handler) getDefine(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	define, err := h.service.GetDefine(r.Context(), id)
	if err != nil {
		h.fail(w, "get permission group define", err)
		return
	}
	httpx.JSON(w, http.StatusOK, define)
}

func (h *Handler) createDefine(w http.ResponseWriter, r *http.Request) {
	var req defineCreateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	define, err := h.service.CreateDefine(r.Context(), DefineInput(req))
	if err != nil {
		h.fail(w, "create permission group define", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, define)
}

func (h *Handler) updateDefine(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req defineUpdateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	define, err := h.service.UpdateDefine(r.Context(), id, DefinePatch(req))
	if err != nil {
		h.fail(w, "update permission group define", err)
		return
	}
	httpx.JSON(w, http.StatusOK, define)
}

func (h *Handler) deleteDefine(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "delete permission group define", h.service.DeleteDefine)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, id int64) error) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		h.fail(w, op, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
