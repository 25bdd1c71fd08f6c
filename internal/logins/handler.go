package logins

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/institute-erp/institute/internal/platform/httpx"
	"github.com/institute-erp/institute/internal/rbac"
	"github.com/institute-erp/institute/internal/shared"
)

// Handler exposes the login log.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   *rbac.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *rbac.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers login log routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(shared.OpGetLogins)).Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.List(r.Context(), filter, shared.PageFromRequest(r))
	if err != nil {
		if httpx.IsServerError(err) {
			h.logger.Error("list logins failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NonNil(entries))
}

func parseFilter(r *http.Request) (Filter, error) {
	var f Filter
	var err error
	q := r.URL.Query()
	if f.From, err = parseDate(q.Get("from_date")); err != nil {
		return Filter{}, err
	}
	if f.To, err = parseDate(q.Get("to_date")); err != nil {
		return Filter{}, err
	}
	if f.UserID, err = httpx.Int64Query(r, "user_id"); err != nil {
		return Filter{}, err
	}
	return f, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", shared.ErrValidation, raw)
}
