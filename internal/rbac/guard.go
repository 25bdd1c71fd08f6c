package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/institute-erp/institute/internal/auth"
	"github.com/institute-erp/institute/internal/platform/httpx"
	"github.com/institute-erp/institute/internal/shared"
)

// DecisionObserver receives every authorization decision.
type DecisionObserver interface {
	ObserveDecision(operation string, allowed bool)
}

// Guard is the single enforcement point for protected operations.
type Guard struct {
	resolver *Resolver
	observer DecisionObserver
	logger   *slog.Logger
}

// NewGuard constructs a Guard. observer and logger may be nil.
func NewGuard(resolver *Resolver, observer DecisionObserver, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{resolver: resolver, observer: observer, logger: logger}
}

// Authorize allows super admins unconditionally and everyone else only when
// operation is in their resolved permission set. Denials wrap
// shared.ErrUnauthorized; resolver failures are returned as is.
func (g *Guard) Authorize(ctx context.Context, p Principal, operation string) error {
	if p == nil {
		return shared.ErrUnauthorized
	}
	if p.IsSuperUser() {
		g.observe(operation, true)
		return nil
	}
	if operation == "" {
		g.observe(operation, false)
		return fmt.Errorf("%w: empty operation", shared.ErrUnauthorized)
	}
	set, err := g.resolver.Resolve(ctx, p)
	if err != nil {
		return err
	}
	if !set.Has(operation) {
		g.observe(operation, false)
		return fmt.Errorf("%w: %s", shared.ErrUnauthorized, operation)
	}
	g.observe(operation, true)
	return nil
}

// Permissions resolves the principal's permission set. Super admins get
// the empty set since they bypass resolution.
func (g *Guard) Permissions(ctx context.Context, p Principal) (PermissionSet, error) {
	if p == nil || p.IsSuperUser() {
		return PermissionSet{}, nil
	}
	return g.resolver.Resolve(ctx, p)
}

// Require returns middleware that authorizes the authenticated user for
// operation. It must run after auth.Middleware.RequireUser.
func (g *Guard) Require(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrInvalidToken)
				return
			}
			if err := g.Authorize(r.Context(), user, operation); err != nil {
				if !errors.Is(err, shared.ErrUnauthorized) {
					g.logger.Error("rbac authorize", slog.String("operation", operation), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) observe(operation string, allowed bool) {
	if g.observer != nil {
		g.observer.ObserveDecision(operation, allowed)
	}
}
