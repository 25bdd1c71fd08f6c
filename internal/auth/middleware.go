package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/institute-erp/institute/internal/platform/httpx"
	"github.com/institute-erp/institute/internal/shared"
)

type userContextKey struct{}

type claimsContextKey struct{}

// ContextWithUser stores the authenticated user and its token claims.
func ContextWithUser(ctx context.Context, user *User, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, userContextKey{}, user)
	ctx = context.WithValue(ctx, claimsContextKey{}, claims)
	actor := shared.Actor{UserID: user.ID, LoginID: user.LoginID}
	if claims != nil {
		actor.TokenID = claims.ID
		if claims.ExpiresAt != nil {
			actor.TokenExpiresAt = claims.ExpiresAt.Time
		}
	}
	return shared.ContextWithActor(ctx, actor)
}

// UserFromContext returns the authenticated user.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}

// ClaimsFromContext returns the verified token claims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Middleware authenticates bearer tokens on protected routes.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireUser rejects requests without a valid bearer token for an enabled
// user with 401 and a generic message.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := BearerToken(r)
		if !ok {
			httpx.RespondError(w, shared.ErrInvalidToken)
			return
		}
		user, claims, err := m.Service.ResolveToken(r.Context(), raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("bearer token rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			// Storage failures are still reported as invalid credentials.
			httpx.RespondError(w, shared.ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user, claims)))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
