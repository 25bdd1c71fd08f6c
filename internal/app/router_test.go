package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/institute-erp/institute/internal/auth"
	"github.com/institute-erp/institute/internal/observability"
	"github.com/institute-erp/institute/internal/rbac"
	"github.com/institute-erp/institute/internal/shared"
	"github.com/institute-erp/institute/jobs"
)

type emptyDirectory struct{}

func (emptyDirectory) FindActiveByLoginID(context.Context, string) (*auth.User, error) {
	return nil, shared.ErrNotFound
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens := auth.TokenConfig{Secret: []byte(strings.Repeat("k", 32)), TTL: time.Minute, Issuer: "institute"}
	issuer, err := auth.NewTokenIssuer(tokens)
	require.NoError(t, err)
	verifier, err := auth.NewTokenVerifier(tokens)
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	service := auth.NewService(auth.ServiceConfig{
		Directory: emptyDirectory{},
		Hasher:    auth.NewPasswordHasher(4, 1),
		Issuer:    issuer,
		Verifier:  verifier,
		Observer:  metrics,
	})
	guard := rbac.NewGuard(rbac.NewResolver(nil, false), metrics, nil)
	return NewRouter(RouterParams{
		Config:      validConfig(),
		AuthHandler: auth.NewHandler(nil, service, 10),
		RBACHandler: rbac.NewHandler(nil, nil, guard),
		JobHandler:  jobs.NewHandler(nil, nil),
		Metrics:     metrics,
	})
}

func TestHealthzIsPublic(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "institute_http_requests_total")
}

func TestProtectedRoutesNeedBearer(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/me", "/permissions", "/jobs/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"), path)
	}
}

func TestTokenRouteIsPublic(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader("username=nobody&password=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
