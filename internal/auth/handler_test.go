package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/institute-erp/institute/internal/auth"
)

func newTestRouter(t *testing.T, f *fixture, loginLimit int) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	h := auth.NewHandler(nil, f.service, loginLimit)
	h.MountRoutes(r)
	mw := h.Middleware()
	r.With(mw.RequireUser).Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(user.LoginID))
	})
	return r
}

func postLogin(router http.Handler, username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}, "grant_type": {"password"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTokenEndpointIssuesBearerToken(t *testing.T) {
	f := newFixture(t, nil, enabledUser(t, 3, "09120000000", "s3cret"))
	router := newTestRouter(t, f, 0)

	rec := postLogin(router, "09120000000", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bearer", body["token_type"])
	require.NotEmpty(t, body["access_token"])

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+body["access_token"])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "09120000000", rec.Body.String())
}

func TestTokenEndpointRejectsBadCredentials(t *testing.T) {
	f := newFixture(t, nil, enabledUser(t, 3, "09120000000", "s3cret"))
	router := newTestRouter(t, f, 0)

	for _, pw := range []string{"wrong", ""} {
		rec := postLogin(router, "09120000000", pw)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Incorrect username or password")
	}
}

func TestProtectedRouteRequiresValidBearer(t *testing.T) {
	f := newFixture(t, nil, enabledUser(t, 3, "09120000000", "s3cret"))
	router := newTestRouter(t, f, 0)

	for _, header := range []string{"", "Basic abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header=%q", header)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.Contains(t, rec.Body.String(), "Could not validate credentials")
	}
}

func TestLogoutReturnsNoContent(t *testing.T) {
	f := newFixture(t, nil, enabledUser(t, 3, "09120000000", "s3cret"))
	router := newTestRouter(t, f, 0)

	var body map[string]string
	rec := postLogin(router, "09120000000", "s3cret")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "bearer "+body["access_token"])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	f := newFixture(t, nil, enabledUser(t, 3, "09120000000", "s3cret"))
	router := newTestRouter(t, f, 2)

	assert.Equal(t, http.StatusBadRequest, postLogin(router, "09120000000", "x").Code)
	assert.Equal(t, http.StatusBadRequest, postLogin(router, "09120000000", "x").Code)
	assert.Equal(t, http.StatusTooManyRequests, postLogin(router, "09120000000", "x").Code)
}
