package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/institute-erp/institute/internal/auth"
)

func newTestRouter(store *memStore, user *auth.User) http.Handler {
	guard := NewGuard(NewResolver(store, false), nil, nil)
	h := NewHandler(nil, newTestService(store), guard)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user, nil)))
		})
	})
	h.MountRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMeListsResolvedPermissions(t *testing.T) {
	store, group := roleFixture()
	user := &auth.User{ID: 3, LoginID: "0912", PermissionGroupID: ref(group)}
	rec := do(newTestRouter(store, user), http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "0912", body.PhoneNumber)
	assert.Equal(t, []string{"create_role", "get_all_roles"}, body.Permissions)
}

func TestPermissionGroupDefineRoutes(t *testing.T) {
	store := newMemStore()
	perm := store.addPermission("create_role", nil)
	group := store.addGroup("G")
	admin := &auth.User{ID: 1, IsSuperAdmin: true}
	router := newTestRouter(store, admin)

	payload := `{"permission_id":` + itoa(perm) + `,"permission_group_id":` + itoa(group) + `}`
	rec := do(router, http.MethodPost, "/permission_group_defines/", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(router, http.MethodPost, "/permission_group_defines/", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(router, http.MethodGet, "/permission_group_defines/?permission_group_id="+itoa(group), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var defines []PermissionGroupDefine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defines))
	require.Len(t, defines, 1)

	rec = do(router, http.MethodDelete, "/permission_group_defines/"+itoa(defines[0].ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(router, http.MethodGet, "/permission_group_defines/"+itoa(defines[0].ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPermissionRoutesRequireOperation(t *testing.T) {
	store, group := roleFixture()
	user := &auth.User{ID: 3, PermissionGroupID: ref(group)}
	router := newTestRouter(store, user)

	rec := do(router, http.MethodGet, "/permissions/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not enough permissions")
}

func TestCreatePermissionValidatesBody(t *testing.T) {
	router := newTestRouter(newMemStore(), &auth.User{ID: 1, IsSuperAdmin: true})

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/permissions/", `{"name":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/permissions/", `{"name":"x","bogus":true}`).Code)

	rec := do(router, http.MethodPost, "/permissions/", `{"name":"get_logins"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var perm Permission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &perm))
	assert.Equal(t, "get_logins", perm.Name)
	assert.Equal(t, int64(1), *perm.RecorderID)
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
