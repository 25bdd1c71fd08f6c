package logins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/institute-erp/institute/internal/auth"
	"github.com/institute-erp/institute/internal/rbac"
	"github.com/institute-erp/institute/internal/shared"
)

type memRepo struct {
	entries    []Entry
	lastFilter Filter
}

func (m *memRepo) Insert(ctx context.Context, e Entry) (Entry, error) {
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memRepo) List(ctx context.Context, filter Filter, page shared.Page) ([]Entry, error) {
	m.lastFilter = filter
	var out []Entry
	for _, e := range m.entries {
		if filter.UserID != 0 && e.UserID != filter.UserID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	kept := m.entries[:0]
	var n int64
	for _, e := range m.entries {
		if e.LoginDate.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

func TestPruneHonoursRetention(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, svc.RecordLogin(ctx, auth.LoginEvent{UserID: 1, LoginAt: now.AddDate(0, 0, -40)}))
	require.NoError(t, svc.RecordLogin(ctx, auth.LoginEvent{UserID: 1, LoginAt: now.AddDate(0, 0, -5)}))

	n, err := svc.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.Prune(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, now.AddDate(0, 0, -5), repo.entries[0].LoginDate)
}

func TestRecordLogin(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	at := time.Date(2024, 4, 1, 8, 30, 0, 0, time.FixedZone("IRST", 3*3600+1800))

	require.NoError(t, svc.RecordLogin(context.Background(), auth.LoginEvent{UserID: 3, LoginAt: at, RemoteAddr: "10.0.0.2:4000"}))
	require.Len(t, repo.entries, 1)
	assert.Equal(t, at.UTC(), repo.entries[0].LoginDate)
	assert.Equal(t, time.UTC, repo.entries[0].LoginDate.Location())

	err := svc.RecordLogin(context.Background(), auth.LoginEvent{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestListRejectsInvertedRange(t *testing.T) {
	svc := NewService(&memRepo{})
	now := time.Now()
	_, err := svc.List(context.Background(), Filter{From: now, To: now.Add(-time.Hour)}, shared.NewPage(1, 10))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestHandlerParsesFilters(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	require.NoError(t, svc.RecordLogin(context.Background(), auth.LoginEvent{UserID: 3, LoginAt: time.Now()}))

	guard := rbac.NewGuard(rbac.NewResolver(nil, false), nil, nil)
	h := NewHandler(nil, svc, guard)
	admin := &auth.User{ID: 1, IsSuperAdmin: true}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.ContextWithUser(req.Context(), admin, nil)))
		})
	})
	h.MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/?from_date=2024-01-01&to_date=2024-12-31T23:59:59Z&user_id=3", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(3), repo.lastFilter.UserID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), repo.lastFilter.From)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), repo.lastFilter.To)

	for _, bad := range []string{"/?from_date=yesterday", "/?user_id=x"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}
