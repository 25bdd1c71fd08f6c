package users

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/institute-erp/institute/internal/auth"
	"github.com/institute-erp/institute/internal/shared"
)

type memRepo struct {
	nextID int64
	rows   map[int64]User
}

func newMemRepo() *memRepo { return &memRepo{rows: map[int64]User{}} }

func (m *memRepo) ListEnabled(ctx context.Context, page shared.Page) ([]User, error) {
	var out []User
	for _, u := range m.rows {
		if u.IsEnabled {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) GetEnabled(ctx context.Context, id int64) (User, error) {
	u, ok := m.rows[id]
	if !ok || !u.IsEnabled {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memRepo) FindByPhone(ctx context.Context, phone string) (User, error) {
	for _, u := range m.rows {
		if u.PhoneNumber == phone {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (m *memRepo) Insert(ctx context.Context, u User) (User, error) {
	m.nextID++
	u.ID = m.nextID
	m.rows[u.ID] = u
	return u, nil
}

func (m *memRepo) Update(ctx context.Context, u User) (User, error) {
	if _, ok := m.rows[u.ID]; !ok {
		return User{}, shared.ErrNotFound
	}
	m.rows[u.ID] = u
	return u, nil
}

func (m *memRepo) TakeOver(ctx context.Context, fromID int64, u User) (User, error) {
	from := m.rows[fromID]
	from.IsEnabled = false
	from.TokenVersion++
	m.rows[fromID] = from
	return m.Update(ctx, u)
}

func (m *memRepo) Disable(ctx context.Context, id int64, stamp shared.Stamp) error {
	u, ok := m.rows[id]
	if !ok || !u.IsEnabled {
		return shared.ErrNotFound
	}
	u.IsEnabled = false
	u.TokenVersion++
	u.RecorderID = stamp.RecorderRef()
	m.rows[id] = u
	return nil
}

func newTestService(repo *memRepo) *Service {
	s := NewService(repo, auth.NewPasswordHasher(bcrypt.MinCost, 2))
	s.now = func() time.Time { return time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC) }
	return s
}

func adminCtx() context.Context {
	return shared.ContextWithActor(context.Background(), shared.Actor{UserID: 1})
}

func TestCreateHashesPasswordAndStamps(t *testing.T) {
	svc := newTestService(newMemRepo())
	u, err := svc.Create(adminCtx(), CreateInput{PhoneNumber: " 0912 ", Password: "secret", FirstName: "Sara"})
	require.NoError(t, err)

	assert.Equal(t, "0912", u.PhoneNumber)
	assert.True(t, u.IsEnabled)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")))
	assert.Equal(t, int64(1), *u.RecorderID)
}

func TestCreateRejectsEnabledDuplicate(t *testing.T) {
	svc := newTestService(newMemRepo())
	_, err := svc.Create(adminCtx(), CreateInput{PhoneNumber: "0912", Password: "a"})
	require.NoError(t, err)

	_, err = svc.Create(adminCtx(), CreateInput{PhoneNumber: "0912", Password: "b"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateReenablesDisabledAccount(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := adminCtx()
	first, err := svc.Create(ctx, CreateInput{PhoneNumber: "0912", Password: "old"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, first.ID))

	_, err = svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	again, err := svc.Create(ctx, CreateInput{PhoneNumber: "0912", Password: "new", LastName: "Karimi"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.IsEnabled)
	assert.Equal(t, "Karimi", again.LastName)
	assert.Greater(t, again.TokenVersion, first.TokenVersion)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(again.PasswordHash), []byte("new")))
}

func TestUpdatePasswordBumpsTokenVersion(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := adminCtx()
	u, err := svc.Create(ctx, CreateInput{PhoneNumber: "0912", Password: "old"})
	require.NoError(t, err)

	name := "Reza"
	renamed, err := svc.Update(ctx, "0912", Patch{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, u.TokenVersion, renamed.TokenVersion)

	pw := "fresh"
	updated, err := svc.Update(ctx, "0912", Patch{Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, u.TokenVersion+1, updated.TokenVersion)
	assert.Equal(t, "Reza", updated.FirstName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("fresh")))
}

func TestUpdateClearsGroupWithZero(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := adminCtx()
	group := int64(4)
	_, err := svc.Create(ctx, CreateInput{PhoneNumber: "0912", Password: "pw", PermissionGroupID: &group})
	require.NoError(t, err)

	zero := int64(0)
	u, err := svc.Update(ctx, "0912", Patch{PermissionGroupID: &zero})
	require.NoError(t, err)
	assert.Nil(t, u.PermissionGroupID)
}

func TestUpdatePhoneConflicts(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := adminCtx()
	a, err := svc.Create(ctx, CreateInput{PhoneNumber: "1111", Password: "pw"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateInput{PhoneNumber: "2222", Password: "pw"})
	require.NoError(t, err)

	target := "2222"
	_, err = svc.Update(ctx, "1111", Patch{PhoneNumber: &target})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	require.NoError(t, svc.Delete(ctx, b.ID))
	moved, err := svc.Update(ctx, "1111", Patch{PhoneNumber: &target})
	require.NoError(t, err)
	assert.Equal(t, b.ID, moved.ID)
	assert.True(t, repo.rows[b.ID].IsEnabled)
	assert.False(t, repo.rows[a.ID].IsEnabled)
}

func TestUpdateUnknownOrDisabledIsNotFound(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := adminCtx()
	_, err := svc.Update(ctx, "0000", Patch{})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	u, err := svc.Create(ctx, CreateInput{PhoneNumber: "0912", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, u.ID))
	_, err = svc.Update(ctx, "0912", Patch{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, u.ID), shared.ErrNotFound)
}

func TestCreateRejectsOverlongPassword(t *testing.T) {
	svc := newTestService(newMemRepo())
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.Create(adminCtx(), CreateInput{PhoneNumber: "0912", Password: string(long)})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
