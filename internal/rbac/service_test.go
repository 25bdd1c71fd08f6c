package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/institute-erp/institute/internal/shared"
)

func newTestService(store *memStore) *Service {
	s := NewService(store)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func actorCtx(id int64) context.Context {
	return shared.ContextWithActor(context.Background(), shared.Actor{UserID: id})
}

func TestCreateDefineRejectsDuplicatePair(t *testing.T) {
	store := newMemStore()
	perm := store.addPermission("create_role", nil)
	group := store.addGroup("G")
	svc := newTestService(store)
	ctx := actorCtx(1)

	first, err := svc.CreateDefine(ctx, DefineInput{PermissionID: perm, PermissionGroupID: group})
	require.NoError(t, err)
	assert.Equal(t, int64(1), *first.RecorderID)

	_, err = svc.CreateDefine(ctx, DefineInput{PermissionID: perm, PermissionGroupID: group})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateDefineRejectsPairHeldByAnother(t *testing.T) {
	store := newMemStore()
	a := store.addPermission("a", nil)
	b := store.addPermission("b", nil)
	group := store.addGroup("G")
	svc := newTestService(store)
	ctx := actorCtx(1)

	da, err := svc.CreateDefine(ctx, DefineInput{PermissionID: a, PermissionGroupID: group})
	require.NoError(t, err)
	db, err := svc.CreateDefine(ctx, DefineInput{PermissionID: b, PermissionGroupID: group})
	require.NoError(t, err)

	_, err = svc.UpdateDefine(ctx, db.ID, DefinePatch{PermissionID: ref(a)})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	same, err := svc.UpdateDefine(ctx, da.ID, DefinePatch{PermissionID: ref(a)})
	require.NoError(t, err)
	assert.Equal(t, da.ID, same.ID)
}

func TestCreateDefineValidatesIDs(t *testing.T) {
	svc := newTestService(newMemStore())
	_, err := svc.CreateDefine(context.Background(), DefineInput{PermissionID: 0, PermissionGroupID: 1})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdatePermissionRejectsCycles(t *testing.T) {
	store := newMemStore()
	root := store.addPermission("root", nil)
	mid := store.addPermission("mid", ref(root))
	leaf := store.addPermission("leaf", ref(mid))
	svc := newTestService(store)
	ctx := actorCtx(1)

	_, err := svc.UpdatePermission(ctx, root, PermissionPatch{ParentID: ref(leaf)})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.UpdatePermission(ctx, mid, PermissionPatch{ParentID: ref(mid)})
	assert.ErrorIs(t, err, shared.ErrValidation)

	moved, err := svc.UpdatePermission(ctx, leaf, PermissionPatch{ParentID: ref(root)})
	require.NoError(t, err)
	assert.Equal(t, root, *moved.ParentID)

	detached, err := svc.UpdatePermission(ctx, leaf, PermissionPatch{ParentID: ref(0)})
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)
}

func TestCreatePermissionRejectsDeepOrUnknownParents(t *testing.T) {
	store := newMemStore()
	var parent *int64
	for i := 0; i <= maxParentDepth; i++ {
		parent = ref(store.addPermission("p", parent))
	}
	svc := newTestService(store)
	ctx := actorCtx(1)

	_, err := svc.CreatePermission(ctx, PermissionInput{Name: "too_deep", ParentID: parent})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreatePermission(ctx, PermissionInput{Name: "orphan", ParentID: ref(999)})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreatePermission(ctx, PermissionInput{Name: "  "})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreatePermissionStampsRecorder(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	perm, err := svc.CreatePermission(actorCtx(42), PermissionInput{Name: " get_logins "})
	require.NoError(t, err)
	assert.Equal(t, "get_logins", perm.Name)
	assert.True(t, perm.IsEnabled)
	assert.Equal(t, int64(42), *perm.RecorderID)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), perm.RecordDate)

	perm, err = svc.CreatePermission(context.Background(), PermissionInput{Name: "anonymous"})
	require.NoError(t, err)
	assert.Nil(t, perm.RecorderID)
}

func TestUpdateGroupKeepsUnsetFields(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := actorCtx(1)
	group, err := svc.CreateGroup(ctx, GroupInput{Name: "instructors"})
	require.NoError(t, err)

	disabled := false
	updated, err := svc.UpdateGroup(ctx, group.ID, GroupPatch{IsEnabled: &disabled})
	require.NoError(t, err)
	assert.Equal(t, "instructors", updated.Name)
	assert.False(t, updated.IsEnabled)

	_, err = svc.UpdateGroup(ctx, 999, GroupPatch{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
