package rbac

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/institute-erp/institute/internal/shared"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	perms   map[int64]Permission
	groups  map[int64]PermissionGroup
	defines map[int64]PermissionGroupDefine
	failErr error
	reads   int
}

func newMemStore() *memStore {
	return &memStore{
		perms:   map[int64]Permission{},
		groups:  map[int64]PermissionGroup{},
		defines: map[int64]PermissionGroupDefine{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addPermission(name string, parentID *int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.perms[id] = Permission{ID: id, Name: name, ParentID: parentID, IsEnabled: true}
	return id
}

func (m *memStore) addGroup(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.groups[id] = PermissionGroup{ID: id, Name: name, IsEnabled: true}
	return id
}

func (m *memStore) bind(groupID int64, permissionIDs ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pid := range permissionIDs {
		id := m.id()
		m.defines[id] = PermissionGroupDefine{ID: id, PermissionID: pid, PermissionGroupID: groupID}
	}
}

func (m *memStore) setParent(id int64, parentID *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.perms[id]
	p.ParentID = parentID
	m.perms[id] = p
}

func ref(id int64) *int64 { return &id }

func (m *memStore) BoundPermissions(ctx context.Context, groupID int64) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []Permission
	for _, d := range m.defines {
		if d.PermissionGroupID == groupID {
			out = append(out, m.perms[d.PermissionID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListPermissionNodes(ctx context.Context) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListPermissions(ctx context.Context, page shared.Page) ([]Permission, error) {
	all, _ := m.ListPermissionNodes(ctx)
	var out []Permission
	for _, p := range all {
		if strings.Contains(p.Name, page.Query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetPermission(ctx context.Context, id int64) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memStore) CreatePermission(ctx context.Context, perm Permission) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.perms {
		if p.Name == perm.Name {
			return Permission{}, shared.ErrDuplicate
		}
	}
	perm.ID = m.id()
	m.perms[perm.ID] = perm
	return perm, nil
}

func (m *memStore) UpdatePermission(ctx context.Context, perm Permission) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.perms[perm.ID]; !ok {
		return Permission{}, shared.ErrNotFound
	}
	m.perms[perm.ID] = perm
	return perm, nil
}

func (m *memStore) DeletePermission(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.perms[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.perms, id)
	return nil
}

func (m *memStore) ListGroups(ctx context.Context, page shared.Page) ([]PermissionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PermissionGroup
	for _, g := range m.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetGroup(ctx context.Context, id int64) (PermissionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return PermissionGroup{}, shared.ErrNotFound
	}
	return g, nil
}

func (m *memStore) CreateGroup(ctx context.Context, group PermissionGroup) (PermissionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group.ID = m.id()
	m.groups[group.ID] = group
	return group, nil
}

func (m *memStore) UpdateGroup(ctx context.Context, group PermissionGroup) (PermissionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[group.ID] = group
	return group, nil
}

func (m *memStore) DeleteGroup(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *memStore) ListDefines(ctx context.Context, page shared.Page, groupID int64) ([]PermissionGroupDefine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PermissionGroupDefine
	for _, d := range m.defines {
		if groupID == 0 || d.PermissionGroupID == groupID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetDefine(ctx context.Context, id int64) (PermissionGroupDefine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.defines[id]
	if !ok {
		return PermissionGroupDefine{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *memStore) FindDefine(ctx context.Context, groupID, permissionID int64) (PermissionGroupDefine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.defines {
		if d.PermissionGroupID == groupID && d.PermissionID == permissionID {
			return d, nil
		}
	}
	return PermissionGroupDefine{}, shared.ErrNotFound
}

func (m *memStore) CreateDefine(ctx context.Context, define PermissionGroupDefine) (PermissionGroupDefine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	define.ID = m.id()
	m.defines[define.ID] = define
	return define, nil
}

func (m *memStore) UpdateDefine(ctx context.Context, define PermissionGroupDefine) (PermissionGroupDefine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.defines[define.ID]; !ok {
		return PermissionGroupDefine{}, shared.ErrNotFound
	}
	m.defines[define.ID] = define
	return define, nil
}

func (m *memStore) DeleteDefine(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.defines[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.defines, id)
	return nil
}

var _ Store = (*memStore)(nil)
