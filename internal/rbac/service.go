package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/institute-erp/institute/internal/shared"
)

// maxParentDepth bounds how far a parent chain is followed before it is
// treated as invalid.
const maxParentDepth = 32

// Store persists permissions, groups and their bindings.
type Store interface {
	ResolverStore

	ListPermissions(ctx context.Context, page shared.Page) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	CreatePermission(ctx context.Context, perm Permission) (Permission, error)
	UpdatePermission(ctx context.Context, perm Permission) (Permission, error)
	DeletePermission(ctx context.Context, id int64) error

	ListGroups(ctx context.Context, page shared.Page) ([]PermissionGroup, error)
	GetGroup(ctx context.Context, id int64) (PermissionGroup, error)
	CreateGroup(ctx context.Context, group PermissionGroup) (PermissionGroup, error)
	UpdateGroup(ctx context.Context, group PermissionGroup) (PermissionGroup, error)
	DeleteGroup(ctx context.Context, id int64) error

	// ListDefines lists bindings, restricted to groupID when it is non-zero.
	ListDefines(ctx context.Context, page shared.Page, groupID int64) ([]PermissionGroupDefine, error)
	GetDefine(ctx context.Context, id int64) (PermissionGroupDefine, error)
	// FindDefine returns the binding for the pair or shared.ErrNotFound.
	FindDefine(ctx context.Context, groupID, permissionID int64) (PermissionGroupDefine, error)
	CreateDefine(ctx context.Context, define PermissionGroupDefine) (PermissionGroupDefine, error)
	UpdateDefine(ctx context.Context, define PermissionGroupDefine) (PermissionGroupDefine, error)
	DeleteDefine(ctx context.Context, id int64) error
}

// PermissionInput carries a new permission.
type PermissionInput struct {
	Name      string
	ParentID  *int64
	IsEnabled *bool
}

// PermissionPatch carries a partial permission update. A ParentID of zero
// detaches the permission from its parent.
type PermissionPatch struct {
	Name      *string
	ParentID  *int64
	IsEnabled *bool
}

// GroupInput carries a new permission group.
type GroupInput struct {
	Name      string
	IsEnabled *bool
}

// GroupPatch carries a partial permission group update.
type GroupPatch struct {
	Name      *string
	IsEnabled *bool
}

// DefineInput binds a permission to a group.
type DefineInput struct {
	PermissionID      int64
	PermissionGroupID int64
}

// DefinePatch carries a partial binding update.
type DefinePatch struct {
	PermissionID      *int64
	PermissionGroupID *int64
}

// Service orchestrates permission administration.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) stamp(ctx context.Context) shared.Stamp {
	actor, _ := shared.ActorFromContext(ctx)
	return shared.NewStamp(actor.UserID, s.now())
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	return name, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// ListPermissions returns permissions whose name contains page.Query.
func (s *Service) ListPermissions(ctx context.Context, page shared.Page) ([]Permission, error) {
	return s.store.ListPermissions(ctx, page)
}

// GetPermission fetches a permission by id.
func (s *Service) GetPermission(ctx context.Context, id int64) (Permission, error) {
	return s.store.GetPermission(ctx, id)
}

// CreatePermission inserts a permission after validating its parent chain.
func (s *Service) CreatePermission(ctx context.Context, in PermissionInput) (Permission, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return Permission{}, err
	}
	parentID := normalizeParent(in.ParentID)
	if err := s.checkParentChain(ctx, 0, parentID); err != nil {
		return Permission{}, err
	}
	stamp := s.stamp(ctx)
	return s.store.CreatePermission(ctx, Permission{
		Name:       name,
		ParentID:   parentID,
		IsEnabled:  boolOr(in.IsEnabled, true),
		RecorderID: stamp.RecorderRef(),
		RecordDate: stamp.RecordedAt,
	})
}

// UpdatePermission applies patch to the permission identified by id.
func (s *Service) UpdatePermission(ctx context.Context, id int64, patch PermissionPatch) (Permission, error) {
	perm, err := s.store.GetPermission(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	if patch.Name != nil {
		if perm.Name, err = normalizeName(*patch.Name); err != nil {
			return Permission{}, err
		}
	}
	if patch.ParentID != nil {
		perm.ParentID = normalizeParent(patch.ParentID)
		if err := s.checkParentChain(ctx, id, perm.ParentID); err != nil {
			return Permission{}, err
		}
	}
	perm.IsEnabled = boolOr(patch.IsEnabled, perm.IsEnabled)
	stamp := s.stamp(ctx)
	perm.RecorderID = stamp.RecorderRef()
	perm.RecordDate = stamp.RecordedAt
	return s.store.UpdatePermission(ctx, perm)
}

// DeletePermission removes a permission.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	return s.store.DeletePermission(ctx, id)
}

func normalizeParent(parentID *int64) *int64 {
	if parentID == nil || *parentID == 0 {
		return nil
	}
	id := *parentID
	return &id
}

// checkParentChain follows parent references from parentID and rejects
// chains that reach self or exceed maxParentDepth. self is zero for new rows.
func (s *Service) checkParentChain(ctx context.Context, self int64, parentID *int64) error {
	current := parentID
	for hops := 0; current != nil; hops++ {
		if hops >= maxParentDepth {
			return fmt.Errorf("%w: parent chain deeper than %d", shared.ErrValidation, maxParentDepth)
		}
		if self != 0 && *current == self {
			return fmt.Errorf("%w: parent chain forms a cycle", shared.ErrValidation)
		}
		parent, err := s.store.GetPermission(ctx, *current)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return fmt.Errorf("%w: unknown parent %d", shared.ErrValidation, *current)
			}
			return err
		}
		current = parent.ParentID
	}
	return nil
}

// ListGroups returns permission groups whose name contains page.Query.
func (s *Service) ListGroups(ctx context.Context, page shared.Page) ([]PermissionGroup, error) {
	return s.store.ListGroups(ctx, page)
}

// GetGroup fetches a permission group by id.
func (s *Service) GetGroup(ctx context.Context, id int64) (PermissionGroup, error) {
	return s.store.GetGroup(ctx, id)
}

// CreateGroup inserts a permission group.
func (s *Service) CreateGroup(ctx context.Context, in GroupInput) (PermissionGroup, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return PermissionGroup{}, err
	}
	stamp := s.stamp(ctx)
	return s.store.CreateGroup(ctx, PermissionGroup{
		Name:       name,
		IsEnabled:  boolOr(in.IsEnabled, true),
		RecorderID: stamp.RecorderRef(),
		RecordDate: stamp.RecordedAt,
	})
}

// UpdateGroup applies patch to the group identified by id.
func (s *Service) UpdateGroup(ctx context.Context, id int64, patch GroupPatch) (PermissionGroup, error) {
	group, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return PermissionGroup{}, err
	}
	if patch.Name != nil {
		if group.Name, err = normalizeName(*patch.Name); err != nil {
			return PermissionGroup{}, err
		}
	}
	group.IsEnabled = boolOr(patch.IsEnabled, group.IsEnabled)
	stamp := s.stamp(ctx)
	group.RecorderID = stamp.RecorderRef()
	group.RecordDate = stamp.RecordedAt
	return s.store.UpdateGroup(ctx, group)
}

// DeleteGroup removes a permission group.
func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	return s.store.DeleteGroup(ctx, id)
}

// ListDefines lists bindings, optionally restricted to one group.
func (s *Service) ListDefines(ctx context.Context, page shared.Page, groupID int64) ([]PermissionGroupDefine, error) {
	return s.store.ListDefines(ctx, page, groupID)
}

// GetDefine fetches a binding by id.
func (s *Service) GetDefine(ctx context.Context, id int64) (PermissionGroupDefine, error) {
	return s.store.GetDefine(ctx, id)
}

// CreateDefine binds a permission to a group. An existing binding for the
// same pair yields shared.ErrDuplicate.
func (s *Service) CreateDefine(ctx context.Context, in DefineInput) (PermissionGroupDefine, error) {
	if in.PermissionID <= 0 || in.PermissionGroupID <= 0 {
		return PermissionGroupDefine{}, fmt.Errorf("%w: permission_id and permission_group_id required", shared.ErrValidation)
	}
	if err := s.ensureUniquePair(ctx, 0, in.PermissionGroupID, in.PermissionID); err != nil {
		return PermissionGroupDefine{}, err
	}
	stamp := s.stamp(ctx)
	return s.store.CreateDefine(ctx, PermissionGroupDefine{
		PermissionID:      in.PermissionID,
		PermissionGroupID: in.PermissionGroupID,
		RecorderID:        stamp.RecorderRef(),
		RecordDate:        stamp.RecordedAt,
	})
}

// UpdateDefine applies patch to a binding. Moving it onto a pair held by
// another binding yields shared.ErrDuplicate.
func (s *Service) UpdateDefine(ctx context.Context, id int64, patch DefinePatch) (PermissionGroupDefine, error) {
	define, err := s.store.GetDefine(ctx, id)
	if err != nil {
		return PermissionGroupDefine{}, err
	}
	if patch.PermissionID != nil {
		define.PermissionID = *patch.PermissionID
	}
	if patch.PermissionGroupID != nil {
		define.PermissionGroupID = *patch.PermissionGroupID
	}
	if define.PermissionID <= 0 || define.PermissionGroupID <= 0 {
		return PermissionGroupDefine{}, fmt.Errorf("%w: permission_id and permission_group_id required", shared.ErrValidation)
	}
	if err := s.ensureUniquePair(ctx, id, define.PermissionGroupID, define.PermissionID); err != nil {
		return PermissionGroupDefine{}, err
	}
	stamp := s.stamp(ctx)
	define.RecorderID = stamp.RecorderRef()
	define.RecordDate = stamp.RecordedAt
	return s.store.UpdateDefine(ctx, define)
}

// DeleteDefine removes a binding.
func (s *Service) DeleteDefine(ctx context.Context, id int64) error {
	return s.store.DeleteDefine(ctx, id)
}

func (s *Service) ensureUniquePair(ctx context.Context, self, groupID, permissionID int64) error {
	existing, err := s.store.FindDefine(ctx, groupID, permissionID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return fmt.Errorf("%w: permission %d already bound to group %d", shared.ErrDuplicate, permissionID, groupID)
	}
	return nil
}
