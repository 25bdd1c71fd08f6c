package rbac

import (
	"sort"
	"time"
)

// Permission represents an addressable operation identifier. ParentID
// links it into the permission tree.
type Permission struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ParentID   *int64    `json:"parent_id"`
	IsEnabled  bool      `json:"is_enabled"`
	RecorderID *int64    `json:"recorder_id"`
	RecordDate time.Time `json:"record_date"`
}

// PermissionGroup is a named bundle of permissions assignable to users.
type PermissionGroup struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	IsEnabled  bool      `json:"is_enabled"`
	RecorderID *int64    `json:"recorder_id"`
	RecordDate time.Time `json:"record_date"`
}

// PermissionGroupDefine binds one permission to one group. The pair is unique.
type PermissionGroupDefine struct {
	ID                int64     `json:"id"`
	PermissionID      int64     `json:"permission_id"`
	PermissionGroupID int64     `json:"permission_group_id"`
	RecorderID        *int64    `json:"recorder_id"`
	RecordDate        time.Time `json:"record_date"`
}

// Principal describes the authenticated actor.
type Principal interface {
	GetID() int64
	IsSuperUser() bool
	PermissionGroup() (int64, bool)
}

// PermissionSet is the resolved set of operation names for one request.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from names.
func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether op is in the set.
func (s PermissionSet) Has(op string) bool {
	_, ok := s[op]
	return ok
}

// Names returns the sorted operation names.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
