package rbac

import (
	"context"
	"fmt"
)

// ResolverStore is the read-only view of permission data the resolver needs.
type ResolverStore interface {
	// BoundPermissions returns the permissions bound to groupID through
	// permission group defines.
	BoundPermissions(ctx context.Context, groupID int64) ([]Permission, error)
	// ListPermissionNodes returns every permission with its parent reference.
	ListPermissionNodes(ctx context.Context) ([]Permission, error)
}

// Resolver computes a principal's effective permission set from its group.
// Results are never cached: every call reads current bindings.
type Resolver struct {
	store           ResolverStore
	expandHierarchy bool
}

// NewResolver constructs a Resolver. With expandHierarchy set, a bound
// permission also grants all of its descendants.
func NewResolver(store ResolverStore, expandHierarchy bool) *Resolver {
	return &Resolver{store: store, expandHierarchy: expandHierarchy}
}

// Resolve returns the operation names the principal may perform. A
// principal without a permission group resolves to the empty set.
func (r *Resolver) Resolve(ctx context.Context, p Principal) (PermissionSet, error) {
	groupID, ok := p.PermissionGroup()
	if !ok {
		return PermissionSet{}, nil
	}
	bound, err := r.store.BoundPermissions(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("rbac: bound permissions: %w", err)
	}
	set := make(PermissionSet, len(bound))
	for _, perm := range bound {
		set[perm.Name] = struct{}{}
	}
	if !r.expandHierarchy || len(bound) == 0 {
		return set, nil
	}

	nodes, err := r.store.ListPermissionNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("rbac: permission nodes: %w", err)
	}
	children := make(map[int64][]Permission, len(nodes))
	for _, node := range nodes {
		if node.ParentID != nil {
			children[*node.ParentID] = append(children[*node.ParentID], node)
		}
	}
	visited := make(map[int64]struct{}, len(nodes))
	queue := make([]int64, 0, len(bound))
	for _, perm := range bound {
		if _, seen := visited[perm.ID]; !seen {
			visited[perm.ID] = struct{}{}
			queue = append(queue, perm.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			set[child.Name] = struct{}{}
			queue = append(queue, child.ID)
		}
	}
	return set, nil
}
