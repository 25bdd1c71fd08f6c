package rbac

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/institute-erp/institute/internal/platform/db"
	"github.com/institute-erp/institute/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const permissionColumns = `id, name, parent_id, is_enabled, recorder_id, record_date`

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.ParentID, &p.IsEnabled, &p.RecorderID, &p.RecordDate)
	return p, err
}

func collectPermissions(rows pgx.Rows, err error) ([]Permission, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// BoundPermissions returns the permissions bound to groupID.
func (r *Repository) BoundPermissions(ctx context.Context, groupID int64) ([]Permission, error) {
	return collectPermissions(r.pool.Query(ctx, `
SELECT p.id, p.name, p.parent_id, p.is_enabled, p.recorder_id, p.record_date
FROM permission_group_defines d
JOIN permissions p ON p.id = d.permission_id
WHERE d.permission_group_id = $1
ORDER BY p.id`, groupID))
}

// ListPermissionNodes returns every permission.
func (r *Repository) ListPermissionNodes(ctx context.Context) ([]Permission, error) {
	return collectPermissions(r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY id`))
}

// ListPermissions returns permissions whose name contains page.Query.
func (r *Repository) ListPermissions(ctx context.Context, page shared.Page) ([]Permission, error) {
	return collectPermissions(r.pool.Query(ctx, `
SELECT `+permissionColumns+` FROM permissions
WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
ORDER BY id
LIMIT $2 OFFSET $3`, page.Query, page.Size, page.Offset))
}

// GetPermission fetches a permission by id.
func (r *Repository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id))
	return p, db.MapError(err)
}

// CreatePermission inserts a permission.
func (r *Repository) CreatePermission(ctx context.Context, perm Permission) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx, `
INSERT INTO permissions (name, parent_id, is_enabled, recorder_id, record_date)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+permissionColumns, perm.Name, perm.ParentID, perm.IsEnabled, perm.RecorderID, perm.RecordDate))
	return p, db.MapError(err)
}

// UpdatePermission stores every mutable column of perm.
func (r *Repository) UpdatePermission(ctx context.Context, perm Permission) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx, `
UPDATE permissions
SET name = $2, parent_id = $3, is_enabled = $4, recorder_id = $5, record_date = $6
WHERE id = $1
RETURNING `+permissionColumns, perm.ID, perm.Name, perm.ParentID, perm.IsEnabled, perm.RecorderID, perm.RecordDate))
	return p, db.MapError(err)
}

// DeletePermission removes a permission.
func (r *Repository) DeletePermission(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
}

const groupColumns = `id, name, is_enabled, recorder_id, record_date`

func scanGroup(row pgx.Row) (PermissionGroup, error) {
	var g PermissionGroup
	err := row.Scan(&g.ID, &g.Name, &g.IsEnabled, &g.RecorderID, &g.RecordDate)
	return g, err
}

// ListGroups returns groups whose name contains page.Query.
func (r *Repository) ListGroups(ctx context.Context, page shared.Page) ([]PermissionGroup, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+groupColumns+` FROM permission_groups
WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
ORDER BY id
LIMIT $2 OFFSET $3`, page.Query, page.Size, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []PermissionGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroup fetches a group by id.
func (r *Repository) GetGroup(ctx context.Context, id int64) (PermissionGroup, error) {
	g, err := scanGroup(r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM permission_groups WHERE id = $1`, id))
	return g, db.MapError(err)
}

// CreateGroup inserts a group.
func (r *Repository) CreateGroup(ctx context.Context, group PermissionGroup) (PermissionGroup, error) {
	g, err := scanGroup(r.pool.QueryRow(ctx, `
INSERT INTO permission_groups (name, is_enabled, recorder_id, record_date)
VALUES ($1, $2, $3, $4)
RETURNING `+groupColumns, group.Name, group.IsEnabled, group.RecorderID, group.RecordDate))
	return g, db.MapError(err)
}

// UpdateGroup stores every mutable column of group.
func (r *Repository) UpdateGroup(ctx context.Context, group PermissionGroup) (PermissionGroup, error) {
	g, err := scanGroup(r.pool.QueryRow(ctx, `
UPDATE permission_groups
SET name = $2, is_enabled = $3, recorder_id = $4, record_date = $5
WHERE id = $1
RETURNING `+groupColumns, group.ID, group.Name, group.IsEnabled, group.RecorderID, group.RecordDate))
	return g, db.MapError(err)
}

// DeleteGroup removes a group.
func (r *Repository) DeleteGroup(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM permission_groups WHERE id = $1`, id)
}

const defineColumns = `id, permission_id, permission_group_id, recorder_id, record_date`

func scanDefine(row pgx.Row) (PermissionGroupDefine, error) {
	var d PermissionGroupDefine
	err := row.Scan(&d.ID, &d.PermissionID, &d.PermissionGroupID, &d.RecorderID, &d.RecordDate)
	return d, err
}

// ListDefines lists bindings, restricted to groupID when non-zero.
func (r *Repository) ListDefines(ctx context.Context, page shared.Page, groupID int64) ([]PermissionGroupDefine, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+defineColumns+` FROM permission_group_defines
WHERE $1 = 0 OR permission_group_id = $1
ORDER BY id
LIMIT $2 OFFSET $3`, groupID, page.Size, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var defines []PermissionGroupDefine
	for rows.Next() {
		d, err := scanDefine(rows)
		if err != nil {
			return nil, err
		}
		defines = append(defines, d)
	}
	return defines, rows.Err()
}

// GetDefine fetches a binding by id.
func (r *Repository) GetDefine(ctx context.Context, id int64) (PermissionGroupDefine, error) {
	d, err := scanDefine(r.pool.QueryRow(ctx, `SELECT `+defineColumns+` FROM permission_group_defines WHERE id = $1`, id))
	return d, db.MapError(err)
}

// FindDefine returns the binding for the (group, permission) pair.
func (r *Repository) FindDefine(ctx context.Context, groupID, permissionID int64) (PermissionGroupDefine, error) {
	d, err := scanDefine(r.pool.QueryRow(ctx, `
SELECT `+defineColumns+` FROM permission_group_defines
WHERE permission_group_id = $1 AND permission_id = $2`, groupID, permissionID))
	return d, db.MapError(err)
}

// CreateDefine inserts a binding. The unique pair constraint surfaces as
// shared.ErrDuplicate.
func (r *Repository) CreateDefine(ctx context.Context, define PermissionGroupDefine) (PermissionGroupDefine, error) {
	d, err := scanDefine(r.pool.QueryRow(ctx, `
INSERT INTO permission_group_defines (permission_id, permission_group_id, recorder_id, record_date)
VALUES ($1, $2, $3, $4)
RETURNING `+defineColumns, define.PermissionID, define.PermissionGroupID, define.RecorderID, define.RecordDate))
	return d, db.MapError(err)
}

// UpdateDefine stores every mutable column of define.
func (r *Repository) UpdateDefine(ctx context.Context, define PermissionGroupDefine) (PermissionGroupDefine, error) {
	d, err := scanDefine(r.pool.QueryRow(ctx, `
UPDATE permission_group_defines
SET permission_id = $2, permission_group_id = $3, recorder_id = $4, record_date = $5
WHERE id = $1
RETURNING `+defineColumns, define.ID, define.PermissionID, define.PermissionGroupID, define.RecorderID, define.RecordDate))
	return d, db.MapError(err)
}

// DeleteDefine removes a binding.
func (r *Repository) DeleteDefine(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM permission_group_defines WHERE id = $1`, id)
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Store = (*Repository)(nil)
