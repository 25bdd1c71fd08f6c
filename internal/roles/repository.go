package roles

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

const roleColumns = `id, name, is_enabled, recorder_id, record_date`

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.IsEnabled, &role.RecorderID, &role.RecordDate)
	return role, err
}

// ListRoles returns roles whose name contains page.Query.
func (r *Repository) ListRoles(ctx context.Context, page shared.Page) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+roleColumns+` FROM roles
WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
ORDER BY id
LIMIT $2 OFFSET $3`, page.Query, page.Size, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]Role, 0, page.Size)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	return role, db.MapError(err)
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, role Role) (Role, error) {
	created, err := scanRole(r.pool.QueryRow(ctx, `
INSERT INTO roles (name, is_enabled, recorder_id, record_date)
VALUES ($1, $2, $3, $4)
RETURNING `+roleColumns, role.Name, role.IsEnabled, role.RecorderID, role.RecordDate))
	return created, db.MapError(err)
}

// UpdateRole stores every mutable column of role.
func (r *Repository) UpdateRole(ctx context.Context, role Role) (Role, error) {
	updated, err := scanRole(r.pool.QueryRow(ctx, `
UPDATE roles SET name = $2, is_enabled = $3, recorder_id = $4, record_date = $5
WHERE id = $1
RETURNING `+roleColumns, role.ID, role.Name, role.IsEnabled, role.RecorderID, role.RecordDate))
	return updated, db.MapError(err)
}

// DeleteRole removes a role by id.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
