package users

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

const userColumns = `id, phone_number, first_name, last_name, role_id, permission_group_id,
       is_super_admin, is_panel_user, is_enabled, recorder_id, record_date, hashed_password, token_version`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.PhoneNumber,
		&u.FirstName,
		&u.LastName,
		&u.RoleID,
		&u.PermissionGroupID,
		&u.IsSuperAdmin,
		&u.IsPanelUser,
		&u.IsEnabled,
		&u.RecorderID,
		&u.RecordDate,
		&u.PasswordHash,
		&u.TokenVersion,
	)
	return u, err
}

// ListEnabled returns enabled users matching page.Query.
func (r *Repository) ListEnabled(ctx context.Context, page shared.Page) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+userColumns+`
FROM users
WHERE is_enabled
  AND ($1 = '' OR first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%' OR phone_number LIKE '%' || $1 || '%')
ORDER BY id
LIMIT $2 OFFSET $3`, page.Query, page.Size, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetEnabled fetches an enabled user by id.
func (r *Repository) GetEnabled(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND is_enabled`, id))
	return u, db.MapError(err)
}

// FindByPhone fetches a user by phone number regardless of status.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone))
	return u, db.MapError(err)
}

// Insert creates a user.
func (r *Repository) Insert(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (phone_number, first_name, last_name, role_id, permission_group_id,
                   is_super_admin, is_panel_user, is_enabled, recorder_id, record_date, hashed_password, token_version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING `+userColumns,
		u.PhoneNumber, u.FirstName, u.LastName, u.RoleID, u.PermissionGroupID,
		u.IsSuperAdmin, u.IsPanelUser, u.IsEnabled, u.RecorderID, u.RecordDate, u.PasswordHash, u.TokenVersion)
	created, err := scanUser(row)
	return created, db.MapError(err)
}

const updateUserSQL = `
UPDATE users
SET phone_number = $2, first_name = $3, last_name = $4, role_id = $5, permission_group_id = $6,
    is_super_admin = $7, is_panel_user = $8, is_enabled = $9, recorder_id = $10, record_date = $11,
    hashed_password = $12, token_version = $13
WHERE id = $1
RETURNING ` + userColumns

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func updateUser(ctx context.Context, q querier, u User) (User, error) {
	updated, err := scanUser(q.QueryRow(ctx, updateUserSQL,
		u.ID, u.PhoneNumber, u.FirstName, u.LastName, u.RoleID, u.PermissionGroupID,
		u.IsSuperAdmin, u.IsPanelUser, u.IsEnabled, u.RecorderID, u.RecordDate,
		u.PasswordHash, u.TokenVersion))
	return updated, db.MapError(err)
}

// Update stores every column of u.
func (r *Repository) Update(ctx context.Context, u User) (User, error) {
	return updateUser(ctx, r.pool, u)
}

// TakeOver disables fromID and writes u over the row u.ID atomically.
func (r *Repository) TakeOver(ctx context.Context, fromID int64, u User) (User, error) {
	var out User
	err := db.WithTx(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET is_enabled = FALSE, token_version = token_version + 1 WHERE id = $1`, fromID)
		if err != nil {
			return db.MapError(err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		out, err = updateUser(ctx, tx, u)
		return err
	})
	return out, err
}

// Disable soft-deletes the enabled user with id.
func (r *Repository) Disable(ctx context.Context, id int64, stamp shared.Stamp) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET is_enabled = FALSE, token_version = token_version + 1, recorder_id = $2, record_date = $3
WHERE id = $1 AND is_enabled`, id, stamp.RecorderRef(), stamp.RecordedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
