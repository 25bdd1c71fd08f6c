package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/institute-erp/institute/internal/shared"
)

// Directory looks up users by login identifier.
type Directory interface {
	// FindActiveByLoginID returns the enabled user with loginID or shared.ErrNotFound.
	FindActiveByLoginID(ctx context.Context, loginID string) (*User, error)
}

// PGRepository implements Directory using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const findActiveUserSQL = `
SELECT id, phone_number, hashed_password, first_name, last_name, is_enabled,
       is_super_admin, permission_group_id, token_version, record_date
FROM users
WHERE phone_number = $1 AND is_enabled`

// FindActiveByLoginID fetches an enabled user by phone number.
func (r *PGRepository) FindActiveByLoginID(ctx context.Context, loginID string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, findActiveUserSQL, loginID).Scan(
		&user.ID,
		&user.LoginID,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.IsEnabled,
		&user.IsSuperAdmin,
		&user.PermissionGroupID,
		&user.TokenVersion,
		&user.RecordDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

var _ Directory = (*PGRepository)(nil)
