package logins

import (
	"context"
	"time"

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

const entryColumns = `id, user_id, login_date, remote_addr, user_agent, record_date`

// Insert appends a login entry.
func (r *Repository) Insert(ctx context.Context, e Entry) (Entry, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO logins (user_id, login_date, remote_addr, user_agent, record_date)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+entryColumns, e.UserID, e.LoginDate, e.RemoteAddr, e.UserAgent, e.RecordDate)
	var out Entry
	err := row.Scan(&out.ID, &out.UserID, &out.LoginDate, &out.RemoteAddr, &out.UserAgent, &out.RecordDate)
	return out, db.MapError(err)
}

// List returns entries matching filter.
func (r *Repository) List(ctx context.Context, filter Filter, page shared.Page) ([]Entry, error) {
	var from, to *time.Time
	if !filter.From.IsZero() {
		from = &filter.From
	}
	if !filter.To.IsZero() {
		to = &filter.To
	}
	rows, err := r.pool.Query(ctx, `
SELECT `+entryColumns+` FROM logins
WHERE ($1::timestamptz IS NULL OR login_date >= $1)
  AND ($2::timestamptz IS NULL OR login_date <= $2)
  AND ($3 = 0 OR user_id = $3)
ORDER BY login_date DESC, id DESC
LIMIT $4 OFFSET $5`, from, to, filter.UserID, page.Size, page.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Entry])
}

// DeleteBefore removes entries whose login_date is before cutoff.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM logins WHERE login_date < $1`, cutoff)
	if err != nil {
		return 0, db.MapError(err)
	}
	return tag.RowsAffected(), nil
}

var _ RepositoryPort = (*Repository)(nil)
