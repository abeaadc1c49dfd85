package notices

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/database"
)

// Store is the notice persistence the service needs.
type Store interface {
	CreateNotice(ctx context.Context, n *models.Notice) error
	GetNotice(ctx context.Context, id uuid.UUID) (*models.Notice, error)
	// ListNotices returns pinned notices first, then newest first.
	ListNotices(ctx context.Context) ([]models.Notice, error)
	ToggleNoticePin(ctx context.Context, id uuid.UUID) (*models.Notice, error)
	DeleteNotice(ctx context.Context, id uuid.UUID) error
}

// Repository handles notice persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notice repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const noticeColumns = `id, title, description, created_by, is_pinned, created_at, updated_at`

func scanNotice(row pgx.Row) (*models.Notice, error) {
	var n models.Notice
	if err := row.Scan(&n.ID, &n.Title, &n.Description, &n.CreatedBy, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNotice inserts n and fills its generated fields.
func (r *Repository) CreateNotice(ctx context.Context, n *models.Notice) error {
	const q = `INSERT INTO notices (title, description, created_by) VALUES ($1, $2, $3)
		RETURNING id, is_pinned, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, n.Title, n.Description, n.CreatedBy).Scan(&n.ID, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return apperr.Backend("create notice", err)
	}
	return nil
}

// GetNotice returns a notice by ID.
func (r *Repository) GetNotice(ctx context.Context, id uuid.UUID) (*models.Notice, error) {
	n, err := scanNotice(r.pool.QueryRow(ctx, `SELECT `+noticeColumns+` FROM notices WHERE id = $1`, id))
	if err != nil {
		return nil, database.MapErr(err, "get notice", "notice")
	}
	return n, nil
}

// ListNotices returns the bulletin board in display order.
func (r *Repository) ListNotices(ctx context.Context) ([]models.Notice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+noticeColumns+` FROM notices ORDER BY is_pinned DESC, created_at DESC`)
	if err != nil {
		return nil, apperr.Backend("list notices", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Notice])
	if err != nil {
		return nil, apperr.Backend("list notices", err)
	}
	if list == nil {
		list = []models.Notice{}
	}
	return list, nil
}

// ToggleNoticePin flips the pinned flag in place.
func (r *Repository) ToggleNoticePin(ctx context.Context, id uuid.UUID) (*models.Notice, error) {
	q := `UPDATE notices SET is_pinned = NOT is_pinned, updated_at = NOW() WHERE id = $1 RETURNING ` + noticeColumns
	n, err := scanNotice(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, database.MapErr(err, "toggle pin", "notice")
	}
	return n, nil
}

// DeleteNotice removes a notice; its comments cascade.
func (r *Repository) DeleteNotice(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return apperr.Backend("delete notice", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notice")
	}
	return nil
}
