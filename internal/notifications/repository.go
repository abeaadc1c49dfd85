package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/database"
)

// Store is the notification persistence. Every read and mutation is scoped to the recipient.
type Store interface {
	// InsertNotifications writes the whole batch or nothing.
	InsertNotifications(ctx context.Context, batch []models.Notification) error
	// ListNotifications returns the newest limit notifications of userID.
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)
	// MarkNotificationRead sets is_read; it never clears it.
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteNotification(ctx context.Context, id, userID uuid.UUID) error
}

// Recipients enumerates fan-out targets.
type Recipients interface {
	ListAccountIDsExcept(ctx context.Context, exclude uuid.UUID) ([]uuid.UUID, error)
}

// Repository handles notification persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notification repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var copyColumns = []string{"id", "user_id", "type", "title", "content", "reference_id", "is_read", "created_at"}

// InsertNotifications copies the batch inside one transaction.
func (r *Repository) InsertNotifications(ctx context.Context, batch []models.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	now := time.Now()
	for i := range batch {
		if batch[i].ID == uuid.Nil {
			batch[i].ID = uuid.New()
		}
		if batch[i].CreatedAt.IsZero() {
			batch[i].CreatedAt = now
		}
	}
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"notifications"}, copyColumns,
			pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
				n := batch[i]
				return []any{n.ID, n.UserID, n.Type, n.Title, n.Content, n.ReferenceID, n.IsRead, n.CreatedAt}, nil
			}))
		return err
	})
	if err != nil {
		return apperr.Backend("insert notifications", err)
	}
	return nil
}

// ListNotifications returns the recipient's newest notifications.
func (r *Repository) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	const q = `SELECT id, user_id, type, title, content, reference_id, is_read, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, apperr.Backend("list notifications", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Notification])
	if err != nil {
		return nil, apperr.Backend("list notifications", err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// CountUnreadNotifications counts the recipient's unread rows.
func (r *Repository) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	const q = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, apperr.Backend("count unread", err)
	}
	return n, nil
}

// MarkNotificationRead is idempotent: marking an already-read row succeeds.
func (r *Repository) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperr.Backend("mark read", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}

// MarkAllNotificationsRead marks every unread row of the recipient and returns how many changed.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, apperr.Backend("mark all read", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteNotification removes one of the recipient's rows.
func (r *Repository) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperr.Backend("delete notification", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}
