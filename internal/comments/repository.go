package comments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/database"
)

// Store is the comment persistence the service needs.
type Store interface {
	// CommentParentExists reports whether the event or notice a comment would attach to exists.
	CommentParentExists(ctx context.Context, parent models.Parent) (bool, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	// ListComments returns every comment on parent in creation order.
	ListComments(ctx context.Context, parent models.Parent) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

// Repository handles comment persistence in PostgreSQL. Event and notice comments share
// one table; exactly one of event_id and notice_id is set.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a comment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func parentColumn(kind models.ParentKind) (string, error) {
	switch kind {
	case models.ParentEvent:
		return "event_id", nil
	case models.ParentNotice:
		return "notice_id", nil
	}
	return "", apperr.Validation("unknown comment parent %q", kind)
}

const commentColumns = `id, event_id, notice_id, parent_comment_id, content, created_by, created_at, updated_at`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	var eventID, noticeID *uuid.UUID
	if err := row.Scan(&c.ID, &eventID, &noticeID, &c.ParentCommentID, &c.Content, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if eventID != nil {
		c.ParentKind, c.ParentID = models.ParentEvent, *eventID
	} else if noticeID != nil {
		c.ParentKind, c.ParentID = models.ParentNotice, *noticeID
	}
	return &c, nil
}

// CommentParentExists checks the events or notices table.
func (r *Repository) CommentParentExists(ctx context.Context, parent models.Parent) (bool, error) {
	var table string
	switch parent.Kind {
	case models.ParentEvent:
		table = "events"
	case models.ParentNotice:
		table = "notices"
	default:
		return false, apperr.Validation("unknown comment parent %q", parent.Kind)
	}
	var ok bool
	q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := r.pool.QueryRow(ctx, q, parent.ID).Scan(&ok); err != nil {
		return false, apperr.Backend("check comment parent", err)
	}
	return ok, nil
}

// CreateComment inserts c and fills its generated fields.
func (r *Repository) CreateComment(ctx context.Context, c *models.Comment) error {
	var eventID, noticeID *uuid.UUID
	switch c.ParentKind {
	case models.ParentEvent:
		eventID = &c.ParentID
	case models.ParentNotice:
		noticeID = &c.ParentID
	default:
		return apperr.Validation("unknown comment parent %q", c.ParentKind)
	}
	const q = `INSERT INTO comments (event_id, notice_id, parent_comment_id, content, created_by)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, eventID, noticeID, c.ParentCommentID, c.Content, c.CreatedBy).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return apperr.Backend("create comment", err)
	}
	return nil
}

// GetComment returns a comment by ID.
func (r *Repository) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		return nil, database.MapErr(err, "get comment", "comment")
	}
	return c, nil
}

// ListComments returns the comments on parent, oldest first.
func (r *Repository) ListComments(ctx context.Context, parent models.Parent) ([]models.Comment, error) {
	col, err := parentColumn(parent.Kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+commentColumns+` FROM comments WHERE `+col+` = $1 ORDER BY created_at, id`, parent.ID)
	if err != nil {
		return nil, apperr.Backend("list comments", err)
	}
	defer rows.Close()
	list := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, apperr.Backend("scan comment", err)
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Backend("list comments", err)
	}
	return list, nil
}

// DeleteComment removes a comment; replies referencing it cascade.
func (r *Repository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return apperr.Backend("delete comment", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("comment")
	}
	return nil
}
