// Package comments implements flat and threaded comments on events and notices.
package comments

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/session"
	"github.com/gathering-hub/backend/pkg/utils"
)

// MaxContentLength bounds a single comment body.
const MaxContentLength = 5000

// ParentCheck returns an error when caller may not see the parent with id.
type ParentCheck func(ctx context.Context, caller session.Caller, id uuid.UUID) error

// Service implements comment operations.
type Service struct {
	store  Store
	checks map[models.ParentKind]ParentCheck
	logger *zap.Logger
}

// NewService creates a comment service. Parent kinds without a check in checks only need to exist.
func NewService(store Store, checks map[models.ParentKind]ParentCheck, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, checks: checks, logger: logger}
}

// visible reports NotFound for a parent that does not exist or that caller may not see.
func (s *Service) visible(ctx context.Context, caller session.Caller, parent models.Parent) error {
	if check, ok := s.checks[parent.Kind]; ok {
		return check(ctx, caller, parent.ID)
	}
	ok, err := s.store.CommentParentExists(ctx, parent)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(string(parent.Kind))
	}
	return nil
}

// Add posts a comment on parent. When parentCommentID is set the comment is a reply; the
// referenced comment must be on the same parent. The exact linkage is stored even though
// threads render one level deep.
func (s *Service) Add(ctx context.Context, caller session.Caller, parent models.Parent, content string, parentCommentID *uuid.UUID) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if err := utils.ValidateVar("content", content, "required,max="+strconv.Itoa(MaxContentLength)); err != nil {
		return nil, err
	}
	if err := s.visible(ctx, caller, parent); err != nil {
		return nil, err
	}
	if parentCommentID != nil {
		pc, err := s.store.GetComment(ctx, *parentCommentID)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.NotFound("parent comment")
			}
			return nil, err
		}
		if pc.Parent() != parent {
			return nil, apperr.Validation("parent comment belongs to a different %s", parent.Kind)
		}
	}
	c := &models.Comment{
		ParentKind:      parent.Kind,
		ParentID:        parent.ID,
		ParentCommentID: parentCommentID,
		Content:         content,
		CreatedBy:       caller.ID,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a comment and its replies. Only the author may delete; admins have no override.
func (s *Service) Delete(ctx context.Context, caller session.Caller, id uuid.UUID) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !caller.Owns(c.CreatedBy) {
		return apperr.Authorization("only the author can delete this comment")
	}
	return s.store.DeleteComment(ctx, id)
}

// List returns the comments on parent in creation order without threading.
func (s *Service) List(ctx context.Context, parent models.Parent) ([]models.Comment, error) {
	return s.store.ListComments(ctx, parent)
}

// Thread returns the root comments on parent in creation order, each with every descendant
// reply flattened beneath it.
func (s *Service) Thread(ctx context.Context, caller session.Caller, parent models.Parent) ([]models.CommentThread, error) {
	if err := s.visible(ctx, caller, parent); err != nil {
		return nil, err
	}
	list, err := s.store.ListComments(ctx, parent)
	if err != nil {
		return nil, err
	}
	return BuildThreads(list), nil
}

// BuildThreads groups comments (in creation order) into one-level threads. A reply to a reply
// is placed under the root of its chain. Replies whose chain does not reach a root in list are dropped.
func BuildThreads(list []models.Comment) []models.CommentThread {
	byID := make(map[uuid.UUID]*models.Comment, len(list))
	for i := range list {
		byID[list[i].ID] = &list[i]
	}
	roots := make(map[uuid.UUID]int)
	threads := []models.CommentThread{}
	for _, c := range list {
		if c.IsRoot() {
			roots[c.ID] = len(threads)
			threads = append(threads, models.CommentThread{Comment: c, Replies: []models.Comment{}})
		}
	}
	for _, c := range list {
		if c.IsRoot() {
			continue
		}
		root, ok := rootOf(&c, byID)
		if !ok {
			continue
		}
		idx := roots[root]
		threads[idx].Replies = append(threads[idx].Replies, c)
	}
	return threads
}

func rootOf(c *models.Comment, byID map[uuid.UUID]*models.Comment) (uuid.UUID, bool) {
	seen := make(map[uuid.UUID]bool)
	for cur := c; ; {
		if cur.IsRoot() {
			return cur.ID, true
		}
		if seen[cur.ID] {
			return uuid.Nil, false
		}
		seen[cur.ID] = true
		next, ok := byID[*cur.ParentCommentID]
		if !ok {
			return uuid.Nil, false
		}
		cur = next
	}
}
