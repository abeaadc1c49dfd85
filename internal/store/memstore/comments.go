package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
)

func copyComment(c *models.Comment) *models.Comment {
	cp := *c
	if c.ParentCommentID != nil {
		id := *c.ParentCommentID
		cp.ParentCommentID = &id
	}
	return &cp
}

func (s *Store) parentExistsLocked(p models.Parent) bool {
	switch p.Kind {
	case models.ParentEvent:
		_, ok := s.events[p.ID]
		return ok
	case models.ParentNotice:
		_, ok := s.notices[p.ID]
		return ok
	}
	return false
}

// CommentParentExists reports whether the event or notice exists.
func (s *Store) CommentParentExists(_ context.Context, p models.Parent) (bool, error) {
	if p.Kind != models.ParentEvent && p.Kind != models.ParentNotice {
		return false, apperr.Validation("unknown comment parent %q", p.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parentExistsLocked(p), nil
}

// CreateComment inserts c and fills its generated fields.
func (s *Store) CreateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.parentExistsLocked(c.Parent()) {
		return apperr.Backend("create comment", errForeignKey("comments."+string(c.ParentKind)+"_id"))
	}
	if c.ParentCommentID != nil {
		if _, ok := s.comments[*c.ParentCommentID]; !ok {
			return apperr.Backend("create comment", errForeignKey("comments.parent_comment_id"))
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.comments[c.ID] = copyComment(c)
	return nil
}

// GetComment returns a comment by ID.
func (s *Store) GetComment(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, apperr.NotFound("comment")
	}
	return copyComment(c), nil
}

// ListComments returns the comments on a parent, oldest first.
func (s *Store) ListComments(_ context.Context, p models.Parent) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []models.Comment{}
	for _, c := range s.comments {
		if c.Parent() == p {
			list = append(list, *copyComment(c))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// DeleteComment removes a comment and, transitively, its replies.
func (s *Store) DeleteComment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return apperr.NotFound("comment")
	}
	s.deleteCommentTree(id)
	return nil
}

func (s *Store) deleteCommentTree(id uuid.UUID) {
	delete(s.comments, id)
	for cid, c := range s.comments {
		if c.ParentCommentID != nil && *c.ParentCommentID == id {
			s.deleteCommentTree(cid)
		}
	}
}

func (s *Store) deleteCommentsOf(p models.Parent) {
	for id, c := range s.comments {
		if c.Parent() == p {
			delete(s.comments, id)
		}
	}
}

// CommentCount returns the number of stored comments.
func (s *Store) CommentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}
