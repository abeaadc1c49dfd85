package memstore

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
)

func errForeignKey(col string) error { return errors.New("foreign key violation on " + col) }
func errCheck(msg string) error      { return errors.New("check constraint violation: " + msg) }

// CreateNotice inserts n and fills its generated fields.
func (s *Store) CreateNotice(_ context.Context, n *models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[n.CreatedBy]; !ok {
		return apperr.Backend("create notice", errForeignKey("notices.created_by"))
	}
	n.ID = uuid.New()
	n.IsPinned = false
	n.CreatedAt = s.now()
	n.UpdatedAt = n.CreatedAt
	cp := *n
	s.notices[n.ID] = &cp
	return nil
}

// GetNotice returns a notice by ID.
func (s *Store) GetNotice(_ context.Context, id uuid.UUID) (*models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[id]
	if !ok {
		return nil, apperr.NotFound("notice")
	}
	cp := *n
	return &cp, nil
}

// ListNotices returns pinned notices first, then newest first.
func (s *Store) ListNotices(_ context.Context) ([]models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]models.Notice, 0, len(s.notices))
	for _, n := range s.notices {
		list = append(list, *n)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].IsPinned != list[j].IsPinned {
			return list[i].IsPinned
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// ToggleNoticePin flips the pinned flag.
func (s *Store) ToggleNoticePin(_ context.Context, id uuid.UUID) (*models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[id]
	if !ok {
		return nil, apperr.NotFound("notice")
	}
	n.IsPinned = !n.IsPinned
	n.UpdatedAt = s.now()
	cp := *n
	return &cp, nil
}

// DeleteNotice removes a notice and its comments.
func (s *Store) DeleteNotice(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notices[id]; !ok {
		return apperr.NotFound("notice")
	}
	delete(s.notices, id)
	s.deleteCommentsOf(models.Parent{Kind: models.ParentNotice, ID: id})
	return nil
}
