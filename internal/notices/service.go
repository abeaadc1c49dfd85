// Package notices implements the community bulletin board.
package notices

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/session"
	"github.com/gathering-hub/backend/pkg/utils"
)

// Threads loads the comment threads attached to a notice.
type Threads interface {
	Thread(ctx context.Context, caller session.Caller, parent models.Parent) ([]models.CommentThread, error)
}

// Directory resolves author display names.
type Directory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service implements notice operations.
type Service struct {
	store   Store
	threads Threads
	users   Directory
	logger  *zap.Logger
}

// NewService creates a notice service.
func NewService(store Store, threads Threads, users Directory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, threads: threads, users: users, logger: logger}
}

// Create posts a notice on behalf of caller.
func (s *Service) Create(ctx context.Context, caller session.Caller, draft models.NoticeDraft) (*models.Notice, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	if err := utils.Validate(draft); err != nil {
		return nil, err
	}
	n := &models.Notice{Title: draft.Title, Description: draft.Description, CreatedBy: caller.ID}
	if err := s.store.CreateNotice(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns notices pinned first, then newest first.
func (s *Service) List(ctx context.Context) ([]models.Notice, error) {
	return s.store.ListNotices(ctx)
}

// Get returns a notice with its comment threads.
func (s *Service) Get(ctx context.Context, caller session.Caller, id uuid.UUID) (*models.NoticeDetail, error) {
	n, err := s.store.GetNotice(ctx, id)
	if err != nil {
		return nil, err
	}
	threads, err := s.threads.Thread(ctx, caller, models.Parent{Kind: models.ParentNotice, ID: id})
	if err != nil {
		return nil, err
	}
	d := &models.NoticeDetail{Notice: *n, Comments: threads, CreatorName: "Anonymous"}
	if u, err := s.users.GetUserByID(ctx, n.CreatedBy); err == nil {
		d.CreatorName = u.DisplayName()
	} else if !apperr.IsNotFound(err) {
		s.logger.Warn("resolve notice author failed", zap.Error(err), zap.String("notice_id", id.String()))
	}
	return d, nil
}

// TogglePin flips the pinned flag. Admin only.
func (s *Service) TogglePin(ctx context.Context, caller session.Caller, id uuid.UUID) (*models.Notice, error) {
	if !caller.IsAdmin {
		return nil, apperr.Authorization("only admins can pin notices")
	}
	return s.store.ToggleNoticePin(ctx, id)
}

// Delete removes a notice and its comments. Owner only.
func (s *Service) Delete(ctx context.Context, caller session.Caller, id uuid.UUID) error {
	n, err := s.store.GetNotice(ctx, id)
	if err != nil {
		return err
	}
	if !caller.Owns(n.CreatedBy) {
		return apperr.Authorization("only the author can delete this notice")
	}
	return s.store.DeleteNotice(ctx, id)
}
