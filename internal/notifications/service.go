package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/session"
)

// DefaultRecentLimit caps the inbox to the newest notifications.
const DefaultRecentLimit = 10

// Service serves a recipient's notifications.
type Service struct {
	store  Store
	pusher Pusher
	limit  int
	logger *zap.Logger
}

// NewService creates a notification service. limit <= 0 means DefaultRecentLimit; pusher may be nil.
func NewService(store Store, pusher Pusher, limit int, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, pusher: pusher, limit: limit, logger: logger}
}

// Recent returns the caller's newest notifications, newest first.
func (s *Service) Recent(ctx context.Context, caller session.Caller) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, caller.ID, s.limit)
}

// UnreadCount returns how many of the caller's notifications are unread.
func (s *Service) UnreadCount(ctx context.Context, caller session.Caller) (int, error) {
	return s.store.CountUnreadNotifications(ctx, caller.ID)
}

// MarkRead marks one of the caller's notifications read. Idempotent.
func (s *Service) MarkRead(ctx context.Context, caller session.Caller, id uuid.UUID) error {
	if err := s.store.MarkNotificationRead(ctx, id, caller.ID); err != nil {
		return err
	}
	s.nudge(ctx, caller.ID)
	return nil
}

// MarkAllRead marks every notification of the caller read.
func (s *Service) MarkAllRead(ctx context.Context, caller session.Caller) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, caller.ID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.nudge(ctx, caller.ID)
	}
	return n, nil
}

// Delete removes one of the caller's notifications.
func (s *Service) Delete(ctx context.Context, caller session.Caller, id uuid.UUID) error {
	if err := s.store.DeleteNotification(ctx, id, caller.ID); err != nil {
		return err
	}
	s.nudge(ctx, caller.ID)
	return nil
}

// nudge keeps the caller's other sessions in step.
func (s *Service) nudge(ctx context.Context, id uuid.UUID) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Nudge(ctx, id); err != nil {
		s.logger.Warn("push nudge failed", zap.Error(err), zap.String("user_id", id.String()))
	}
}
