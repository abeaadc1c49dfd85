package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
)

// InsertNotifications writes the whole batch or nothing.
func (s *Store) InsertNotifications(_ context.Context, batch []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range batch {
		if _, ok := s.users[n.UserID]; !ok {
			return apperr.Backend("insert notifications", errForeignKey("notifications.user_id"))
		}
	}
	for _, n := range batch {
		cp := n
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = s.now()
		}
		s.notifications[cp.ID] = &cp
	}
	return nil
}

// ListNotifications returns the recipient's newest notifications.
func (s *Store) ListNotifications(_ context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []models.Notification{}
	for _, n := range s.notifications {
		if n.UserID == userID {
			list = append(list, *n)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID.String() < list[j].ID.String()
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// CountUnreadNotifications counts the recipient's unread rows.
func (s *Store) CountUnreadNotifications(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, x := range s.notifications {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

// MarkNotificationRead sets the read flag of one of the recipient's rows.
func (s *Store) MarkNotificationRead(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return apperr.NotFound("notification")
	}
	n.IsRead = true
	return nil
}

// MarkAllNotificationsRead marks all of the recipient's rows read.
func (s *Store) MarkAllNotificationsRead(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

// DeleteNotification removes one of the recipient's rows.
func (s *Store) DeleteNotification(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return apperr.NotFound("notification")
	}
	delete(s.notifications, id)
	return nil
}

// NotificationCount returns the number of stored notifications across all recipients.
func (s *Store) NotificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}
