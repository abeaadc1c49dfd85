// Package notifications broadcasts event publications to every other account and serves
// each recipient's inbox.
package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/models"
)

// Pusher nudges connected clients to refetch. Best effort.
type Pusher interface {
	Nudge(ctx context.Context, accountIDs ...uuid.UUID) error
}

// Fanout writes one notification per recipient for an event.
type Fanout struct {
	recipients Recipients
	store      Store
	pusher     Pusher
	logger     *zap.Logger
	now        func() time.Time
}

// NewFanout creates a fan-out. pusher may be nil.
func NewFanout(recipients Recipients, store Store, pusher Pusher, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{recipients: recipients, store: store, pusher: pusher, logger: logger, now: time.Now}
}

// Build returns the notifications announcing e to recipients.
func Build(e models.Event, recipients []uuid.UUID, at time.Time) []models.Notification {
	typ, title, article := models.NotificationCommunityEvent, "New Community Event", "A community"
	if e.IsOfficial {
		typ, title, article = models.NotificationOfficialEvent, "New Official Event", "An official"
	}
	verb := "created"
	if e.ApprovalStatus == models.StatusApproved {
		verb = "approved"
	}
	content := article + " event has been " + verb + ": " + e.Title
	ref := e.ID
	out := make([]models.Notification, 0, len(recipients))
	for _, id := range recipients {
		out = append(out, models.Notification{
			ID:          uuid.New(),
			UserID:      id,
			Type:        typ,
			Title:       title,
			Content:     content,
			ReferenceID: &ref,
			CreatedAt:   at,
		})
	}
	return out
}

// Run notifies every account except the event's creator. The insert is all-or-nothing;
// push nudges afterwards are best effort. Returns the number of rows written.
func (f *Fanout) Run(ctx context.Context, e models.Event) (int, error) {
	ids, err := f.recipients.ListAccountIDsExcept(ctx, e.CreatedBy)
	if err != nil {
		return 0, err
	}
	batch := Build(e, ids, f.now())
	if err := f.store.InsertNotifications(ctx, batch); err != nil {
		return 0, err
	}
	f.logger.Info("notifications created",
		zap.String("event_id", e.ID.String()),
		zap.Int("count", len(batch)))
	if f.pusher != nil && len(ids) > 0 {
		if err := f.pusher.Nudge(ctx, ids...); err != nil {
			f.logger.Warn("push nudge failed", zap.Error(err), zap.String("event_id", e.ID.String()))
		}
	}
	return len(batch), nil
}
