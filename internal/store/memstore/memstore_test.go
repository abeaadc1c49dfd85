package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/auth"
	"github.com/gathering-hub/backend/internal/comments"
	"github.com/gathering-hub/backend/internal/events"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/notices"
	"github.com/gathering-hub/backend/internal/notifications"
	"github.com/gathering-hub/backend/internal/store/memstore"
)

var (
	_ auth.Store               = (*memstore.Store)(nil)
	_ events.Store             = (*memstore.Store)(nil)
	_ notices.Store            = (*memstore.Store)(nil)
	_ comments.Store           = (*memstore.Store)(nil)
	_ notifications.Store      = (*memstore.Store)(nil)
	_ notifications.Recipients = (*memstore.Store)(nil)
)

func newUser(t *testing.T, s *memstore.Store, email string) uuid.UUID {
	t.Helper()
	u, err := s.CreateUser(context.Background(), email, "hash", nil)
	require.NoError(t, err)
	return u.ID
}

func newEvent(t *testing.T, s *memstore.Store, owner uuid.UUID, max *int) *models.Event {
	t.Helper()
	e := &models.Event{Title: "Picnic", Date: time.Now().Add(24 * time.Hour), Location: "Park",
		MaxAttendees: max, ApprovalStatus: models.StatusPending, CreatedBy: owner}
	require.NoError(t, s.CreateEvent(context.Background(), e))
	return e
}

func TestDuplicateEmail(t *testing.T) {
	s := memstore.New()
	newUser(t, s, "a@example.com")
	_, err := s.CreateUser(context.Background(), "A@example.com", "hash", nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestAdminRole(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	id := newUser(t, s, "a@example.com")
	require.NoError(t, s.SetAdmin(ctx, id, true))
	u, err := s.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	require.NoError(t, s.SetAdmin(ctx, id, false))
	ok, _ := s.IsAdmin(ctx, id)
	assert.False(t, ok)
	assert.True(t, apperr.IsNotFound(s.SetAdmin(ctx, uuid.New(), true)))
}

func TestDeleteEventCascades(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := newUser(t, s, "o@example.com")
	other := newUser(t, s, "x@example.com")
	e := newEvent(t, s, owner, nil)
	keep := newEvent(t, s, owner, nil)

	require.NoError(t, s.AddAttendee(ctx, e.ID, other))
	root := &models.Comment{ParentKind: models.ParentEvent, ParentID: e.ID, Content: "Hello", CreatedBy: owner}
	require.NoError(t, s.CreateComment(ctx, root))
	reply := &models.Comment{ParentKind: models.ParentEvent, ParentID: e.ID, ParentCommentID: &root.ID, Content: "Hi", CreatedBy: other}
	require.NoError(t, s.CreateComment(ctx, reply))
	require.NoError(t, s.CreateComment(ctx, &models.Comment{ParentKind: models.ParentEvent, ParentID: keep.ID, Content: "Stay", CreatedBy: owner}))

	require.NoError(t, s.DeleteEvent(ctx, e.ID))
	n, _ := s.CountAttendees(ctx, e.ID)
	assert.Zero(t, n)
	_, err := s.GetComment(ctx, reply.ID)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, 1, s.CommentCount())
	assert.True(t, apperr.IsNotFound(s.DeleteEvent(ctx, e.ID)))
}

func TestDeleteCommentRemovesReplies(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := newUser(t, s, "o@example.com")
	n := &models.Notice{Title: "t", Description: "d", CreatedBy: owner}
	require.NoError(t, s.CreateNotice(ctx, n))
	root := &models.Comment{ParentKind: models.ParentNotice, ParentID: n.ID, Content: "a", CreatedBy: owner}
	require.NoError(t, s.CreateComment(ctx, root))
	child := &models.Comment{ParentKind: models.ParentNotice, ParentID: n.ID, ParentCommentID: &root.ID, Content: "b", CreatedBy: owner}
	require.NoError(t, s.CreateComment(ctx, child))
	grandchild := &models.Comment{ParentKind: models.ParentNotice, ParentID: n.ID, ParentCommentID: &child.ID, Content: "c", CreatedBy: owner}
	require.NoError(t, s.CreateComment(ctx, grandchild))

	require.NoError(t, s.DeleteComment(ctx, root.ID))
	assert.Zero(t, s.CommentCount())
}

func TestAttendeeUpsertAndCapacity(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := newUser(t, s, "o@example.com")
	a := newUser(t, s, "a@example.com")
	b := newUser(t, s, "b@example.com")
	one := 1
	e := newEvent(t, s, owner, &one)

	require.NoError(t, s.AddAttendee(ctx, e.ID, a))
	require.NoError(t, s.AddAttendee(ctx, e.ID, a))
	n, _ := s.CountAttendees(ctx, e.ID)
	assert.Equal(t, 1, n)

	assert.NoError(t, s.AddAttendeeWithinCapacity(ctx, e.ID, a), "existing attendee is a no-op")
	assert.True(t, apperr.IsCapacity(s.AddAttendeeWithinCapacity(ctx, e.ID, b)))
}

func TestTransitionEvent(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := newUser(t, s, "o@example.com")
	e := newEvent(t, s, owner, nil)

	got, err := s.TransitionEvent(ctx, e.ID, models.StatusPending, models.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.ApprovalStatus)

	_, err = s.TransitionEvent(ctx, e.ID, models.StatusPending, models.StatusApproved)
	assert.True(t, apperr.IsValidation(err))
	_, err = s.TransitionEvent(ctx, uuid.New(), models.StatusPending, models.StatusApproved)
	assert.True(t, apperr.IsNotFound(err))
}

func TestNotificationsScopedToRecipient(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	a := newUser(t, s, "a@example.com")
	b := newUser(t, s, "b@example.com")
	require.NoError(t, s.InsertNotifications(ctx, []models.Notification{{UserID: a, Type: "t", Title: "x", Content: "y"}}))
	list, err := s.ListNotifications(ctx, a, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.True(t, apperr.IsNotFound(s.MarkNotificationRead(ctx, list[0].ID, b)))
	assert.True(t, apperr.IsNotFound(s.DeleteNotification(ctx, list[0].ID, b)))
	require.NoError(t, s.MarkNotificationRead(ctx, list[0].ID, a))
	require.NoError(t, s.MarkNotificationRead(ctx, list[0].ID, a))
	n, _ := s.CountUnreadNotifications(ctx, a)
	assert.Zero(t, n)
}

func TestInsertNotificationsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	a := newUser(t, s, "a@example.com")
	err := s.InsertNotifications(ctx, []models.Notification{{UserID: a}, {UserID: uuid.New()}})
	assert.True(t, apperr.IsBackend(err))
	assert.Zero(t, s.NotificationCount())
}
