package comments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/session"
	"github.com/gathering-hub/backend/internal/store/memstore"
)

type fixture struct {
	store  *memstore.Store
	svc    *Service
	a, b   session.Caller
	notice models.Parent
	event  models.Parent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	ua, err := st.CreateUser(ctx, "a@example.com", "hash", nil)
	require.NoError(t, err)
	ub, err := st.CreateUser(ctx, "b@example.com", "hash", nil)
	require.NoError(t, err)
	n := &models.Notice{Title: "Bins", Description: "Moved to Tuesday", CreatedBy: ua.ID}
	require.NoError(t, st.CreateNotice(ctx, n))
	e := &models.Event{Title: "Picnic", Date: time.Now(), Location: "Park", ApprovalStatus: models.StatusApproved,
		IsOfficial: true, CreatedBy: ua.ID}
	require.NoError(t, st.CreateEvent(ctx, e))
	return &fixture{
		store:  st,
		svc:    NewService(st, nil, nil),
		a:      session.Caller{ID: ua.ID},
		b:      session.Caller{ID: ub.ID},
		notice: models.Parent{Kind: models.ParentNotice, ID: n.ID},
		event:  models.Parent{Kind: models.ParentEvent, ID: e.ID},
	}
}

func TestReplyScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hello, err := f.svc.Add(ctx, f.a, f.notice, "Hello", nil)
	require.NoError(t, err)
	hi, err := f.svc.Add(ctx, f.b, f.notice, "Hi", &hello.ID)
	require.NoError(t, err)
	require.NotNil(t, hi.ParentCommentID)
	assert.Equal(t, hello.ID, *hi.ParentCommentID)

	threads, err := f.svc.Thread(ctx, f.a, f.notice)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "Hello", threads[0].Content)
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, "Hi", threads[0].Replies[0].Content)
	assert.Equal(t, hello.ID, *threads[0].Replies[0].ParentCommentID)
}

func TestReplyToReplyFlattensButKeepsLinkage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.svc.Add(ctx, f.a, f.event, "root", nil)
	require.NoError(t, err)
	r1, err := f.svc.Add(ctx, f.b, f.event, "r1", &root.ID)
	require.NoError(t, err)
	r2, err := f.svc.Add(ctx, f.a, f.event, "r2", &r1.ID)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.b, f.event, "second root", nil)
	require.NoError(t, err)

	threads, err := f.svc.Thread(ctx, f.a, f.event)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "root", threads[0].Content)
	assert.Equal(t, "second root", threads[1].Content)
	require.Len(t, threads[0].Replies, 2)
	assert.Equal(t, r1.ID, threads[0].Replies[0].ID)
	assert.Equal(t, r2.ID, threads[0].Replies[1].ID)
	assert.Equal(t, r1.ID, *threads[0].Replies[1].ParentCommentID)
	assert.Empty(t, threads[1].Replies)
}

func TestAddValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.a, f.notice, "   ", nil)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.Add(ctx, f.a, models.Parent{Kind: models.ParentNotice, ID: uuid.New()}, "hi", nil)
	assert.True(t, apperr.IsNotFound(err))

	missing := uuid.New()
	_, err = f.svc.Add(ctx, f.a, f.notice, "hi", &missing)
	assert.True(t, apperr.IsNotFound(err))

	onEvent, err := f.svc.Add(ctx, f.a, f.event, "on the event", nil)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.a, f.notice, "cross-parent reply", &onEvent.ID)
	assert.True(t, apperr.IsValidation(err))
}

func TestDeleteOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Add(ctx, f.a, f.notice, "mine", nil)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.b, f.notice, "reply", &c.ID)
	require.NoError(t, err)

	assert.True(t, apperr.IsAuthorization(f.svc.Delete(ctx, f.b, c.ID)))
	admin := session.Caller{ID: f.b.ID, IsAdmin: true}
	assert.True(t, apperr.IsAuthorization(f.svc.Delete(ctx, admin, c.ID)), "no admin override for comments")

	require.NoError(t, f.svc.Delete(ctx, f.a, c.ID))
	list, err := f.svc.List(ctx, f.notice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBuildThreadsDropsOrphans(t *testing.T) {
	rootID, ghost := uuid.New(), uuid.New()
	now := time.Now()
	list := []models.Comment{
		{ID: rootID, Content: "root", CreatedAt: now},
		{ID: uuid.New(), ParentCommentID: &ghost, Content: "orphan", CreatedAt: now.Add(time.Second)},
	}
	threads := BuildThreads(list)
	require.Len(t, threads, 1)
	assert.Empty(t, threads[0].Replies)
}

func TestThreadMissingParent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Thread(context.Background(), f.a, models.Parent{Kind: models.ParentNotice, ID: uuid.New()})
	assert.True(t, apperr.IsNotFound(err))
	_, err = f.svc.Thread(context.Background(), f.a, models.Parent{Kind: models.ParentEvent, ID: uuid.New()})
	assert.True(t, apperr.IsNotFound(err))
}

func TestParentCheckGatesAddAndThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(f.store, map[models.ParentKind]ParentCheck{
		models.ParentEvent: func(_ context.Context, caller session.Caller, _ uuid.UUID) error {
			if caller.ID != f.a.ID {
				return apperr.NotFound("event")
			}
			return nil
		},
	}, nil)

	_, err := svc.Add(ctx, f.b, f.event, "hidden", nil)
	assert.True(t, apperr.IsNotFound(err))
	_, err = svc.Thread(ctx, f.b, f.event)
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.Add(ctx, f.a, f.event, "visible", nil)
	require.NoError(t, err)
	threads, err := svc.Thread(ctx, f.a, f.event)
	require.NoError(t, err)
	assert.Len(t, threads, 1)

	_, err = svc.Add(ctx, f.b, f.notice, "notices only need to exist", nil)
	assert.NoError(t, err)
}
