package notifications

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/session"
	"github.com/gathering-hub/backend/internal/store/memstore"
)

type recordingPusher struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (p *recordingPusher) Nudge(_ context.Context, ids ...uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, ids...)
	return p.err
}

func seedUsers(t *testing.T, st *memstore.Store, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		u, err := st.CreateUser(context.Background(), uuid.NewString()+"@example.com", "hash", nil)
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	return ids
}

func TestBuildMessages(t *testing.T) {
	e := models.Event{ID: uuid.New(), Title: "Picnic", IsOfficial: true, ApprovalStatus: models.StatusApproved}
	to := []uuid.UUID{uuid.New(), uuid.New()}
	at := time.Now()

	got := Build(e, to, at)
	require.Len(t, got, 2)
	assert.Equal(t, models.NotificationOfficialEvent, got[0].Type)
	assert.Equal(t, "New Official Event", got[0].Title)
	assert.Equal(t, "An official event has been approved: Picnic", got[0].Content)
	assert.Equal(t, e.ID, *got[0].ReferenceID)
	assert.False(t, got[0].IsRead)
	assert.Equal(t, to[1], got[1].UserID)

	e.IsOfficial, e.ApprovalStatus = false, models.StatusPending
	got = Build(e, to[:1], at)
	assert.Equal(t, models.NotificationCommunityEvent, got[0].Type)
	assert.Equal(t, "New Community Event", got[0].Title)
	assert.Equal(t, "A community event has been created: Picnic", got[0].Content)
}

func TestFanoutExcludesCreator(t *testing.T) {
	st := memstore.New()
	ids := seedUsers(t, st, 5)
	pusher := &recordingPusher{}
	f := NewFanout(st, st, pusher, nil)
	e := models.Event{ID: uuid.New(), Title: "Picnic", CreatedBy: ids[0], ApprovalStatus: models.StatusPending}

	n, err := f.Run(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, st.NotificationCount())
	creatorInbox, err := st.ListNotifications(context.Background(), ids[0], 10)
	require.NoError(t, err)
	assert.Empty(t, creatorInbox)
	assert.ElementsMatch(t, ids[1:], pusher.ids)
}

func TestFanoutPushFailureIsSoft(t *testing.T) {
	st := memstore.New()
	ids := seedUsers(t, st, 2)
	f := NewFanout(st, st, &recordingPusher{err: errors.New("redis down")}, nil)

	n, err := f.Run(context.Background(), models.Event{ID: uuid.New(), CreatedBy: ids[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type failingStore struct {
	*memstore.Store
}

func (failingStore) InsertNotifications(context.Context, []models.Notification) error {
	return apperr.Backend("insert notifications", errors.New("connection reset"))
}

func TestFanoutInsertFailure(t *testing.T) {
	st := memstore.New()
	ids := seedUsers(t, st, 3)
	pusher := &recordingPusher{}
	f := NewFanout(st, failingStore{st}, pusher, nil)

	_, err := f.Run(context.Background(), models.Event{ID: uuid.New(), CreatedBy: ids[0]})
	assert.True(t, apperr.IsBackend(err))
	assert.Zero(t, st.NotificationCount())
	assert.Empty(t, pusher.ids, "no nudge without rows")
}

func TestDirectNotifierRunsInBackground(t *testing.T) {
	st := memstore.New()
	ids := seedUsers(t, st, 3)
	n := NewDirectNotifier(NewFanout(st, st, nil, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.EventPublished(ctx, models.Event{ID: uuid.New(), CreatedBy: ids[0]}))
	cancel()
	n.Wait()
	assert.Equal(t, 2, st.NotificationCount(), "fan-out outlives the request context")
}

type enqueueRecorder struct{ events []models.Event }

func (r *enqueueRecorder) EnqueueNotifyEvent(_ context.Context, e models.Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestQueueNotifier(t *testing.T) {
	rec := &enqueueRecorder{}
	e := models.Event{ID: uuid.New()}
	require.NoError(t, NewQueueNotifier(rec).EventPublished(context.Background(), e))
	require.Len(t, rec.events, 1)
	assert.Equal(t, e.ID, rec.events[0].ID)
}

func TestServiceReadState(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	ids := seedUsers(t, st, 2)
	me, other := session.Caller{ID: ids[0]}, session.Caller{ID: ids[1]}
	pusher := &recordingPusher{}
	svc := NewService(st, pusher, 0, nil)

	base := time.Now()
	var batch []models.Notification
	for i := 0; i < 12; i++ {
		batch = append(batch, models.Notification{ID: uuid.New(), UserID: me.ID, Type: models.NotificationCommunityEvent,
			Title: "t", Content: "c", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	require.NoError(t, st.InsertNotifications(ctx, batch))

	recent, err := svc.Recent(ctx, me)
	require.NoError(t, err)
	require.Len(t, recent, DefaultRecentLimit)
	assert.Equal(t, batch[11].ID, recent[0].ID, "newest first")

	unread, err := svc.UnreadCount(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 12, unread)

	target := recent[0].ID
	assert.True(t, apperr.IsNotFound(svc.MarkRead(ctx, other, target)), "recipient scoped")
	require.NoError(t, svc.MarkRead(ctx, me, target))
	require.NoError(t, svc.MarkRead(ctx, me, target))
	unread, _ = svc.UnreadCount(ctx, me)
	assert.Equal(t, 11, unread)
	assert.Contains(t, pusher.ids, me.ID)

	require.NoError(t, svc.Delete(ctx, me, target))
	assert.True(t, apperr.IsNotFound(svc.Delete(ctx, me, target)))

	n, err := svc.MarkAllRead(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	n, err = svc.MarkAllRead(ctx, me)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandlerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	st := memstore.New()
	ids := seedUsers(t, st, 1)
	caller := session.Caller{ID: ids[0]}
	note := models.Notification{ID: uuid.New(), UserID: caller.ID, Type: models.NotificationOfficialEvent, Title: "t", Content: "c"}
	require.NoError(t, st.InsertNotifications(ctx, []models.Notification{note}))

	r := gin.New()
	g := r.Group("/notifications", func(c *gin.Context) {
		c.Request = c.Request.WithContext(session.With(c.Request.Context(), caller))
		c.Next()
	})
	NewHandler(NewService(st, nil, 10, nil), nil).Register(g)

	do := func(method, path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w.Code
	}
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/notifications"))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/notifications/unread-count"))
	assert.Equal(t, http.StatusOK, do(http.MethodPatch, "/notifications/"+note.ID.String()+"/read"))
	assert.Equal(t, http.StatusNotFound, do(http.MethodPatch, "/notifications/"+uuid.NewString()+"/read"))
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/notifications/read-all"))
	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/notifications/"+note.ID.String()))
	assert.Equal(t, http.StatusBadRequest, do(http.MethodDelete, "/notifications/xyz"))
}
