package notices

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/comments"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/session"
	"github.com/gathering-hub/backend/internal/store/memstore"
)

type fixture struct {
	store    *memstore.Store
	svc      *Service
	comments *comments.Service
	admin    session.Caller
	member   session.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	name := "Grace"
	a, err := st.CreateUser(ctx, "admin@example.com", "hash", nil)
	require.NoError(t, err)
	m, err := st.CreateUser(ctx, "m@example.com", "hash", &name)
	require.NoError(t, err)
	cs := comments.NewService(st, nil, nil)
	return &fixture{
		store:    st,
		svc:      NewService(st, cs, st, nil),
		comments: cs,
		admin:    session.Caller{ID: a.ID, IsAdmin: true},
		member:   session.Caller{ID: m.ID},
	}
}

func post(t *testing.T, f *fixture, c session.Caller, title string) *models.Notice {
	t.Helper()
	n, err := f.svc.Create(context.Background(), c, models.NoticeDraft{Title: title, Description: "details"})
	require.NoError(t, err)
	return n
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.member, models.NoticeDraft{Title: "only title"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "description is required", err.Error())
}

func TestListPinnedFirstThenNewest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := post(t, f, f.member, "old")
	post(t, f, f.member, "middle")
	post(t, f, f.member, "new")

	_, err := f.svc.TogglePin(ctx, f.member, old.ID)
	assert.True(t, apperr.IsAuthorization(err))

	pinned, err := f.svc.TogglePin(ctx, f.admin, old.ID)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	var got []string
	for _, n := range list {
		got = append(got, n.Title)
	}
	assert.Equal(t, []string{"old", "new", "middle"}, got)

	unpinned, err := f.svc.TogglePin(ctx, f.admin, old.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
}

func TestGetIncludesThreads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := post(t, f, f.member, "Bins")
	parent := models.Parent{Kind: models.ParentNotice, ID: n.ID}
	root, err := f.comments.Add(ctx, f.admin, parent, "Hello", nil)
	require.NoError(t, err)
	_, err = f.comments.Add(ctx, f.member, parent, "Hi", &root.ID)
	require.NoError(t, err)

	d, err := f.svc.Get(ctx, f.member, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", d.CreatorName)
	require.Len(t, d.Comments, 1)
	assert.Len(t, d.Comments[0].Replies, 1)
}

func TestDeleteOwnerOnlyAndCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := post(t, f, f.member, "Bins")
	_, err := f.comments.Add(ctx, f.admin, models.Parent{Kind: models.ParentNotice, ID: n.ID}, "Hello", nil)
	require.NoError(t, err)

	assert.True(t, apperr.IsAuthorization(f.svc.Delete(ctx, f.admin, n.ID)))
	require.NoError(t, f.svc.Delete(ctx, f.member, n.ID))
	assert.Zero(t, f.store.CommentCount())

	_, err = f.svc.Get(ctx, f.member, n.ID)
	assert.True(t, apperr.IsNotFound(err))
}
