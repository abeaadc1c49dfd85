// Package inbox keeps a client-side view of an account's notifications in step
// with the server: it polls, applies read marks optimistically and rolls them
// back when the server refuses.
package inbox

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/optimistic"
)

// DefaultInterval is the poll period.
const DefaultInterval = 30 * time.Second

// Options configures an Inbox.
type Options struct {
	Interval time.Duration
	Logger   *zap.Logger
}

// Inbox is safe for concurrent use. After Close every in-flight response is dropped.
type Inbox struct {
	api      API
	cache    *optimistic.Store[uuid.UUID, models.Notification]
	interval time.Duration
	logger   *zap.Logger

	seq     atomic.Uint64
	mu      sync.Mutex // orders refresh application
	applied uint64

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// New returns an empty inbox over api.
func New(api API, opts Options) *Inbox {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Inbox{
		api:      api,
		cache:    optimistic.New[uuid.UUID, models.Notification](),
		interval: opts.Interval,
		logger:   opts.Logger,
		done:     make(chan struct{}),
	}
}

func notificationID(n models.Notification) uuid.UUID { return n.ID }

// stickyRead keeps a cached read flag when the server copy is older than the mark.
func stickyRead(cached, fresh models.Notification) models.Notification {
	fresh.IsRead = fresh.IsRead || cached.IsRead
	return fresh
}

func newestFirst(a, b models.Notification) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID.String() < b.ID.String()
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// Notifications returns the cached notifications, newest first.
func (i *Inbox) Notifications() []models.Notification {
	return i.cache.Values(newestFirst)
}

// UnreadCount counts cached unread notifications.
func (i *Inbox) UnreadCount() int {
	n := 0
	for _, v := range i.cache.Values(nil) {
		if !v.IsRead {
			n++
		}
	}
	return n
}

// Refresh refetches and merges the server's list. A response older than one
// already applied, or arriving after Close, is discarded.
func (i *Inbox) Refresh(ctx context.Context) error {
	seq := i.seq.Add(1)
	rows, err := i.api.Recent(ctx)
	if err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed.Load() || seq < i.applied {
		return nil
	}
	i.applied = seq
	i.cache.Reconcile(rows, notificationID, stickyRead)
	return nil
}

func (i *Inbox) settle(ctx context.Context) {
	if i.closed.Load() {
		return
	}
	if err := i.Refresh(ctx); err != nil {
		i.logger.Warn("notifications refresh after mutation failed", zap.Error(err))
	}
}

func markRead(n models.Notification) models.Notification {
	n.IsRead = true
	return n
}

// MarkRead flips the cached flag immediately, then asks the server. On failure
// the previous state is restored and the error returned. Either way the list is
// refetched once the call settles.
func (i *Inbox) MarkRead(ctx context.Context, id uuid.UUID) error {
	if n, ok := i.cache.Get(id); ok && n.IsRead {
		return nil
	}
	txn, err := i.cache.Begin(id, markRead)
	if err != nil {
		err = i.api.MarkRead(ctx, id)
		if i.closed.Load() {
			return nil
		}
		i.settle(ctx)
		return err
	}
	err = i.api.MarkRead(ctx, id)
	if i.closed.Load() {
		return nil
	}
	if err != nil {
		txn.Rollback()
		i.logger.Warn("mark notification read failed", zap.String("notification_id", id.String()), zap.Error(err))
	} else {
		txn.Commit()
	}
	i.settle(ctx)
	return err
}

// Open marks an unread notification read and returns the path it links to.
// The path is returned even when the mark fails.
func (i *Inbox) Open(ctx context.Context, id uuid.UUID) (string, error) {
	n, ok := i.cache.Get(id)
	if !ok {
		return "", apperr.NotFound("notification")
	}
	target := n.Target()
	if n.IsRead {
		return target, nil
	}
	return target, i.MarkRead(ctx, id)
}

// Delete removes the notification on the server and drops it from the cache without refetching.
func (i *Inbox) Delete(ctx context.Context, id uuid.UUID) error {
	if err := i.api.Delete(ctx, id); err != nil {
		return err
	}
	if !i.closed.Load() {
		i.cache.Delete(id)
	}
	return nil
}

// Run refreshes now and then every interval until ctx ends or Close is called.
func (i *Inbox) Run(ctx context.Context) error {
	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()
	i.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-i.done:
			return nil
		case <-ticker.C:
			i.poll(ctx)
		}
	}
}

func (i *Inbox) poll(ctx context.Context) {
	if err := i.Refresh(ctx); err != nil && ctx.Err() == nil {
		i.logger.Warn("notifications poll failed", zap.Error(err))
	}
}

// Close stops Run and Listen; responses that arrive afterwards are ignored.
func (i *Inbox) Close() {
	i.closeOnce.Do(func() {
		i.closed.Store(true)
		close(i.done)
	})
}
