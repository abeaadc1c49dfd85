package notifications

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/models"
)

// Enqueuer hands a fan-out to the job queue.
type Enqueuer interface {
	EnqueueNotifyEvent(ctx context.Context, e models.Event) error
}

// QueueNotifier triggers the fan-out by enqueueing a job for the worker.
type QueueNotifier struct {
	queue Enqueuer
}

// NewQueueNotifier creates a queue-backed notifier.
func NewQueueNotifier(q Enqueuer) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

// EventPublished enqueues the fan-out job.
func (n *QueueNotifier) EventPublished(ctx context.Context, e models.Event) error {
	return n.queue.EnqueueNotifyEvent(ctx, e)
}

// DirectNotifier runs the fan-out in a background goroutine of this process.
// Used when no queue is configured.
type DirectNotifier struct {
	fanout  *Fanout
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewDirectNotifier creates an in-process notifier.
func NewDirectNotifier(fanout *Fanout, logger *zap.Logger) *DirectNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectNotifier{fanout: fanout, timeout: 30 * time.Second, logger: logger}
}

// EventPublished starts the fan-out and returns immediately. The fan-out outlives the request.
func (n *DirectNotifier) EventPublished(ctx context.Context, e models.Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()
		if _, err := n.fanout.Run(ctx, e); err != nil {
			n.logger.Error("notification fan-out failed", zap.Error(err), zap.String("event_id", e.ID.String()))
		}
	}()
	return nil
}

// Wait blocks until every started fan-out has finished.
func (n *DirectNotifier) Wait() {
	n.wg.Wait()
}
