// Package worker drains the notification job queue.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/queue"
)

// Source is the job queue the processor drains.
type Source interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job, cause error) error
}

// Fanner writes the notifications for one event.
type Fanner interface {
	Run(ctx context.Context, e models.Event) (int, error)
}

// FanoutProcessor processes notify_event jobs: decode the event, fan out, retry on failure.
type FanoutProcessor struct {
	source  Source
	fanout  Fanner
	logger  *zap.Logger
	backoff time.Duration
}

// NewFanoutProcessor creates a fan-out job processor.
func NewFanoutProcessor(source Source, fanout Fanner, logger *zap.Logger) *FanoutProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanoutProcessor{source: source, fanout: fanout, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one job.
func (p *FanoutProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotifyEvent {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotifyEventPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}
	n, err := p.fanout.Run(ctx, payload.Event)
	if err != nil {
		return fmt.Errorf("fan-out for event %s: %w", payload.Event.ID, err)
	}
	p.logger.Info("notify event job completed",
		zap.String("job_id", job.ID),
		zap.String("event_id", payload.Event.ID.String()),
		zap.Int("notifications", n))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *FanoutProcessor) Run(ctx context.Context) {
	p.logger.Info("fan-out worker started")
	for {
		if ctx.Err() != nil {
			p.logger.Info("fan-out worker stopping")
			return
		}

		job, err := p.source.Dequeue(ctx, queue.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.source.Retry(context.WithoutCancel(ctx), job, err); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *FanoutProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
