package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/queue"
)

type memSource struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retried []*queue.Job
}

func (s *memSource) Dequeue(ctx context.Context, _ time.Duration) (*queue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		time.Sleep(time.Millisecond)
		return nil, nil
	}
	j := s.jobs[0]
	s.jobs = s.jobs[1:]
	return j, nil
}

func (s *memSource) Retry(_ context.Context, job *queue.Job, _ error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Attempt++
	s.retried = append(s.retried, job)
	return nil
}

type fakeFanout struct {
	mu     sync.Mutex
	seen   []uuid.UUID
	failOn uuid.UUID
}

func (f *fakeFanout) Run(_ context.Context, e models.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, e.ID)
	if e.ID == f.failOn {
		return 0, errors.New("db down")
	}
	return 3, nil
}

func (f *fakeFanout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func notifyJob(t *testing.T) (*queue.Job, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	job, err := queue.NewJob(queue.JobTypeNotifyEvent, queue.NotifyEventPayload{Event: models.Event{ID: id, Title: "Picnic"}})
	require.NoError(t, err)
	return job, id
}

func TestProcess(t *testing.T) {
	fan := &fakeFanout{}
	p := NewFanoutProcessor(&memSource{}, fan, nil)
	job, id := notifyJob(t)

	require.NoError(t, p.Process(context.Background(), job))
	assert.Equal(t, []uuid.UUID{id}, fan.seen)

	assert.Error(t, p.Process(context.Background(), &queue.Job{Type: "email"}))
}

func TestRunRetriesFailures(t *testing.T) {
	ok, _ := notifyJob(t)
	bad, badID := notifyJob(t)
	src := &memSource{jobs: []*queue.Job{ok, bad}}
	fan := &fakeFanout{failOn: badID}
	p := NewFanoutProcessor(src, fan, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.retried) >= 1
	}, time.Second, time.Millisecond)
	cancel()
	<-done

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, bad.ID, src.retried[0].ID)
	assert.Equal(t, 1, src.retried[0].Attempt)
	assert.GreaterOrEqual(t, fan.count(), 2)
}
