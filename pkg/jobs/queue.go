package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned when work is submitted to a queue that is not running.
var ErrStopped = errors.New("queue stopped")

// Job is a unit of work executed by the queue's single worker.
type Job struct {
	Type     string
	Run      func(context.Context) error
	Enqueued time.Time

	ctx  context.Context
	done chan error
}

// QueueConfig configures the queue.
type QueueConfig struct {
	BufferSize int
	Logger     *zap.Logger
}

// Queue serializes jobs through one worker goroutine so that whole-collection
// read-modify-write cycles never interleave.
type Queue struct {
	name       string
	bufferSize int
	logger     *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
}

// NewQueue builds a new, not yet started queue.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		bufferSize: cfg.BufferSize,
		logger:     cfg.Logger,
		jobs:       make(chan Job, cfg.BufferSize),
	}
}

// Start launches the worker. Safe to call more than once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.worker()
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name)
}

// Stop cancels the worker and waits for the in-flight job to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Do runs fn on the worker and blocks until it returns. ctx bounds the wait for
// a worker slot; once fn starts it runs to completion. fn must not call Do.
func (q *Queue) Do(ctx context.Context, jobType string, fn func(context.Context) error) error {
	job := Job{
		Type:     jobType,
		Run:      fn,
		Enqueued: time.Now().UTC(),
		ctx:      ctx,
		done:     make(chan error, 1),
	}

	if err := q.enqueue(ctx, job); err != nil {
		return err
	}
	return <-job.done
}

// enqueue holds the read lock so Stop cannot cancel between the started check
// and the send; anything sent before Stop is answered by run or drain.
func (q *Queue) enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.started {
		return fmt.Errorf("queue %s: %w", q.name, ErrStopped)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	if err := job.ctx.Err(); err != nil {
		job.done <- err
		return
	}
	start := time.Now()
	err := job.Run(job.ctx)
	if err != nil {
		q.logger.Sugar().Warnw("job failed", "queue", q.name, "type", job.Type, "error", err)
	} else {
		q.logger.Sugar().Debugw("job done", "queue", q.name, "type", job.Type, "took", time.Since(start))
	}
	job.done <- err
}

func (q *Queue) drain() {
	for {
		select {
		case job := <-q.jobs:
			job.done <- fmt.Errorf("queue %s: %w", q.name, ErrStopped)
		default:
			return
		}
	}
}
