// Package worker runs recompute jobs pulled from the queue.
//
// A job covers one month or every month. Every month is an independently
// retryable unit: it is recomputed and persisted before the next one starts,
// so a month always sees the freshly persisted ranking of its predecessor.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rankengine/internal/adapters/mq/queue"
	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/pkg/logger"
	"github.com/okian/rankengine/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultMaxAttempts    = 3
	defaultBackoff        = 100 * time.Millisecond
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job statuses reported to metrics.
const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Recomputer recomputes and persists the ranking of one month.
type Recomputer interface {
	Recompute(ctx context.Context, period model.Period) error
}

// PeriodLister lists the months covered by a full recompute, oldest first.
type PeriodLister interface {
	Periods(ctx context.Context) ([]model.Period, error)
}

// Tracker follows a job key through its run. Finished is called once every
// unit of the job has been attempted.
type Tracker interface {
	Started(ctx context.Context, key string)
	Finished(ctx context.Context, job Job)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes recompute jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for jobs from an in-process queue.
type InMemoryWorker struct {
	queue      Queue
	recomputer Recomputer
	periods    PeriodLister
	tracker    Tracker
	name       string

	maxAttempts int
	backoff     time.Duration

	processed *atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, recomputer Recomputer, periods PeriodLister, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       queue,
		recomputer:  recomputer,
		periods:     periods,
		name:        "worker",
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		processed:   &atomic.Int64{},
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "recompute job failed",
					logger.String("jobID", job.ID),
					logger.String("scope", job.Key()),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// process runs every unit of job. The tracker holds the job key until the
// last unit is done.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()
	if w.tracker != nil {
		w.tracker.Started(ctx, job.Key())
		defer w.tracker.Finished(ctx, job)
	}

	units := []model.Period{job.Period}
	if job.Key() == model.AllPeriodsKey {
		ps, err := w.periods.Periods(ctx)
		if err != nil {
			metrics.RecordJob(statusFailed, float64(time.Since(start).Milliseconds()))
			return fmt.Errorf("list periods: %w", err)
		}
		units = ps
	}

	var failed int
	for _, p := range units {
		if err := w.runUnit(ctx, p); err != nil {
			failed++
			w.logger.Error(ctx, "period recompute gave up",
				logger.String("jobID", job.ID),
				logger.String("period", p.String()),
				logger.Error(err),
			)
		}
	}

	w.processed.Add(1)
	latency := float64(time.Since(start).Milliseconds())
	if failed > 0 {
		metrics.RecordJob(statusFailed, latency)
		return fmt.Errorf("%d of %d periods failed", failed, len(units))
	}
	metrics.RecordJob(statusSucceeded, latency)
	w.logger.Debug(ctx, "recompute job done",
		logger.String("jobID", job.ID),
		logger.Int("periods", len(units)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// runUnit recomputes one month, retrying with exponential backoff.
func (w *InMemoryWorker) runUnit(ctx context.Context, p model.Period) error {
	delay := w.backoff
	var err error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if err = w.recomputer.Recompute(ctx, p); err == nil {
			return nil
		}
		if attempt == w.maxAttempts {
			break
		}
		metrics.RecordJobRetry()
		w.logger.Warn(ctx, "retrying period recompute",
			logger.String("period", p.String()),
			logger.Int("attempt", attempt),
			logger.Error(err),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shutdown:
			return err
		}
		delay *= 2
	}
	return err
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed *atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. Options apply to every worker.
func NewPool(workerCount int, q Queue, recomputer Recomputer, periods PeriodLister, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     q,
		processed: &atomic.Int64{},
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, recomputer, periods, workerOpts...)
		w.processed = pool.processed
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs handled so far.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Stop signals all workers and waits briefly for each one.
func (p *Pool) Stop() {
	for _, worker := range p.workers {
		worker.stop()
	}
	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for all workers to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for _, worker := range p.workers {
		worker.stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
