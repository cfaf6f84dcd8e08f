package service

import (
	"context"
	"sync"

	"github.com/okian/rankengine/internal/domain/dedupe"
	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/pkg/logger"
)

// jobTracker follows recompute keys from scheduling to completion. A key
// stays recorded while its job is queued or running, so one scope never has
// two jobs in flight. A request arriving while the job runs marks the key
// for one rerun once the running job finishes.
type jobTracker struct {
	mu      sync.Mutex
	deduper dedupe.Deduper
	running map[string]bool
	rerun   map[string]bool

	// submit queues a job whose key is already recorded.
	submit func(ctx context.Context, job model.RecomputeJob) error
	logger logger.Logger
}

func newJobTracker(d dedupe.Deduper, submit func(context.Context, model.RecomputeJob) error, l logger.Logger) *jobTracker {
	return &jobTracker{
		deduper: d,
		running: map[string]bool{},
		rerun:   map[string]bool{},
		submit:  submit,
		logger:  l,
	}
}

// admit records key and reports whether a new job must be queued for it.
func (t *jobTracker) admit(ctx context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.deduper.SeenAndRecord(ctx, key) {
		return true
	}
	if t.running[key] {
		t.rerun[key] = true
	}
	return false
}

// drop forgets key after its job could not be queued.
func (t *jobTracker) drop(ctx context.Context, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deduper.Unrecord(ctx, key)
	delete(t.running, key)
	delete(t.rerun, key)
}

// Started marks the job of key as running.
func (t *jobTracker) Started(_ context.Context, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running[key] = true
}

// Finished releases key, or queues the rerun requested while it ran.
func (t *jobTracker) Finished(ctx context.Context, job model.RecomputeJob) {
	key := job.Key()
	t.mu.Lock()
	delete(t.running, key)
	rerun := t.rerun[key]
	delete(t.rerun, key)
	if !rerun {
		t.deduper.Unrecord(ctx, key)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	if err := t.submit(ctx, model.RecomputeJob{Period: job.Period, All: job.All}); err != nil {
		t.drop(ctx, key)
		t.logger.Warn(ctx, "recompute rerun not scheduled",
			logger.String("scope", key),
			logger.Error(err),
		)
	}
}

// Size returns the number of keys queued or running.
func (t *jobTracker) Size() int64 {
	return t.deduper.Size()
}
