package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/rankengine/internal/domain/model"
)

func job(id string, period model.Period) model.RecomputeJob {
	return model.RecomputeJob{ID: id, Period: period, EnqueuedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if !q.Enqueue(ctx, job("job1", "2024-01")) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	jobs := q.Dequeue(ctx)
	j := <-jobs
	if j.ID != "job1" || j.Period != "2024-01" {
		t.Errorf("expected job1 for 2024-01, got %v", j)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Submit(ctx, job("job1", "2024-01")); err != nil {
		t.Errorf("expected submit to succeed, got %v", err)
	}
	if err := q.Submit(ctx, job("job2", "2024-02")); err != nil {
		t.Errorf("expected submit to succeed, got %v", err)
	}

	if err := q.Submit(ctx, job("job3", "2024-03")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull when full, got %v", err)
	}
	if q.Enqueue(ctx, job("job3", "2024-03")) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CanceledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Submit(ctx, job("job1", "2024-01")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numGoroutines := 10
	numJobs := 100

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numJobs; j++ {
				next := job(fmt.Sprintf("job%d_%d", id, j), model.Period(fmt.Sprintf("2024-%02d", j%12+1)))
				for !q.Enqueue(ctx, next) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	consumed := make(chan string, numGoroutines*numJobs)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := range q.Dequeue(ctx) {
				consumed <- j.ID
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	time.Sleep(100 * time.Millisecond)

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("job1", "2024-01")) {
		t.Error("expected enqueue to succeed")
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if err := q.Submit(ctx, job("job2", "2024-02")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after closing, got %v", err)
	}

	// Buffered jobs are still delivered before the channel closes.
	jobs := q.Dequeue(ctx)
	timeout := time.After(100 * time.Millisecond)
	delivered := 0
	for {
		select {
		case _, ok := <-jobs:
			if !ok {
				if delivered != 1 {
					t.Errorf("expected 1 buffered job, got %d", delivered)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			delivered++
		case <-timeout:
			t.Error("expected dequeue channel to be closed within timeout")
			return
		}
	}
}

func TestRecomputeJob_Key(t *testing.T) {
	if k := job("a", "2024-03").Key(); k != "2024-03" {
		t.Errorf("expected month key, got %q", k)
	}
	if k := (model.RecomputeJob{All: true}).Key(); k != "all" {
		t.Errorf("expected all key, got %q", k)
	}
}
