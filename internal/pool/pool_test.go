package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(4)
	p.Start(context.Background())

	var ran int64
	for i := 0; i < 50; i++ {
		p.Submit(func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
	}

	errs := p.Wait()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if ran != 50 {
		t.Errorf("expected 50 tasks, ran %d", ran)
	}
	if p.Completed() != 50 {
		t.Errorf("completed count: got %d", p.Completed())
	}
}

// Two tasks that rendezvous with each other can only finish if the pool
// actually runs them at the same time.
func TestPoolTasksOverlap(t *testing.T) {
	p := New(2)
	p.Start(context.Background())

	first := make(chan struct{})
	second := make(chan struct{})
	p.Submit(func(ctx context.Context) error {
		close(first)
		select {
		case <-second:
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("second task never started")
		}
	})
	p.Submit(func(ctx context.Context) error {
		close(second)
		select {
		case <-first:
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("first task never started")
		}
	})

	if errs := p.Wait(); len(errs) != 0 {
		t.Fatalf("tasks did not run concurrently: %v", errs)
	}
}

func TestPoolCollectsErrors(t *testing.T) {
	p := New(2)
	p.Start(context.Background())

	boom := errors.New("boom")
	p.Submit(func(ctx context.Context) error { return boom })
	p.Submit(func(ctx context.Context) error { return nil })
	p.Submit(func(ctx context.Context) error { return boom })

	errs := p.Wait()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
}

func TestPoolDropsTasksAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(2)
	p.Start(ctx)

	var ran int64
	p.Submit(func(ctx context.Context) error {
		atomic.AddInt64(&ran, 1)
		return nil
	})

	p.Wait()
	if ran != 0 {
		t.Errorf("task ran after cancellation")
	}
}
