// Package pool runs independent synthesis jobs on a bounded worker set.
// Jobs are pure computation over parsed templates, so the pool is a plain
// fan-out with error collection and no adaptive throttling.
package pool

import (
	"context"
	"sync"
)

// Task is a unit of work for the pool.
type Task func(ctx context.Context) error

// Pool manages the workers and collects task errors.
type Pool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup

	mu        sync.Mutex
	errs      []error
	completed int64
}

// New creates a pool with the given worker count; values below 1 mean one
// worker.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, workers*2),
	}
}

// Start spawns the workers. Tasks submitted after a context cancellation
// are dropped, not executed.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Submit queues a task; blocks when all workers are busy and the buffer
// is full.
func (p *Pool) Submit(t Task) {
	p.tasks <- t
}

// Wait closes the queue, waits for in-flight tasks, and returns every
// error the tasks produced.
func (p *Pool) Wait() []error {
	close(p.tasks)
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs
}

// Completed returns the number of finished tasks.
func (p *Pool) Completed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for task := range p.tasks {
		if ctx.Err() != nil {
			continue
		}
		err := task(ctx)
		p.mu.Lock()
		p.completed++
		if err != nil {
			p.errs = append(p.errs, err)
		}
		p.mu.Unlock()
	}
}
