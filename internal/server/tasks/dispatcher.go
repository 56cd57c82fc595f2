// Package tasks runs fire-and-forget background work, such as sending
// verification mail after a request has already been answered.
package tasks

import (
	"context"
	"sync"

	"github.com/r-scheele/authgate/internal/logging"
)

// Task is a unit of background work. Errors are logged, not propagated; the
// request that scheduled the task has long since returned.
type Task func(ctx context.Context) error

// Dispatcher owns a bounded queue drained by a fixed set of workers. Dispatch
// never blocks the caller: when the queue is full the task is dropped and the
// drop is logged.
type Dispatcher struct {
	queue  chan Task
	logger logging.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewDispatcher starts workers goroutines draining a queue of the given size.
func NewDispatcher(workers, queueSize int, logger logging.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		queue:  make(chan Task, queueSize),
		logger: logger,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for task := range d.queue {
		d.run(task)
	}
}

func (d *Dispatcher) run(task Task) {
	ctx := context.Background()
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error(ctx, "background task panicked", "panic", p)
		}
	}()
	if err := task(ctx); err != nil {
		d.logger.Error(ctx, "background task failed", "error", err)
	}
}

// Dispatch enqueues a task. It returns false when the dispatcher is shutting
// down or the queue is full.
func (d *Dispatcher) Dispatch(task Task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- task:
		return true
	default:
		d.logger.Warn(context.Background(), "background queue full, task dropped")
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
