package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ollama-rag-relay/internal/contextutil"
)

// ErrClosed is returned by Submit after Shutdown has started.
var ErrClosed = errors.New("worker pool closed")

// Task is a unit of background work.
type Task func(ctx context.Context) error

// Observer is notified once per finished task.
type Observer func(name string, err error)

// Pool runs fire-and-forget tasks with bounded concurrency.
// Submit never blocks the caller; tasks wait for a slot in their own goroutine.
type Pool struct {
	sem      chan struct{}
	timeout  time.Duration
	observer Observer

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a pool running at most maxWorkers tasks at once.
// Each task gets its own deadline of timeout (zero means no deadline).
func NewPool(maxWorkers int, timeout time.Duration, observer Observer) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &Pool{
		sem:      make(chan struct{}, maxWorkers),
		timeout:  timeout,
		observer: observer,
	}
}

// Submit schedules task under name. The task context is detached from ctx's
// cancellation but keeps its values, so request-scoped loggers carry over.
func (p *Pool) Submit(ctx context.Context, name string, task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	taskCtx := context.WithoutCancel(ctx)
	go func() {
		defer p.wg.Done()
		p.sem <- struct{}{}
		defer func() { <-p.sem }()

		err := p.run(taskCtx, name, task)
		logger := contextutil.LoggerFromContext(taskCtx)
		if err != nil {
			logger.WarnContext(taskCtx, "background task failed", "task", name, "error", err)
		} else {
			logger.DebugContext(taskCtx, "background task completed", "task", name)
		}
		if p.observer != nil {
			p.observer(name, err)
		}
	}()
	return nil
}

func (p *Pool) run(ctx context.Context, name string, task Task) (err error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", name, r)
		}
	}()
	return task(ctx)
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown stops accepting tasks and waits for pending ones until ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
