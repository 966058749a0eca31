package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var (
	ErrPoolClosed = errors.New("worker pool is shut down")
	ErrPoolFull   = errors.New("worker pool backlog is full")
)

// DefaultBacklogPerWorker sizes the pending cap when WithMaxPending is not given.
const DefaultBacklogPerWorker = 64

// Task is a unit of background work. It must return when ctx is cancelled.
type Task func(ctx context.Context) error

// ErrorHandler observes task failures and recovered panics.
type ErrorHandler func(name string, err error)

// Option tunes a Pool.
type Option func(*Pool)

// WithMaxPending caps the submitted tasks that have not finished. Submit
// fails with ErrPoolFull past the cap. A non-positive n keeps the default.
func WithMaxPending(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxPending = int64(n)
		}
	}
}

// Pool runs tasks on at most size goroutines. Submit never blocks the caller:
// tasks wait for a slot inside their own goroutine, up to maxPending of them.
// Every task is tracked until it finishes, so Shutdown can drain or cancel
// them.
type Pool struct {
	sem        *semaphore.Weighted
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	onError    ErrorHandler
	maxPending int64

	mu     sync.Mutex
	closed bool

	pending   atomic.Int64
	failed    atomic.Int64
	completed atomic.Int64
}

func NewPool(size int, onError ErrorHandler, opts ...Option) *Pool {
	if size <= 0 {
		size = 1
	}
	if onError == nil {
		onError = func(string, error) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		sem:        semaphore.NewWeighted(int64(size)),
		ctx:        ctx,
		cancel:     cancel,
		onError:    onError,
		maxPending: int64(size) * DefaultBacklogPerWorker,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit schedules task and returns immediately. It returns ErrPoolFull
// instead of growing the backlog past the pending cap.
func (p *Pool) Submit(name string, task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	if p.pending.Load() >= p.maxPending {
		p.mu.Unlock()
		return ErrPoolFull
	}
	p.wg.Add(1)
	p.pending.Add(1)
	p.mu.Unlock()

	go p.run(name, task)
	return nil
}

func (p *Pool) run(name string, task Task) {
	defer p.wg.Done()
	defer p.pending.Add(-1)

	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		p.failed.Add(1)
		p.onError(name, fmt.Errorf("abandoned before start: %w", err))
		return
	}
	defer p.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.onError(name, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := task(p.ctx); err != nil {
		p.failed.Add(1)
		p.onError(name, err)
		return
	}
	p.completed.Add(1)
}

// Pending is the number of submitted tasks that have not finished.
func (p *Pool) Pending() int64 {
	return p.pending.Load()
}

func (p *Pool) Stats() (completed, failed int64) {
	return p.completed.Load(), p.failed.Load()
}

// Shutdown stops accepting tasks and waits for the outstanding ones. When ctx
// expires first, running tasks are cancelled and the number still pending is
// returned with ctx's error.
func (p *Pool) Shutdown(ctx context.Context) (int64, error) {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return 0, nil
	case <-ctx.Done():
		abandoned := p.pending.Load()
		p.cancel()
		<-done
		return abandoned, ctx.Err()
	}
}
