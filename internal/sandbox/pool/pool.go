// Package pool bounds how many executions run concurrently.
package pool

import (
	"context"
	"time"

	appErr "runbox/pkg/errors"
)

const defaultAcquireWait = 2 * time.Second

// Pool is a counting semaphore with a bounded acquire wait. When every
// slot stays busy past the wait window the caller is rejected instead
// of queueing without bound.
type Pool struct {
	sem  chan struct{}
	wait time.Duration
}

// New creates a pool with the given number of worker slots.
func New(size int) *Pool {
	return NewWithWait(size, defaultAcquireWait)
}

// NewWithWait creates a pool with a custom acquire wait window.
func NewWithWait(size int, wait time.Duration) *Pool {
	if size <= 0 {
		size = 1
	}
	if wait <= 0 {
		wait = defaultAcquireWait
	}
	return &Pool{
		sem:  make(chan struct{}, size),
		wait: wait,
	}
}

// Acquire blocks until a slot is free, the wait window elapses, or ctx
// is canceled.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.wait):
		return appErr.New(appErr.WorkerPoolFull).WithMessage("worker pool is full")
	}
}

// TryAcquire grabs a slot without waiting.
func (p *Pool) TryAcquire() bool {
	select {
	case p.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot to the pool.
func (p *Pool) Release() {
	select {
	case <-p.sem:
	default:
	}
}

// Size reports the slot capacity.
func (p *Pool) Size() int {
	return cap(p.sem)
}

// InUse reports how many slots are currently held.
func (p *Pool) InUse() int {
	return len(p.sem)
}
