// Package offload prices CPU-bound codec work. Payloads under a size
// threshold run immediately on the calling goroutine, where dispatch
// overhead would dominate; larger payloads contend for a slot on a
// bounded pool so concurrent callers cannot oversubscribe the CPU with
// encryption and serialization work.
package offload

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how much offloaded work runs at once. Work slots carry no
// state between invocations.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a Pool with the given number of work slots.
// Counts below one are raised to one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

// Run executes fn holding a work slot, waiting for one to free up first.
// If ctx is done before a slot is available, fn never runs and the
// context error is returned.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}

// Policy selects where codec work runs based on payload size.
// A nil Policy, and a Policy without a pool, run everything inline.
type Policy struct {
	threshold int
	pool      *Pool
}

// NewPolicy returns a Policy that offloads work for payloads of
// threshold bytes or more.
func NewPolicy(threshold int, pool *Pool) *Policy {
	return &Policy{threshold: threshold, pool: pool}
}

// Do runs fn inline when size is under the threshold, otherwise on the
// pool. The call returns when fn has run either way; offloading bounds
// concurrency, it does not defer the work.
func (p *Policy) Do(ctx context.Context, size int, fn func() error) error {
	if p == nil || p.pool == nil || size < p.threshold {
		return fn()
	}
	return p.pool.Run(ctx, fn)
}
