package filesystem

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many CPU-heavy archive jobs run at once so compression
// cannot starve metadata calls.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a pool; workers <= 0 means GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers)), size: workers}
}

// Size returns the number of concurrent slots.
func (p *Pool) Size() int {
	return p.size
}

// Do runs fn once a slot is free. Waiting honors ctx.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
