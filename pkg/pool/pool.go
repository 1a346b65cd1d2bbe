package pool

import (
	"context"
	"fmt"
	"sync"
)

// Pool runs independent tasks over a fixed set of workers and blocks
// until every task has finished. A panicking task is converted to an
// error for that index; it never aborts the batch.
type Pool struct {
	workers int
}

func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Each invokes fn for every index in [0, n). Errors (including recovered
// panics) are returned per index; a nil slice means n was zero.
func (p *Pool) Each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	if n <= 0 {
		return nil
	}

	errs := make([]error, n)
	idx := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				errs[i] = p.run(ctx, i, fn)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case idx <- i:
		case <-ctx.Done():
			errs[i] = ctx.Err()
		}
	}
	close(idx)
	wg.Wait()

	return errs
}

func (p *Pool) run(ctx context.Context, i int, fn func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %d panicked: %v", i, r)
		}
	}()
	return fn(ctx, i)
}
