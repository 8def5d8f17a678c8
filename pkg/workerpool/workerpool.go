// Package workerpool bounds fan-out retrieval across rephrased queries to a
// fixed number of concurrent workers, rather than spawning one goroutine
// per rephrase unconditionally.
package workerpool

import (
	"sync"

	"github.com/gammazero/workerpool"
)

// Pool runs bounded concurrent work. It wraps gammazero/workerpool rather
// than raw goroutines so a pathological query that expands into many
// rephrases cannot flood the retrieval backend with unbounded concurrent
// requests.
type Pool struct {
	wp *workerpool.WorkerPool
}

// New creates a Pool with size concurrent workers. size <= 0 is treated as
// 1: there is always at least one worker.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{wp: workerpool.New(size)}
}

// Map applies fn to every item in items concurrently, bounded by the pool's
// worker count, and returns results in the same order as items. An error
// from one task does not prevent the others from completing; errors are
// collected and returned alongside the results so the caller can decide
// how many partial results to accept. A panic in fn is not recovered.
func Map[T, R any](p *Pool, items []T, fn func(item T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		i, item := i, item
		p.wp.Submit(func() {
			defer wg.Done()
			r, err := fn(item)
			results[i] = r
			errs[i] = err
		})
	}
	wg.Wait()
	return results, errs
}

// StopWait blocks until all submitted tasks complete and releases the
// pool's workers. Call it once the pool is no longer needed.
func (p *Pool) StopWait() {
	p.wp.StopWait()
}
