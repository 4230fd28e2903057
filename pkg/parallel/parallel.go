// Package parallel provides bounded concurrency helpers for fold
// collection and background split jobs.
package parallel

import (
	"context"
	"os"
	"strconv"
	"sync"
)

// DefaultWorkerLimit is the worker count used when WORKER_LIMIT is not
// set.
const DefaultWorkerLimit = 8

// GetWorkerLimit returns the worker limit from environment variable or default
func GetWorkerLimit() int {
	val := os.Getenv("WORKER_LIMIT")
	if val == "" {
		return DefaultWorkerLimit
	}
	limit, err := strconv.Atoi(val)
	if err != nil || limit <= 0 {
		return DefaultWorkerLimit
	}
	return limit
}

// Worker represents a worker function that processes one item
type Worker[T any, R any] func(ctx context.Context, item T) (R, error)

// WorkerPool runs a worker over a slice of items with bounded
// concurrency. Results and errors come back in item order, so callers
// can zip them with their inputs. Panics in workers are recovered and
// surface as PanicError entries.
//
// Example:
//
//	pool := NewWorkerPool(4, func(ctx context.Context, item string) (int, error) {
//	    return len(item), nil
//	})
//	results, errs := pool.ProcessItems(ctx, []string{"a", "bb", "ccc"})
type WorkerPool[T any, R any] struct {
	numWorkers int
	worker     Worker[T, R]
}

// NewWorkerPool creates a new worker pool. A non-positive numWorkers
// falls back to GetWorkerLimit.
func NewWorkerPool[T any, R any](numWorkers int, worker Worker[T, R]) *WorkerPool[T, R] {
	if numWorkers <= 0 {
		numWorkers = GetWorkerLimit()
	}
	return &WorkerPool[T, R]{
		numWorkers: numWorkers,
		worker:     worker,
	}
}

// ProcessItems processes items using the worker pool and blocks until
// every worker has finished. Items left unprocessed after a context
// cancellation keep zero results and nil errors.
func (wp *WorkerPool[T, R]) ProcessItems(ctx context.Context, items []T) ([]R, []error) {
	if len(items) == 0 {
		return nil, nil
	}

	indexes := make(chan int, len(items))
	for i := range items {
		indexes <- i
	}
	close(indexes)

	results := make([]R, len(items))
	errs := make([]error, len(items))
	var wg sync.WaitGroup

	workers := wp.numWorkers
	if workers > len(items) {
		workers = len(items)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case i, ok := <-indexes:
					if !ok {
						return
					}
					// Each index is handed out once, so the slots
					// need no locking.
					func() {
						defer RecoverWithCallback(func(err error) {
							errs[i] = err
						})
						results[i], errs[i] = wp.worker(ctx, items[i])
					}()
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	wg.Wait()
	return results, errs
}
