// Package fanout runs a worker over a list of items with a hard concurrency
// cap. Results come back aligned to input positions; per-item failures are
// collected instead of cancelling siblings.
package fanout

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type Failure struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

// Worker processes one item. A nil result with a nil error means the item
// is skipped: it produces neither a result row nor a failure.
type Worker[In any, Out any] func(ctx context.Context, item In) (*Out, error)

// Run applies worker to every item with at most limit running concurrently.
// results[i] corresponds to items[i] and is nil for skipped or failed items.
// id extracts the natural identifier recorded with a failure. Context
// cancellation stops scheduling new items; in-flight workers are awaited.
func Run[In any, Out any](ctx context.Context, items []In, limit int, id func(In) string, worker Worker[In, Out]) ([]*Out, []Failure) {
	if limit < 1 {
		limit = 1
	}

	results := make([]*Out, len(items))
	var (
		mu       sync.Mutex
		failures []Failure
		wg       sync.WaitGroup
	)
	sem := semaphore.NewWeighted(int64(limit))

	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled: record the unscheduled remainder and stop.
			mu.Lock()
			for _, rest := range items[i:] {
				failures = append(failures, Failure{Identifier: id(rest), Reason: ctx.Err().Error()})
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(idx int, it In) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := worker(ctx, it)
			if err != nil {
				mu.Lock()
				failures = append(failures, Failure{Identifier: id(it), Reason: err.Error()})
				mu.Unlock()
				return
			}
			results[idx] = out
		}(i, item)
	}

	wg.Wait()
	return results, failures
}

// Compact drops the nil slots of an ordered result list.
func Compact[Out any](results []*Out) []Out {
	kept := make([]Out, 0, len(results))
	for _, r := range results {
		if r != nil {
			kept = append(kept, *r)
		}
	}
	return kept
}
