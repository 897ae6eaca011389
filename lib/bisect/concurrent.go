package bisect

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

type worklist[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	stack    [][]T
	inFlight int
	result   Result[T]
}

func newWorklist[T any](items []T) *worklist[T] {
	w := &worklist[T]{stack: [][]T{items}}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// pop blocks until a batch is available. It returns false once the worklist is drained or ctx is done.
func (w *worklist[T]) pop(ctx context.Context) ([]T, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for len(w.stack) == 0 && w.inFlight > 0 && ctx.Err() == nil {
		w.cond.Wait()
	}

	if ctx.Err() != nil || len(w.stack) == 0 {
		return nil, false
	}

	batch := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.inFlight++
	return batch, true
}

func (w *worklist[T]) settle(batch []T, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.result.Calls++
	switch {
	case err == nil:
		w.result.Good = append(w.result.Good, batch...)
	case len(batch) == 1:
		w.result.Bad = append(w.result.Bad, batch[0])
	default:
		left, right := Split(batch)
		w.result.Splits++
		w.stack = append(w.stack, left, right)
	}

	w.inFlight--
	w.cond.Broadcast()
}

func (w *worklist[T]) wake() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cond.Broadcast()
}

// ResolveConcurrently is [ResolveWithStats] with up to concurrency batches evaluated at once.
// The action must be safe to call concurrently on disjoint batches.
//
// If ctx is cancelled, no new batches are started and ctx.Err() is returned along with the
// partial result, which then does not cover every item.
func ResolveConcurrently[T any](ctx context.Context, items []T, action Action[T], concurrency int) (Result[T], error) {
	if action == nil {
		panic("bisect: nil action")
	}

	if len(items) == 0 {
		return Result[T]{}, nil
	}

	w := newWorklist(items[:len(items):len(items)])
	stop := context.AfterFunc(ctx, w.wake)
	defer stop()

	var group errgroup.Group
	for range max(concurrency, 1) {
		group.Go(func() error {
			for {
				batch, ok := w.pop(ctx)
				if !ok {
					return ctx.Err()
				}

				w.settle(batch, invoke(action, batch))
			}
		})
	}

	err := group.Wait()
	return w.result, err
}
