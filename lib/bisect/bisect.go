// Package bisect isolates the items responsible for a batch failure when the batch
// operation itself cannot say which item caused it.
//
// The whole batch is tried first. A failing batch is split at its floor midpoint and both
// halves are tried again, until every item is either part of a batch that succeeded or has
// failed on its own. Output ordering is unspecified: items are appended in the order their
// batches resolve, and relative order is only kept within a batch that succeeded.
//
// The action may be called again on sub-batches of a batch that already failed, so any
// side effect it has must be safe to repeat.
package bisect

import (
	"fmt"

	"github.com/artie-labs/sifter/lib/iterator"
)

// ErrActionPanicked wraps a panic recovered from an [Action]. It is counted as a failure.
var ErrActionPanicked = fmt.Errorf("action panicked")

// Action processes a batch as a single unit. A nil error means every item in the batch
// succeeded. A non-nil error means at least one item failed, without saying which.
type Action[T any] func(batch []T) error

type Result[T any] struct {
	// Bad holds the items that failed when evaluated alone.
	Bad []T
	// Good holds the items that were part of a batch that succeeded.
	Good []T
	// Calls is the number of times the action was invoked.
	Calls int
	// Splits is the number of failing batches that were bisected.
	Splits int
}

// Split bisects a batch at its floor midpoint. For odd lengths the first half is the smaller one.
// Both halves are capped so that appending to one cannot overwrite the other.
func Split[T any](batch []T) ([]T, []T) {
	mid := len(batch) / 2
	return batch[:mid:mid], batch[mid:len(batch):len(batch)]
}

// Resolve returns the bad and good items of items under action.
// Errors returned by action are never propagated. An empty input returns without invoking action.
func Resolve[T any](items []T, action Action[T]) (bad []T, good []T) {
	result := ResolveWithStats(items, action)
	return result.Bad, result.Good
}

// ResolveWithStats is [Resolve] with the number of action calls and splits attached.
// For n items the action is invoked at most 2n-1 times.
func ResolveWithStats[T any](items []T, action Action[T]) Result[T] {
	if action == nil {
		panic("bisect: nil action")
	}

	var result Result[T]
	if len(items) == 0 {
		return result
	}

	stack := [][]T{items[:len(items):len(items)]}
	for len(stack) > 0 {
		batch := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		result.Calls++
		if err := invoke(action, batch); err == nil {
			result.Good = append(result.Good, batch...)
			continue
		}

		if len(batch) == 1 {
			result.Bad = append(result.Bad, batch[0])
			continue
		}

		left, right := Split(batch)
		result.Splits++
		stack = append(stack, left, right)
	}

	return result
}

// ResolveIterator drains a finite iterator and resolves its items as one batch.
// Only an error from the iterator is returned.
func ResolveIterator[T any](iter iterator.Iterator[T], action Action[T]) ([]T, []T, error) {
	items, err := iterator.Collect(iter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to collect items: %w", err)
	}

	bad, good := Resolve(items, action)
	return bad, good, nil
}

func invoke[T any](action Action[T], batch []T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrActionPanicked, r)
		}
	}()

	return action(batch)
}
