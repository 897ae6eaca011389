package iterator

import "fmt"

// ErrFinished is returned by Next once an iterator has no more items.
var ErrFinished = fmt.Errorf("iterator has finished")

type Iterator[T any] interface {
	HasNext() bool
	Next() (T, error)
}

// Collect returns a new slice containing all the items from an [Iterator].
func Collect[T any](iter Iterator[T]) ([]T, error) {
	var result []T
	for iter.HasNext() {
		value, err := iter.Next()
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, nil
}

// Flatten drains an iterator of batches into a single slice.
func Flatten[T any](iter Iterator[[]T]) ([]T, error) {
	var result []T
	for iter.HasNext() {
		items, err := iter.Next()
		if err != nil {
			return nil, err
		}
		result = append(result, items...)
	}
	return result, nil
}
