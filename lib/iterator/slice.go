package iterator

type sliceIterator[T any] struct {
	index int
	items []T
}

// FromSlice returns an iterator over the items of a slice.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIterator[T]{items: items}
}

func (it *sliceIterator[T]) HasNext() bool {
	return it.index < len(it.items)
}

func (it *sliceIterator[T]) Next() (T, error) {
	if !it.HasNext() {
		var zero T
		return zero, ErrFinished
	}
	item := it.items[it.index]
	it.index++
	return item, nil
}

// Once returns an iterator that produces a value once and then completes.
func Once[T any](value T) Iterator[T] {
	return FromSlice([]T{value})
}

// FromBatches returns an iterator over predefined batches, empty ones included.
func FromBatches[T any](batches ...[]T) Iterator[[]T] {
	return FromSlice(batches)
}
