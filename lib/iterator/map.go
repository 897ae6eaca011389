package iterator

type mapIterator[A any, B any] struct {
	iter      Iterator[A]
	transform func(A) (B, error)
}

// Map returns an iterator that applies transform to every item of iter.
func Map[A any, B any](iter Iterator[A], transform func(A) (B, error)) Iterator[B] {
	return &mapIterator[A, B]{
		iter:      iter,
		transform: transform,
	}
}

func (m *mapIterator[A, B]) HasNext() bool {
	return m.iter.HasNext()
}

func (m *mapIterator[A, B]) Next() (B, error) {
	item, err := m.iter.Next()
	if err != nil {
		var zero B
		return zero, err
	}

	return m.transform(item)
}
