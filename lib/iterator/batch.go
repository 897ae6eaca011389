package iterator

type batchIterator[T any] struct {
	iter Iterator[T]
	step int
}

// Batch returns an iterator that groups the items of iter into batches of at most step items.
func Batch[T any](iter Iterator[T], step int) Iterator[[]T] {
	return &batchIterator[T]{
		iter: iter,
		step: max(step, 1),
	}
}

func (bi *batchIterator[T]) HasNext() bool {
	return bi.iter.HasNext()
}

func (bi *batchIterator[T]) Next() ([]T, error) {
	if !bi.HasNext() {
		return nil, ErrFinished
	}

	buffer := make([]T, 0, bi.step)
	for bi.HasNext() && len(buffer) < bi.step {
		item, err := bi.iter.Next()
		if err != nil {
			return nil, err
		}
		buffer = append(buffer, item)
	}

	return buffer, nil
}

// Chunk splits items into contiguous chunks of size items. The last chunk may be shorter.
// A size below one is treated as one.
func Chunk[T any](items []T, size int) [][]T {
	size = max(size, 1)
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
