package reactive

import "context"

// Iterator provides pull-based sequential access to a stream of values.
// FromIterator turns any Iterator into a Publisher that pulls only as many
// values as were requested.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// exhaustible is implemented by iterators that know whether another value
// exists without producing it. Sources complete eagerly after the last value
// of such iterators instead of waiting for one more request.
type exhaustible interface {
	HasNext() bool
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) HasNext() bool { return it.index < len(it.items) }

func (it *sliceIter[T]) Close() error { return nil }

type rangeIter struct {
	next, remaining int
}

func (it *rangeIter) Next(_ context.Context) (int, bool, error) {
	if it.remaining == 0 {
		return 0, false, nil
	}
	v := it.next
	it.remaining--
	if it.remaining > 0 {
		it.next++
	}
	return v, true, nil
}

func (it *rangeIter) HasNext() bool { return it.remaining > 0 }

func (it *rangeIter) Close() error { return nil }

// callableIter yields the result of fn once.
type callableIter[T any] struct {
	fn     func() (T, error)
	called bool
}

func (it *callableIter[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	if it.called {
		return zero, false, nil
	}
	it.called = true
	v, err := it.fn()
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (it *callableIter[T]) HasNext() bool { return !it.called }

func (it *callableIter[T]) Close() error { return nil }
