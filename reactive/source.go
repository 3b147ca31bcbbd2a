package reactive

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/kbukum/fluxkit/errors"
)

// FromIterator creates a publisher that builds a fresh Iterator per
// subscription and pulls one value per unit of demand. The iterator's
// context is cancelled and the iterator closed when the subscription ends.
func FromIterator[T any](factory func(ctx context.Context) Iterator[T]) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		ctx, cancel := context.WithCancel(context.Background())
		sub := &iterSubscription[T]{
			actual: s,
			iter:   factory(ctx),
			ctx:    ctx,
			stop:   cancel,
		}
		empty := sub.exhausted()
		s.OnSubscribe(sub)
		if empty && !sub.cancelled.Load() {
			sub.complete()
		}
	})
}

// FromSlice creates a publisher that emits the items of s in order.
func FromSlice[T any](items []T) Publisher[T] {
	if len(items) == 0 {
		return Empty[T]()
	}
	return FromIterator(func(context.Context) Iterator[T] {
		return &sliceIter[T]{items: items}
	})
}

// Just creates a publisher that emits the given values in order.
func Just[T any](values ...T) Publisher[T] {
	return FromSlice(values)
}

// Range emits count consecutive integers starting at start. A negative
// count, or one whose last value would overflow int, fails with
// INVALID_INPUT.
func Range(start, count int) Publisher[int] {
	if count < 0 {
		return Error[int](errors.InvalidInput("count", "range count must not be negative"))
	}
	if count == 0 {
		return Empty[int]()
	}
	if start > math.MaxInt-(count-1) {
		return Error[int](errors.InvalidInput("count", "range end overflows int"))
	}
	return FromIterator(func(context.Context) Iterator[int] {
		return &rangeIter{next: start, remaining: count}
	})
}

// FromCallable emits the result of fn once, on the first request. An error
// from fn becomes an UPSTREAM_ERROR.
func FromCallable[T any](fn func() (T, error)) Publisher[T] {
	return FromIterator(func(context.Context) Iterator[T] {
		return &callableIter[T]{fn: fn}
	})
}

// Defer calls factory for every subscription and subscribes to its result.
func Defer[T any](factory func() Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		factory().Subscribe(s)
	})
}

// Empty completes without emitting.
func Empty[T any]() Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		sub := &scalarSubscription[T]{actual: s}
		s.OnSubscribe(sub)
		sub.terminate(CompleteSignal[T]())
	})
}

// Error fails immediately with err wrapped as UPSTREAM_ERROR.
func Error[T any](err error) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		sub := &scalarSubscription[T]{actual: s}
		s.OnSubscribe(sub)
		sub.terminate(ErrorSignal[T](errors.Upstream(err)))
	})
}

// Never emits nothing and never terminates unless a request is invalid.
func Never[T any]() Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		s.OnSubscribe(&scalarSubscription[T]{actual: s})
	})
}

// scalarSubscription backs sources that emit no items. It only has to guard
// the single terminal signal. The signal is delivered after the flag flips so
// a subscriber may cancel from inside OnError or OnComplete.
type scalarSubscription[T any] struct {
	actual Subscriber[T]
	done   atomic.Bool
}

func (s *scalarSubscription[T]) terminate(sig Signal[T]) {
	if s.done.CompareAndSwap(false, true) {
		sig.Deliver(s.actual)
	}
}

func (s *scalarSubscription[T]) Request(n int64) {
	if n <= 0 {
		s.terminate(ErrorSignal[T](errors.InvalidDemand(n)))
	}
}

func (s *scalarSubscription[T]) Cancel() {
	s.done.Store(true)
}

// iterSubscription emits iterator values with a drain loop. Demand is
// subtracted only after a batch, so a Request issued from inside OnNext sees
// non-zero demand and leaves the emission to the loop already running.
type iterSubscription[T any] struct {
	actual Subscriber[T]
	ctx    context.Context
	stop   context.CancelFunc
	demand demand

	mu     sync.Mutex
	iter   Iterator[T]
	closed bool

	cancelled atomic.Bool
	done      atomic.Bool
	invalid   atomic.Int64
	badDemand atomic.Bool
}

func (s *iterSubscription[T]) Request(n int64) {
	if s.cancelled.Load() || s.done.Load() {
		return
	}
	if n <= 0 {
		if s.badDemand.CompareAndSwap(false, true) {
			s.invalid.Store(n)
		}
		n = 1
	}
	if s.demand.add(n) == 0 {
		s.drain()
	}
}

func (s *iterSubscription[T]) Cancel() {
	if s.cancelled.CompareAndSwap(false, true) {
		s.release()
	}
}

func (s *iterSubscription[T]) drain() {
	var emitted int64
	r := s.demand.get()
	for {
		for emitted < r {
			if s.halted() {
				return
			}
			v, ok, err := s.next()
			if s.cancelled.Load() {
				return
			}
			if err != nil {
				s.fail(errors.Upstream(err))
				return
			}
			if !ok {
				s.complete()
				return
			}
			s.actual.OnNext(v)
			emitted++
			if s.exhausted() {
				if !s.cancelled.Load() {
					s.complete()
				}
				return
			}
		}
		if s.halted() {
			return
		}
		r = s.demand.produced(emitted)
		emitted = 0
		if r == 0 {
			return
		}
	}
}

// halted checks for cancellation and pending invalid demand before each item.
func (s *iterSubscription[T]) halted() bool {
	if s.cancelled.Load() {
		return true
	}
	if s.badDemand.Load() {
		s.fail(errors.InvalidDemand(s.invalid.Load()))
		return true
	}
	return false
}

func (s *iterSubscription[T]) next() (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		var zero T
		return zero, false, nil
	}
	return s.iter.Next(s.ctx)
}

func (s *iterSubscription[T]) exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	e, ok := s.iter.(exhaustible)
	return ok && !e.HasNext()
}

func (s *iterSubscription[T]) release() {
	s.stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.iter.Close()
}

func (s *iterSubscription[T]) complete() {
	if s.done.CompareAndSwap(false, true) {
		s.release()
		s.actual.OnComplete()
	}
}

func (s *iterSubscription[T]) fail(err error) {
	if s.done.CompareAndSwap(false, true) {
		s.cancelled.Store(true)
		s.release()
		s.actual.OnError(err)
	}
}
