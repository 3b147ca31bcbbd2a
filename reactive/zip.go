package reactive

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kbukum/fluxkit/errors"
)

const (
	zipPrefetch = 32
	zipLimit    = zipPrefetch - zipPrefetch/4
)

// Tuple2 pairs one item from each input of ZipPair.
type Tuple2[A, B any] struct {
	T1 A
	T2 B
}

// ZipPair combines a and b into pairs.
func ZipPair[A, B any](a Publisher[A], b Publisher[B]) Publisher[Tuple2[A, B]] {
	return Zip(a, b, func(x A, y B) (Tuple2[A, B], error) {
		return Tuple2[A, B]{T1: x, T2: y}, nil
	})
}

// Zip emits combine(a_i, b_i) for the i-th item of each input. It completes,
// cancelling the other input, as soon as one input has completed and all its
// items were paired. An error from either input or from combine cancels both
// inputs and is emitted immediately.
func Zip[A, B, O any](a Publisher[A], b Publisher[B], combine func(A, B) (O, error)) Publisher[O] {
	return PublisherFunc[O](func(s Subscriber[O]) {
		z := &zipCoordinator[A, B, O]{actual: s, combine: combine}
		z.a = &zipSide[A]{parent: z}
		z.b = &zipSide[B]{parent: z}
		s.OnSubscribe(z)
		if z.cancelled.Load() {
			return
		}
		a.Subscribe(z.a)
		b.Subscribe(z.b)
	})
}

type drainer interface {
	drain()
	failWith(err error)
}

type zipCoordinator[A, B, O any] struct {
	actual    Subscriber[O]
	combine   func(A, B) (O, error)
	a         *zipSide[A]
	b         *zipSide[B]
	demand    demand
	wip       atomic.Int32
	cancelled atomic.Bool

	errMu sync.Mutex
	err   error
}

func (z *zipCoordinator[A, B, O]) Request(n int64) {
	if n <= 0 {
		z.failWith(errors.InvalidDemand(n))
		return
	}
	z.demand.add(n)
	z.drain()
}

func (z *zipCoordinator[A, B, O]) Cancel() {
	if z.cancelled.CompareAndSwap(false, true) {
		z.a.cancel()
		z.b.cancel()
	}
}

func (z *zipCoordinator[A, B, O]) failWith(err error) {
	z.errMu.Lock()
	if z.err == nil {
		z.err = err
	}
	z.errMu.Unlock()
	z.drain()
}

func (z *zipCoordinator[A, B, O]) loadErr() error {
	z.errMu.Lock()
	defer z.errMu.Unlock()
	return z.err
}

// drain is the only place that signals downstream. Exactly one goroutine
// runs it at a time; concurrent calls are folded into the running one. On
// termination wip is left non-zero so no later call can emit again.
func (z *zipCoordinator[A, B, O]) drain() {
	if z.wip.Add(1) != 1 {
		return
	}
	missed := int32(1)
	for {
		if z.cancelled.Load() {
			return
		}
		if err := z.loadErr(); err != nil {
			z.terminate(ErrorSignal[O](err))
			return
		}

		var emitted int64
		r := z.demand.get()
		for emitted < r {
			va, okA := z.a.peek()
			vb, okB := z.b.peek()
			if !okA || !okB {
				break
			}
			z.a.poll()
			z.b.poll()

			out, err := z.pair(va, vb)
			if err != nil {
				z.terminate(ErrorSignal[O](err))
				return
			}
			z.actual.OnNext(out)
			emitted++
			if z.cancelled.Load() {
				return
			}
		}
		if emitted > 0 {
			z.demand.produced(emitted)
		}

		if z.a.finished() || z.b.finished() {
			z.terminate(CompleteSignal[O]())
			return
		}

		missed = z.wip.Add(-missed)
		if missed == 0 {
			return
		}
	}
}

func (z *zipCoordinator[A, B, O]) pair(a A, b B) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Transform(fmt.Errorf("panic: %v", r))
		}
	}()
	out, err = z.combine(a, b)
	if err != nil {
		err = errors.Transform(err)
	}
	return out, err
}

func (z *zipCoordinator[A, B, O]) terminate(sig Signal[O]) {
	z.cancelled.Store(true)
	z.a.cancel()
	z.b.cancel()
	sig.Deliver(z.actual)
}

// zipSide buffers one input with a bounded prefetch window and replenishes
// it after every zipLimit consumed items.
type zipSide[T any] struct {
	parent drainer

	mu        sync.Mutex
	sub       Subscription
	queue     []T
	done      bool
	cancelled bool
	consumed  int
}

func (s *zipSide[T]) OnSubscribe(sub Subscription) {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		sub.Cancel()
		return
	}
	s.sub = sub
	s.mu.Unlock()
	sub.Request(zipPrefetch)
}

func (s *zipSide[T]) OnNext(v T) {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	s.parent.drain()
}

func (s *zipSide[T]) OnError(err error) {
	s.parent.failWith(err)
}

func (s *zipSide[T]) OnComplete() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.parent.drain()
}

func (s *zipSide[T]) peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		var zero T
		return zero, false
	}
	return s.queue[0], true
}

// poll drops the head item and requests more once enough were consumed.
func (s *zipSide[T]) poll() {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	var zero T
	s.queue[0] = zero
	s.queue = s.queue[1:]
	s.consumed++
	var replenish Subscription
	if s.consumed == zipLimit {
		s.consumed = 0
		if !s.done && !s.cancelled {
			replenish = s.sub
		}
	}
	s.mu.Unlock()

	if replenish != nil {
		replenish.Request(zipLimit)
	}
}

// finished reports whether the input completed and every item was paired.
func (s *zipSide[T]) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done && len(s.queue) == 0
}

func (s *zipSide[T]) cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	sub := s.sub
	done := s.done
	s.queue = nil
	s.mu.Unlock()

	if sub != nil && !done {
		sub.Cancel()
	}
}
