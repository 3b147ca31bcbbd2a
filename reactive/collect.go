package reactive

import (
	"sync"
	"sync/atomic"

	"github.com/kbukum/fluxkit/errors"
)

// CollectList gathers every item of p into one slice, emitted when p
// completes. Upstream is consumed without backpressure; the slice is held
// until downstream requests it.
func CollectList[T any](p Publisher[T]) Publisher[[]T] {
	return PublisherFunc[[]T](func(s Subscriber[[]T]) {
		p.Subscribe(&collectSubscriber[T]{out: newSerializer(s)})
	})
}

type collectSubscriber[T any] struct {
	out      *serializer[[]T]
	upstream Subscription

	mu           sync.Mutex
	items        []T
	requested    bool
	upstreamDone bool
	emitted      bool
	cancelled    bool
}

func (c *collectSubscriber[T]) OnSubscribe(s Subscription) {
	c.upstream = s
	c.out.actual.OnSubscribe(c)
	s.Request(Unbounded)
}

func (c *collectSubscriber[T]) OnNext(v T) {
	c.mu.Lock()
	if !c.cancelled {
		c.items = append(c.items, v)
	}
	c.mu.Unlock()
}

func (c *collectSubscriber[T]) OnError(err error) {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
	c.out.onError(err)
}

func (c *collectSubscriber[T]) OnComplete() {
	c.mu.Lock()
	c.upstreamDone = true
	c.mu.Unlock()
	c.tryEmit()
}

func (c *collectSubscriber[T]) Request(n int64) {
	if n <= 0 {
		c.Cancel()
		c.out.onError(errors.InvalidDemand(n))
		return
	}
	c.mu.Lock()
	c.requested = true
	c.mu.Unlock()
	c.tryEmit()
}

func (c *collectSubscriber[T]) Cancel() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	c.items = nil
	c.mu.Unlock()
	c.upstream.Cancel()
}

func (c *collectSubscriber[T]) tryEmit() {
	c.mu.Lock()
	if c.emitted || c.cancelled || !c.requested || !c.upstreamDone {
		c.mu.Unlock()
		return
	}
	c.emitted = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	if items == nil {
		items = []T{}
	}
	c.out.onNext(items)
	c.out.onComplete()
}

// Concat subscribes to each publisher in turn, starting the next one when
// the previous completes. Unmet downstream demand carries over.
func Concat[T any](ps ...Publisher[T]) Publisher[T] {
	if len(ps) == 0 {
		return Empty[T]()
	}
	return PublisherFunc[T](func(s Subscriber[T]) {
		c := &concatMain[T]{sources: ps, out: newSerializer(s)}
		s.OnSubscribe(c)
		c.subscribeNext()
	})
}

type concatMain[T any] struct {
	sources []Publisher[T]
	out     *serializer[T]
	arb     arbiter
	index   int
	wip     atomic.Int32
	done    atomic.Bool
}

func (c *concatMain[T]) Request(n int64) {
	if c.done.Load() {
		return
	}
	if n <= 0 {
		if c.done.CompareAndSwap(false, true) {
			c.arb.cancel()
			c.out.onError(errors.InvalidDemand(n))
		}
		return
	}
	c.arb.request(n)
}

func (c *concatMain[T]) Cancel() {
	if c.done.CompareAndSwap(false, true) {
		c.arb.cancel()
	}
}

// subscribeNext advances to the next source. Sources that complete
// synchronously are looped over instead of recursing.
func (c *concatMain[T]) subscribeNext() {
	if c.wip.Add(1) != 1 {
		return
	}
	for {
		if c.done.Load() {
			return
		}
		if c.index == len(c.sources) {
			if c.done.CompareAndSwap(false, true) {
				c.out.onComplete()
			}
			return
		}
		src := c.sources[c.index]
		c.index++
		src.Subscribe(&concatInner[T]{parent: c})
		if c.wip.Add(-1) == 0 {
			return
		}
	}
}

type concatInner[T any] struct {
	parent *concatMain[T]
}

func (in *concatInner[T]) OnSubscribe(s Subscription) { in.parent.arb.set(s) }

func (in *concatInner[T]) OnNext(v T) {
	if in.parent.done.Load() {
		return
	}
	in.parent.arb.produced(1)
	in.parent.out.onNext(v)
}

func (in *concatInner[T]) OnError(err error) {
	if in.parent.done.CompareAndSwap(false, true) {
		in.parent.arb.cancel()
		in.parent.out.onError(err)
	}
}

func (in *concatInner[T]) OnComplete() {
	in.parent.arb.clear()
	in.parent.subscribeNext()
}
