package reactive

import (
	"sync"
	"sync/atomic"

	"github.com/kbukum/fluxkit/errors"
)

// FlatMap maps each upstream item to an inner publisher and emits the inner
// items. Inners run one at a time: the next upstream item is requested only
// after the current inner completes and downstream demand is outstanding.
// Output order therefore follows upstream order, and downstream demand is
// carried from one inner to the next.
//
// Any error (from fn, an inner, or upstream) cancels upstream and the
// in-flight inner and is emitted once. A nil inner publisher is treated as
// empty.
func FlatMap[I, O any](p Publisher[I], fn func(I) (Publisher[O], error)) Publisher[O] {
	return PublisherFunc[O](func(s Subscriber[O]) {
		p.Subscribe(&flatMapMain[I, O]{out: newSerializer(s), fn: fn})
	})
}

type flatMapMain[I, O any] struct {
	out      *serializer[O]
	fn       func(I) (Publisher[O], error)
	upstream Subscription
	inner    arbiter
	done     atomic.Bool

	mu           sync.Mutex
	awaiting     bool // one upstream item requested, not yet received
	innerActive  bool
	upstreamDone bool
}

func (f *flatMapMain[I, O]) OnSubscribe(s Subscription) {
	f.upstream = s
	f.out.actual.OnSubscribe(f)
}

func (f *flatMapMain[I, O]) OnNext(v I) {
	if f.done.Load() {
		return
	}
	f.mu.Lock()
	f.awaiting = false
	f.innerActive = true
	f.mu.Unlock()

	inner, err := apply(f.fn, v)
	if err != nil {
		f.fail(err)
		return
	}
	if inner == nil {
		f.innerComplete()
		return
	}
	inner.Subscribe(&flatMapInner[I, O]{parent: f})
}

func (f *flatMapMain[I, O]) OnError(err error) {
	f.fail(err)
}

func (f *flatMapMain[I, O]) OnComplete() {
	f.mu.Lock()
	f.upstreamDone = true
	active := f.innerActive
	f.mu.Unlock()

	if !active {
		f.complete()
	}
}

func (f *flatMapMain[I, O]) Request(n int64) {
	if f.done.Load() {
		return
	}
	if n <= 0 {
		f.fail(errors.InvalidDemand(n))
		return
	}
	f.inner.request(n)
	f.pull()
}

func (f *flatMapMain[I, O]) Cancel() {
	if f.done.CompareAndSwap(false, true) {
		f.upstream.Cancel()
		f.inner.cancel()
	}
}

// pull requests the next upstream item when the stage is idle and
// downstream still wants items.
func (f *flatMapMain[I, O]) pull() {
	f.mu.Lock()
	if f.awaiting || f.innerActive || f.upstreamDone || f.done.Load() || f.inner.outstanding() == 0 {
		f.mu.Unlock()
		return
	}
	f.awaiting = true
	f.mu.Unlock()

	f.upstream.Request(1)
}

func (f *flatMapMain[I, O]) innerComplete() {
	f.inner.clear()

	f.mu.Lock()
	f.innerActive = false
	finished := f.upstreamDone
	f.mu.Unlock()

	if finished {
		f.complete()
		return
	}
	f.pull()
}

func (f *flatMapMain[I, O]) complete() {
	if f.done.CompareAndSwap(false, true) {
		f.out.onComplete()
	}
}

func (f *flatMapMain[I, O]) fail(err error) {
	if f.done.CompareAndSwap(false, true) {
		f.upstream.Cancel()
		f.inner.cancel()
		f.out.onError(err)
	}
}

type flatMapInner[I, O any] struct {
	parent *flatMapMain[I, O]
}

func (in *flatMapInner[I, O]) OnSubscribe(s Subscription) {
	if in.parent.done.Load() {
		s.Cancel()
		return
	}
	in.parent.inner.set(s)
}

func (in *flatMapInner[I, O]) OnNext(v O) {
	if in.parent.done.Load() {
		return
	}
	in.parent.inner.produced(1)
	in.parent.out.onNext(v)
}

func (in *flatMapInner[I, O]) OnError(err error) {
	in.parent.fail(err)
}

func (in *flatMapInner[I, O]) OnComplete() {
	if in.parent.done.Load() {
		return
	}
	in.parent.innerComplete()
}
