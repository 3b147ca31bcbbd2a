package reactive

import (
	"fmt"
	"sync"

	"github.com/kbukum/fluxkit/errors"
)

// apply runs a stage function, turning errors and panics into TRANSFORM_ERROR.
func apply[I, O any](fn func(I) (O, error), v I) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Transform(fmt.Errorf("panic: %v", r))
		}
	}()
	out, err = fn(v)
	if err != nil {
		err = errors.Transform(err)
	}
	return out, err
}

// --- Map ---

// Map transforms each item with fn. Demand passes through unchanged. An
// error from fn cancels upstream and terminates the stream.
func Map[I, O any](p Publisher[I], fn func(I) (O, error)) Publisher[O] {
	return PublisherFunc[O](func(s Subscriber[O]) {
		p.Subscribe(&mapSubscriber[I, O]{actual: s, fn: fn})
	})
}

type mapSubscriber[I, O any] struct {
	actual   Subscriber[O]
	fn       func(I) (O, error)
	upstream Subscription
	done     bool
}

func (m *mapSubscriber[I, O]) OnSubscribe(s Subscription) {
	m.upstream = s
	m.actual.OnSubscribe(s)
}

func (m *mapSubscriber[I, O]) OnNext(v I) {
	if m.done {
		return
	}
	out, err := apply(m.fn, v)
	if err != nil {
		m.done = true
		m.upstream.Cancel()
		m.actual.OnError(err)
		return
	}
	m.actual.OnNext(out)
}

func (m *mapSubscriber[I, O]) OnError(err error) {
	if m.done {
		return
	}
	m.done = true
	m.actual.OnError(err)
}

func (m *mapSubscriber[I, O]) OnComplete() {
	if m.done {
		return
	}
	m.done = true
	m.actual.OnComplete()
}

// --- Filter ---

// Filter forwards items for which pred returns true. Each rejected item is
// replaced by a Request(1) upstream so downstream demand is still met.
func Filter[T any](p Publisher[T], pred func(T) (bool, error)) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		p.Subscribe(&filterSubscriber[T]{actual: s, pred: pred})
	})
}

type filterSubscriber[T any] struct {
	actual   Subscriber[T]
	pred     func(T) (bool, error)
	upstream Subscription
	done     bool
}

func (f *filterSubscriber[T]) OnSubscribe(s Subscription) {
	f.upstream = s
	f.actual.OnSubscribe(s)
}

func (f *filterSubscriber[T]) OnNext(v T) {
	if f.done {
		return
	}
	keep, err := apply(f.pred, v)
	if err != nil {
		f.done = true
		f.upstream.Cancel()
		f.actual.OnError(err)
		return
	}
	if keep {
		f.actual.OnNext(v)
		return
	}
	f.upstream.Request(1)
}

func (f *filterSubscriber[T]) OnError(err error) {
	if f.done {
		return
	}
	f.done = true
	f.actual.OnError(err)
}

func (f *filterSubscriber[T]) OnComplete() {
	if f.done {
		return
	}
	f.done = true
	f.actual.OnComplete()
}

// --- DoOnNext ---

// DoOnNext runs fn for each item before forwarding it. An error from fn
// fails the stream like a Map error.
func DoOnNext[T any](p Publisher[T], fn func(T) error) Publisher[T] {
	return Map(p, func(v T) (T, error) {
		return v, fn(v)
	})
}

// --- DoOnTerminate / DoOnCancel ---

// DoOnTerminate runs fn just before an Error or Complete is forwarded.
func DoOnTerminate[T any](p Publisher[T], fn func()) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		p.Subscribe(&peekSubscriber[T]{actual: s, onTerminate: fn})
	})
}

// DoOnCancel runs fn once when the downstream cancels.
func DoOnCancel[T any](p Publisher[T], fn func()) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		p.Subscribe(&peekSubscriber[T]{actual: s, onCancel: fn})
	})
}

type peekSubscriber[T any] struct {
	actual      Subscriber[T]
	onTerminate func()
	onCancel    func()
	upstream    Subscription
	cancelOnce  sync.Once
}

func (p *peekSubscriber[T]) OnSubscribe(s Subscription) {
	p.upstream = s
	p.actual.OnSubscribe(p)
}

func (p *peekSubscriber[T]) OnNext(v T) { p.actual.OnNext(v) }

func (p *peekSubscriber[T]) OnError(err error) {
	if p.onTerminate != nil {
		p.onTerminate()
	}
	p.actual.OnError(err)
}

func (p *peekSubscriber[T]) OnComplete() {
	if p.onTerminate != nil {
		p.onTerminate()
	}
	p.actual.OnComplete()
}

func (p *peekSubscriber[T]) Request(n int64) { p.upstream.Request(n) }

func (p *peekSubscriber[T]) Cancel() {
	p.cancelOnce.Do(func() {
		if p.onCancel != nil {
			p.onCancel()
		}
	})
	p.upstream.Cancel()
}

// --- Take ---

// Take forwards the first n items, then cancels upstream and completes.
func Take[T any](p Publisher[T], n int64) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		p.Subscribe(&takeSubscriber[T]{actual: s, remaining: n})
	})
}

type takeSubscriber[T any] struct {
	actual    Subscriber[T]
	remaining int64
	upstream  Subscription
	done      bool
}

func (t *takeSubscriber[T]) OnSubscribe(s Subscription) {
	t.upstream = s
	if t.remaining <= 0 {
		t.done = true
		s.Cancel()
		t.actual.OnSubscribe(noopSubscription{})
		t.actual.OnComplete()
		return
	}
	t.actual.OnSubscribe(s)
}

func (t *takeSubscriber[T]) OnNext(v T) {
	if t.done {
		return
	}
	t.remaining--
	if t.remaining > 0 {
		t.actual.OnNext(v)
		return
	}
	t.done = true
	t.upstream.Cancel()
	t.actual.OnNext(v)
	t.actual.OnComplete()
}

func (t *takeSubscriber[T]) OnError(err error) {
	if t.done {
		return
	}
	t.done = true
	t.actual.OnError(err)
}

func (t *takeSubscriber[T]) OnComplete() {
	if t.done {
		return
	}
	t.done = true
	t.actual.OnComplete()
}
