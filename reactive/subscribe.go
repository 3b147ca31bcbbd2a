package reactive

import (
	"context"
	"sync"

	"github.com/kbukum/fluxkit/logger"
)

// SubscriberFuncs builds a Subscriber from optional callbacks.
type SubscriberFuncs[T any] struct {
	// OnSubscribe defaults to requesting Unbounded.
	OnSubscribe func(s Subscription)
	OnNext      func(v T)
	// OnError defaults to logging the error.
	OnError    func(err error)
	OnComplete func()
}

// Build returns a Subscriber that is also a handle on its subscription:
// Request and Cancel on it reach the upstream once subscribed, and a Cancel
// issued before that is applied on arrival.
func (f SubscriberFuncs[T]) Build() *LambdaSubscriber[T] {
	return &LambdaSubscriber[T]{funcs: f}
}

// LambdaSubscriber is the Subscriber built by SubscriberFuncs.
type LambdaSubscriber[T any] struct {
	funcs SubscriberFuncs[T]

	mu        sync.Mutex
	upstream  Subscription
	cancelled bool
}

func (l *LambdaSubscriber[T]) OnSubscribe(s Subscription) {
	l.mu.Lock()
	if l.cancelled {
		l.mu.Unlock()
		s.Cancel()
		return
	}
	l.upstream = s
	l.mu.Unlock()

	if l.funcs.OnSubscribe != nil {
		l.funcs.OnSubscribe(s)
		return
	}
	s.Request(Unbounded)
}

func (l *LambdaSubscriber[T]) OnNext(v T) {
	if l.funcs.OnNext != nil {
		l.funcs.OnNext(v)
	}
}

func (l *LambdaSubscriber[T]) OnError(err error) {
	if l.funcs.OnError != nil {
		l.funcs.OnError(err)
		return
	}
	logger.Get("reactive").WithError(err).Error("unhandled stream error")
}

func (l *LambdaSubscriber[T]) OnComplete() {
	if l.funcs.OnComplete != nil {
		l.funcs.OnComplete()
	}
}

func (l *LambdaSubscriber[T]) Request(n int64) {
	l.mu.Lock()
	up := l.upstream
	l.mu.Unlock()
	if up != nil {
		up.Request(n)
	}
}

func (l *LambdaSubscriber[T]) Cancel() {
	l.mu.Lock()
	if l.cancelled {
		l.mu.Unlock()
		return
	}
	l.cancelled = true
	up := l.upstream
	l.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}

// Subscribe consumes p with unbounded demand and returns the subscription.
// Nil callbacks are ignored, except onError which falls back to logging.
func Subscribe[T any](p Publisher[T], onNext func(T), onError func(error), onComplete func()) Subscription {
	return SubscribeWith(p, SubscriberFuncs[T]{
		OnNext:     onNext,
		OnError:    onError,
		OnComplete: onComplete,
	})
}

// SubscribeWith consumes p with the given callbacks and returns the
// subscription.
func SubscribeWith[T any](p Publisher[T], funcs SubscriberFuncs[T]) Subscription {
	l := funcs.Build()
	p.Subscribe(l)
	return l
}

// BatchedSubscriber requests limit items on subscribe and limit more after
// every limit items delivered, so at most limit items are ever outstanding.
type BatchedSubscriber[T any] struct {
	LambdaSubscriber[T]
	limit     int64
	delivered int64
}

// Batched creates a BatchedSubscriber. A limit below 1 is treated as 1.
func Batched[T any](limit int64, onNext func(T), onError func(error), onComplete func()) *BatchedSubscriber[T] {
	if limit < 1 {
		limit = 1
	}
	b := &BatchedSubscriber[T]{limit: limit}
	b.funcs = SubscriberFuncs[T]{
		OnSubscribe: func(s Subscription) { s.Request(limit) },
		OnNext:      onNext,
		OnError:     onError,
		OnComplete:  onComplete,
	}
	return b
}

func (b *BatchedSubscriber[T]) OnNext(v T) {
	b.LambdaSubscriber.OnNext(v)
	b.delivered++
	if b.delivered == b.limit {
		b.delivered = 0
		b.Request(b.limit)
	}
}

// SubscribeBatched consumes p with a BatchedSubscriber and returns it.
func SubscribeBatched[T any](p Publisher[T], limit int64, onNext func(T), onError func(error), onComplete func()) *BatchedSubscriber[T] {
	b := Batched(limit, onNext, onError, onComplete)
	p.Subscribe(b)
	return b
}

// Collect subscribes to p with unbounded demand and blocks until it
// terminates or ctx is done. On cancellation it returns the items received
// so far together with ctx.Err().
func Collect[T any](ctx context.Context, p Publisher[T]) ([]T, error) {
	var (
		mu    sync.Mutex
		items []T
		err   error
	)
	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	sub := SubscribeWith(p, SubscriberFuncs[T]{
		OnNext: func(v T) {
			mu.Lock()
			items = append(items, v)
			mu.Unlock()
		},
		OnError: func(e error) {
			mu.Lock()
			err = e
			mu.Unlock()
			finish()
		},
		OnComplete: finish,
	})

	select {
	case <-done:
	case <-ctx.Done():
		sub.Cancel()
		mu.Lock()
		defer mu.Unlock()
		return append([]T(nil), items...), ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	return items, err
}

// BlockLast subscribes to p and blocks until it terminates, returning the
// last item. ok is false when p completed without items.
func BlockLast[T any](ctx context.Context, p Publisher[T]) (last T, ok bool, err error) {
	var mu sync.Mutex
	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	sub := SubscribeWith(p, SubscriberFuncs[T]{
		OnNext: func(v T) {
			mu.Lock()
			last, ok = v, true
			mu.Unlock()
		},
		OnError: func(e error) {
			mu.Lock()
			err = e
			mu.Unlock()
			finish()
		},
		OnComplete: finish,
	})

	select {
	case <-done:
	case <-ctx.Done():
		sub.Cancel()
		mu.Lock()
		defer mu.Unlock()
		return last, ok, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	return last, ok, err
}
