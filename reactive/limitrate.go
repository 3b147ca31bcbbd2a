package reactive

import "sync"

// LimitRate caps every upstream request at n. Downstream demand is held back
// and re-requested in batches of at most n, each batch only after the
// previous one was fully delivered. Nothing is buffered.
func LimitRate[T any](p Publisher[T], n int64) Publisher[T] {
	if n <= 0 {
		n = 1
	}
	return PublisherFunc[T](func(s Subscriber[T]) {
		p.Subscribe(&limitRateSubscriber[T]{actual: s, limit: n})
	})
}

type limitRateSubscriber[T any] struct {
	actual   Subscriber[T]
	limit    int64
	upstream Subscription

	mu       sync.Mutex
	pending  int64 // requested downstream, not yet requested upstream
	inflight int64 // requested upstream, not yet delivered
	done     bool
}

func (l *limitRateSubscriber[T]) OnSubscribe(s Subscription) {
	l.upstream = s
	l.actual.OnSubscribe(l)
}

func (l *limitRateSubscriber[T]) OnNext(v T) {
	l.actual.OnNext(v)

	l.mu.Lock()
	if l.inflight > 0 {
		l.inflight--
	}
	batch := l.nextBatch()
	l.mu.Unlock()

	if batch > 0 {
		l.upstream.Request(batch)
	}
}

func (l *limitRateSubscriber[T]) OnError(err error) {
	l.mu.Lock()
	l.done = true
	l.mu.Unlock()
	l.actual.OnError(err)
}

func (l *limitRateSubscriber[T]) OnComplete() {
	l.mu.Lock()
	l.done = true
	l.mu.Unlock()
	l.actual.OnComplete()
}

func (l *limitRateSubscriber[T]) Request(n int64) {
	if n <= 0 {
		l.upstream.Request(n)
		return
	}
	l.mu.Lock()
	l.pending = addCap(l.pending, n)
	batch := l.nextBatch()
	l.mu.Unlock()

	if batch > 0 {
		l.upstream.Request(batch)
	}
}

func (l *limitRateSubscriber[T]) Cancel() {
	l.upstream.Cancel()
}

// nextBatch moves up to limit items of pending demand in flight once the
// previous batch has drained. Callers hold mu.
func (l *limitRateSubscriber[T]) nextBatch() int64 {
	if l.done || l.inflight > 0 || l.pending == 0 {
		return 0
	}
	batch := min(l.pending, l.limit)
	if l.pending != Unbounded {
		l.pending -= batch
	}
	l.inflight = batch
	return batch
}

// RequestSizes records every request amount a publisher receives. It backs
// the limitRate demo and tests that assert upstream request patterns.
type RequestSizes struct {
	mu    sync.Mutex
	sizes []int64
}

// Sizes returns a copy of the recorded request amounts.
func (r *RequestSizes) Sizes() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.sizes...)
}

// TrackRequests wraps p so that every Request reaching it is recorded in r.
func TrackRequests[T any](p Publisher[T], r *RequestSizes) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		p.Subscribe(&requestTracker[T]{actual: s, sizes: r})
	})
}

type requestTracker[T any] struct {
	actual   Subscriber[T]
	sizes    *RequestSizes
	upstream Subscription
}

func (t *requestTracker[T]) OnSubscribe(s Subscription) {
	t.upstream = s
	t.actual.OnSubscribe(t)
}

func (t *requestTracker[T]) OnNext(v T)        { t.actual.OnNext(v) }
func (t *requestTracker[T]) OnError(err error) { t.actual.OnError(err) }
func (t *requestTracker[T]) OnComplete()       { t.actual.OnComplete() }

func (t *requestTracker[T]) Request(n int64) {
	t.sizes.mu.Lock()
	t.sizes.sizes = append(t.sizes.sizes, n)
	t.sizes.mu.Unlock()
	t.upstream.Request(n)
}

func (t *requestTracker[T]) Cancel() { t.upstream.Cancel() }
