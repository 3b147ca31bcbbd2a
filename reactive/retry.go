package reactive

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/resilience"
)

// Retry re-subscribes to p after an error, at most times more times. Each new
// attempt is asked for the downstream demand that is still unmet. Once the
// retries are used up the last error is forwarded unchanged.
func Retry[T any](p Publisher[T], times int64) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		r := &retryMain[T]{
			source: p,
			out:    newSerializer(s),
			shouldRetry: func(attempt int, _ error) bool {
				return int64(attempt) <= times
			},
		}
		s.OnSubscribe(r)
		r.resubscribe()
	})
}

// RetryBackoff re-subscribes to p after an error using the retry policy of
// cfg: at most cfg.MaxAttempts subscriptions in total, only for errors
// accepted by cfg.RetryIf, each after cfg.Backoff.Next(attempt) on the
// scheduler. When the attempts are used up the stream fails with
// RETRY_EXHAUSTED wrapping the last error.
func RetryBackoff[T any](p Publisher[T], cfg resilience.RetryConfig, opts ...Option) Publisher[T] {
	cfg = cfg.WithDefaults()
	o := buildOptions(opts)
	return PublisherFunc[T](func(s Subscriber[T]) {
		r := &retryMain[T]{
			source:    p,
			out:       newSerializer(s),
			scheduler: o.scheduler,
			backoff:   cfg.Backoff,
			onRetry:   cfg.OnRetry,
		}
		r.shouldRetry = func(attempt int, err error) bool {
			return cfg.RetryIf(err) && attempt < cfg.MaxAttempts
		}
		r.exhausted = func(attempt int, err error) error {
			if !cfg.RetryIf(err) {
				return err
			}
			return errors.RetryExhausted(attempt, err)
		}
		s.OnSubscribe(r)
		r.resubscribe()
	})
}

type retryMain[T any] struct {
	source      Publisher[T]
	out         *serializer[T]
	arb         arbiter
	shouldRetry func(attempt int, err error) bool
	exhausted   func(attempt int, err error) error

	scheduler Scheduler
	backoff   resilience.Backoff
	onRetry   func(attempt int, err error, backoff time.Duration)

	attempts atomic.Int64
	current  atomic.Pointer[retryAttempt[T]]
	wip      atomic.Int32
	done     atomic.Bool

	mu   sync.Mutex
	task Task
}

func (r *retryMain[T]) Request(n int64) {
	if r.done.Load() {
		return
	}
	if n <= 0 {
		r.fail(errors.InvalidDemand(n))
		return
	}
	r.arb.request(n)
}

func (r *retryMain[T]) Cancel() {
	if r.done.CompareAndSwap(false, true) {
		r.arb.cancel()
		r.stopTask()
	}
}

// resubscribe starts the next attempt. Attempts that fail synchronously
// inside Subscribe are looped here instead of recursing.
func (r *retryMain[T]) resubscribe() {
	if r.wip.Add(1) != 1 {
		return
	}
	for {
		if r.done.Load() {
			return
		}
		r.attempts.Add(1)
		a := &retryAttempt[T]{parent: r}
		r.current.Store(a)
		r.source.Subscribe(a)
		if r.wip.Add(-1) == 0 {
			return
		}
	}
}

func (r *retryMain[T]) attemptFailed(a *retryAttempt[T], err error) {
	if r.done.Load() || r.current.Load() != a {
		return
	}
	attempt := int(r.attempts.Load())
	if !r.shouldRetry(attempt, err) {
		if r.exhausted != nil {
			err = r.exhausted(attempt, err)
		}
		r.fail(err)
		return
	}
	r.arb.clear()

	if r.scheduler == nil {
		r.resubscribe()
		return
	}
	delay := r.backoff.Next(attempt)
	if r.onRetry != nil {
		r.onRetry(attempt, err, delay)
	}
	r.mu.Lock()
	if !r.done.Load() {
		r.task = r.scheduler.Schedule(delay, func() {
			r.mu.Lock()
			r.task = nil
			r.mu.Unlock()
			r.resubscribe()
		})
	}
	r.mu.Unlock()
}

func (r *retryMain[T]) fail(err error) {
	if r.done.CompareAndSwap(false, true) {
		r.arb.cancel()
		r.stopTask()
		r.out.onError(err)
	}
}

func (r *retryMain[T]) complete() {
	if r.done.CompareAndSwap(false, true) {
		r.out.onComplete()
	}
}

func (r *retryMain[T]) stopTask() {
	r.mu.Lock()
	if r.task != nil {
		r.task.Stop()
		r.task = nil
	}
	r.mu.Unlock()
}

// retryAttempt subscribes to one attempt. Signals from an attempt that is no
// longer current are dropped.
type retryAttempt[T any] struct {
	parent *retryMain[T]
}

func (a *retryAttempt[T]) OnSubscribe(s Subscription) {
	if a.parent.done.Load() || a.parent.current.Load() != a {
		s.Cancel()
		return
	}
	a.parent.arb.set(s)
}

func (a *retryAttempt[T]) OnNext(v T) {
	if a.parent.done.Load() || a.parent.current.Load() != a {
		return
	}
	a.parent.arb.produced(1)
	a.parent.out.onNext(v)
}

func (a *retryAttempt[T]) OnError(err error) {
	a.parent.attemptFailed(a, err)
}

func (a *retryAttempt[T]) OnComplete() {
	if a.parent.current.Load() != a {
		return
	}
	a.parent.complete()
}
