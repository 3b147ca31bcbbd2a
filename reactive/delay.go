package reactive

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/fluxkit/errors"
)

// DelayElements shifts every item by d on the scheduler. Upstream is asked
// for one item at a time, and only while downstream demand is outstanding.
// Completion waits for the pending item; errors are forwarded immediately.
func DelayElements[T any](p Publisher[T], d time.Duration, opts ...Option) Publisher[T] {
	o := buildOptions(opts)
	return PublisherFunc[T](func(s Subscriber[T]) {
		p.Subscribe(&delaySubscriber[T]{
			out:       newSerializer(s),
			scheduler: o.scheduler,
			delay:     d,
		})
	})
}

type delaySubscriber[T any] struct {
	out       *serializer[T]
	scheduler Scheduler
	delay     time.Duration
	upstream  Subscription
	demand    demand
	cancelled atomic.Bool

	mu           sync.Mutex
	awaiting     bool // one item requested and not yet emitted
	scheduled    bool
	upstreamDone bool
	task         Task
}

func (d *delaySubscriber[T]) OnSubscribe(s Subscription) {
	d.upstream = s
	d.out.actual.OnSubscribe(d)
}

func (d *delaySubscriber[T]) OnNext(v T) {
	d.mu.Lock()
	if d.cancelled.Load() {
		d.mu.Unlock()
		return
	}
	d.scheduled = true
	d.task = d.scheduler.Schedule(d.delay, func() { d.emit(v) })
	d.mu.Unlock()
}

func (d *delaySubscriber[T]) emit(v T) {
	if d.cancelled.Load() {
		return
	}
	d.demand.produced(1)
	d.out.onNext(v)

	d.mu.Lock()
	d.task = nil
	d.scheduled = false
	d.awaiting = false
	finished := d.upstreamDone
	d.mu.Unlock()

	if finished {
		d.out.onComplete()
		return
	}
	d.pull()
}

func (d *delaySubscriber[T]) OnError(err error) {
	d.stopTask()
	d.out.onError(err)
}

func (d *delaySubscriber[T]) OnComplete() {
	d.mu.Lock()
	d.upstreamDone = true
	pending := d.scheduled
	d.mu.Unlock()

	if !pending {
		d.out.onComplete()
	}
}

func (d *delaySubscriber[T]) Request(n int64) {
	if d.cancelled.Load() {
		return
	}
	if n <= 0 {
		d.Cancel()
		d.out.onError(errors.InvalidDemand(n))
		return
	}
	d.demand.add(n)
	d.pull()
}

func (d *delaySubscriber[T]) Cancel() {
	if d.cancelled.CompareAndSwap(false, true) {
		d.stopTask()
		d.upstream.Cancel()
	}
}

func (d *delaySubscriber[T]) pull() {
	d.mu.Lock()
	if d.awaiting || d.upstreamDone || d.cancelled.Load() || d.demand.get() == 0 {
		d.mu.Unlock()
		return
	}
	d.awaiting = true
	d.mu.Unlock()

	d.upstream.Request(1)
}

func (d *delaySubscriber[T]) stopTask() {
	d.mu.Lock()
	if d.task != nil {
		d.task.Stop()
		d.task = nil
	}
	d.scheduled = false
	d.mu.Unlock()
}
