package reactive

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/fluxkit/errors"
)

// Interval emits 0, 1, 2, ... once per period on the scheduler. The first
// tick fires after one period unless WithInitialDelay says otherwise.
//
// A tick that finds no outstanding demand emits nothing and suspends the
// timer; the next Request re-arms it immediately. Ticks are never buffered,
// so a slow consumer sees gaps in wall-clock time, not in the sequence.
func Interval(period time.Duration, opts ...Option) Publisher[int64] {
	o := buildOptions(opts)
	delay := period
	if o.hasDelay {
		delay = o.initialDelay
	}
	return PublisherFunc[int64](func(s Subscriber[int64]) {
		sub := &intervalSubscription{
			out:       newSerializer(s),
			scheduler: o.scheduler,
			period:    period,
		}
		s.OnSubscribe(sub)

		sub.mu.Lock()
		if !sub.cancelled.Load() {
			sub.task = sub.scheduler.Schedule(delay, sub.tick)
		}
		sub.mu.Unlock()
	})
}

type intervalSubscription struct {
	out       *serializer[int64]
	scheduler Scheduler
	period    time.Duration
	demand    demand
	cancelled atomic.Bool

	mu        sync.Mutex
	task      Task
	suspended bool
	count     int64
}

func (s *intervalSubscription) tick() {
	if s.cancelled.Load() {
		return
	}

	s.mu.Lock()
	s.task = nil
	if !s.demand.tryTake() {
		s.suspended = true
		s.mu.Unlock()
		return
	}
	v := s.count
	s.count++
	s.mu.Unlock()

	s.out.onNext(v)

	s.mu.Lock()
	if !s.cancelled.Load() && s.task == nil && !s.suspended {
		s.task = s.scheduler.Schedule(s.period, s.tick)
	}
	s.mu.Unlock()
}

func (s *intervalSubscription) Request(n int64) {
	if s.cancelled.Load() {
		return
	}
	if n <= 0 {
		if s.stop() {
			s.out.onError(errors.InvalidDemand(n))
		}
		return
	}
	if s.demand.add(n) != 0 {
		return
	}
	s.mu.Lock()
	if s.suspended && !s.cancelled.Load() {
		s.suspended = false
		s.task = s.scheduler.Schedule(0, s.tick)
	}
	s.mu.Unlock()
}

func (s *intervalSubscription) Cancel() {
	s.stop()
}

// stop cancels the subscription and its pending tick. It reports whether
// this call performed the cancellation.
func (s *intervalSubscription) stop() bool {
	if !s.cancelled.CompareAndSwap(false, true) {
		return false
	}
	s.mu.Lock()
	if s.task != nil {
		s.task.Stop()
		s.task = nil
	}
	s.mu.Unlock()
	return true
}
