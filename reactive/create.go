package reactive

import (
	"fmt"
	"sync"

	"github.com/kbukum/fluxkit/errors"
)

// State is the lifecycle state of an Emitter.
type State int

const (
	// StateIdle accepts Next calls.
	StateIdle State = iota
	// StateEmitting is delivering an item to the subscriber.
	StateEmitting
	// StateCompleted has delivered a terminal signal.
	StateCompleted
	// StateCancelled was cancelled by the subscriber or by invalid demand.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEmitting:
		return "emitting"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Create builds a publisher from a callback that pushes values through an
// Emitter. The callback runs once per subscription, after OnSubscribe.
//
// The emitter never buffers: Next returns false when there is no demand and
// the value is not delivered. Producers register OnRequest to resume when
// demand arrives.
//
//	src := reactive.Create(func(e *reactive.Emitter[string]) {
//	    e.OnRequest(func(n int64) {
//	        for e.Requested() > 0 && !done() {
//	            e.Next(produce())
//	        }
//	    })
//	})
func Create[T any](fn func(e *Emitter[T])) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		e := &Emitter[T]{out: newSerializer(s)}
		s.OnSubscribe(emitterSubscription[T]{e})
		if e.IsCancelled() {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				e.Error(fmt.Errorf("create: panic: %v", r))
			}
		}()
		fn(e)
	})
}

// Emitter is the producer side of a Create publisher. It is safe for
// concurrent use; a Next that races with another Next returns false.
//
// OnRequest hooks never run concurrently or reentrantly. Demand that arrives
// while a hook is running is handed to the hooks again once it returns.
type Emitter[T any] struct {
	out    *serializer[T]
	demand demand

	mu        sync.Mutex
	state     State
	running   bool
	missed    int64
	pending   *Signal[T]
	onRequest []func(int64)
	onCancel  []func()
}

// Next delivers v if demand is outstanding and reports whether it did.
func (e *Emitter[T]) Next(v T) bool {
	e.mu.Lock()
	if e.state != StateIdle || !e.demand.tryTake() {
		e.mu.Unlock()
		return false
	}
	e.state = StateEmitting
	e.mu.Unlock()

	e.out.onNext(v)

	e.mu.Lock()
	var term *Signal[T]
	if e.state == StateEmitting {
		if e.pending != nil {
			term = e.pending
			e.pending = nil
			e.state = StateCompleted
		} else {
			e.state = StateIdle
		}
	}
	n, resume := e.claimMissed()
	hooks := e.onRequest
	e.mu.Unlock()

	if term != nil {
		e.out.emit(*term)
		return true
	}
	if resume {
		e.runHooks(hooks, n)
	}
	return true
}

// claimMissed takes the demand recorded while the emitter was busy and marks
// the hooks as running. It must be called with mu held.
func (e *Emitter[T]) claimMissed() (int64, bool) {
	if e.running || e.state != StateIdle || e.missed == 0 {
		return 0, false
	}
	n := e.missed
	e.missed = 0
	e.running = true
	return n, true
}

// runHooks calls hooks with n, then keeps calling the registered hooks with
// any demand missed in the meantime. The caller must have set running.
func (e *Emitter[T]) runHooks(hooks []func(int64), n int64) {
	for {
		for _, h := range hooks {
			h(n)
		}
		e.mu.Lock()
		e.running = false
		if e.state == StateCompleted || e.state == StateCancelled {
			e.missed = 0
			e.mu.Unlock()
			return
		}
		var resume bool
		n, resume = e.claimMissed()
		hooks = e.onRequest
		e.mu.Unlock()
		if !resume {
			return
		}
	}
}

// Error terminates the stream with err wrapped as UPSTREAM_ERROR.
func (e *Emitter[T]) Error(err error) {
	e.finish(ErrorSignal[T](errors.Upstream(err)))
}

// Complete terminates the stream successfully.
func (e *Emitter[T]) Complete() {
	e.finish(CompleteSignal[T]())
}

// finish delivers a terminal signal, deferring it until the in-flight Next
// returns when called from inside OnNext.
func (e *Emitter[T]) finish(sig Signal[T]) {
	e.mu.Lock()
	switch e.state {
	case StateIdle:
		e.state = StateCompleted
		e.mu.Unlock()
		e.out.emit(sig)
	case StateEmitting:
		if e.pending == nil {
			e.pending = &sig
		}
		e.mu.Unlock()
	default:
		e.mu.Unlock()
	}
}

// Requested returns the outstanding demand.
func (e *Emitter[T]) Requested() int64 { return e.demand.get() }

// State returns the current lifecycle state.
func (e *Emitter[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsCancelled reports whether the subscriber cancelled.
func (e *Emitter[T]) IsCancelled() bool { return e.State() == StateCancelled }

// OnRequest registers fn to run with every new request amount. If demand is
// already outstanding fn runs immediately with it, unless a hook is running.
func (e *Emitter[T]) OnRequest(fn func(n int64)) {
	e.mu.Lock()
	e.onRequest = append(e.onRequest, fn)
	r := e.demand.get()
	if e.running || e.state != StateIdle || r == 0 {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.runHooks([]func(int64){fn}, r)
}

// OnCancel registers fn to run once when the subscription is cancelled.
func (e *Emitter[T]) OnCancel(fn func()) {
	e.mu.Lock()
	if e.state == StateCancelled {
		e.mu.Unlock()
		fn()
		return
	}
	e.onCancel = append(e.onCancel, fn)
	e.mu.Unlock()
}

func (e *Emitter[T]) request(n int64) {
	if n <= 0 {
		if e.cancel() {
			e.out.onError(errors.InvalidDemand(n))
		}
		return
	}

	e.mu.Lock()
	if e.state == StateCompleted || e.state == StateCancelled {
		e.mu.Unlock()
		return
	}
	e.demand.add(n)
	if e.running || e.state == StateEmitting {
		e.missed = addCap(e.missed, n)
		e.mu.Unlock()
		return
	}
	e.running = true
	hooks := e.onRequest
	e.mu.Unlock()

	e.runHooks(hooks, n)
}

// cancel moves to StateCancelled and runs the cancel hooks. It reports
// whether this call performed the transition.
func (e *Emitter[T]) cancel() bool {
	e.mu.Lock()
	if e.state == StateCompleted || e.state == StateCancelled {
		e.mu.Unlock()
		return false
	}
	e.state = StateCancelled
	hooks := e.onCancel
	e.onCancel = nil
	e.mu.Unlock()

	for _, h := range hooks {
		h()
	}
	return true
}

type emitterSubscription[T any] struct {
	e *Emitter[T]
}

func (s emitterSubscription[T]) Request(n int64) { s.e.request(n) }
func (s emitterSubscription[T]) Cancel()         { s.e.cancel() }
