package reactivetest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/fluxkit/reactive"
)

// Recorder is a Subscriber that records every signal and checks the
// delivery rules while doing so: signals must not overlap, OnSubscribe comes
// first and once, and nothing follows a terminal signal. Rule breaks are
// collected in Violations.
//
// A signal delivered synchronously from a Request or Cancel the recorder
// issues inside a callback (the initial request in OnSubscribe, or one made
// by OnNextHook) is nested, not overlapping, and is allowed.
type Recorder[T any] struct {
	initial int64

	// OnNextHook, when set, runs inside OnNext after the item is recorded.
	OnNextHook func(v T)

	mu         sync.Mutex
	sub        reactive.Subscription
	items      []T
	err        error
	completed  bool
	subscribes int
	terminals  int
	violations []string
	inCallback atomic.Int32
	nested     atomic.Int32
	done       chan struct{}
	closeOnce  sync.Once
}

// NewRecorder returns a recorder that requests initial items on subscribe.
// Zero leaves all demand to the test.
func NewRecorder[T any](initial int64) *Recorder[T] {
	return &Recorder[T]{initial: initial, done: make(chan struct{})}
}

func (r *Recorder[T]) enter(signal string) {
	if r.inCallback.Add(1) > 1+r.nested.Load() {
		r.violate("overlapping %s", signal)
	}
}

func (r *Recorder[T]) exit() { r.inCallback.Add(-1) }

// reenter runs fn from inside a callback, permitting one level of nested
// delivery while it runs.
func (r *Recorder[T]) reenter(fn func()) {
	r.nested.Add(1)
	defer r.nested.Add(-1)
	fn()
}

func (r *Recorder[T]) violate(format string, args ...any) {
	r.mu.Lock()
	r.violations = append(r.violations, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *Recorder[T]) OnSubscribe(s reactive.Subscription) {
	r.enter("OnSubscribe")
	defer r.exit()

	r.mu.Lock()
	r.subscribes++
	if r.subscribes > 1 {
		r.mu.Unlock()
		r.violate("OnSubscribe called %d times", r.subscribes)
		return
	}
	r.sub = s
	r.mu.Unlock()

	if r.initial > 0 {
		r.reenter(func() { s.Request(r.initial) })
	}
}

func (r *Recorder[T]) OnNext(v T) {
	r.enter("OnNext")
	defer r.exit()

	r.mu.Lock()
	switch {
	case r.subscribes == 0:
		r.violations = append(r.violations, "OnNext before OnSubscribe")
	case r.terminals > 0:
		r.violations = append(r.violations, fmt.Sprintf("OnNext(%v) after terminal signal", v))
	}
	r.items = append(r.items, v)
	hook := r.OnNextHook
	r.mu.Unlock()

	if hook != nil {
		r.reenter(func() { hook(v) })
	}
}

func (r *Recorder[T]) OnError(err error) {
	r.enter("OnError")
	defer r.exit()
	r.terminal(func() { r.err = err })
}

func (r *Recorder[T]) OnComplete() {
	r.enter("OnComplete")
	defer r.exit()
	r.terminal(func() { r.completed = true })
}

func (r *Recorder[T]) terminal(record func()) {
	r.mu.Lock()
	r.terminals++
	if r.terminals > 1 {
		r.violations = append(r.violations, fmt.Sprintf("%d terminal signals", r.terminals))
	} else {
		record()
	}
	r.mu.Unlock()
	r.closeOnce.Do(func() { close(r.done) })
}

// Request forwards n to the subscription.
func (r *Recorder[T]) Request(n int64) {
	r.mu.Lock()
	s := r.sub
	r.mu.Unlock()
	if s != nil {
		s.Request(n)
	}
}

// Cancel cancels the subscription.
func (r *Recorder[T]) Cancel() {
	r.mu.Lock()
	s := r.sub
	r.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}

// Items returns a copy of the recorded items.
func (r *Recorder[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.items...)
}

// Err returns the recorded error, if any.
func (r *Recorder[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Completed reports whether OnComplete was received.
func (r *Recorder[T]) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// Terminals returns the number of terminal signals received.
func (r *Recorder[T]) Terminals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminals
}

// Violations returns the delivery-rule breaks observed so far.
func (r *Recorder[T]) Violations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.violations...)
}

// Done is closed on the first terminal signal.
func (r *Recorder[T]) Done() <-chan struct{} { return r.done }

// Await blocks until a terminal signal arrives or timeout elapses and
// reports whether the stream terminated.
func (r *Recorder[T]) Await(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
