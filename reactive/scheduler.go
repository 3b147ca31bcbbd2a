package reactive

import "time"

// Task is a scheduled function that can be stopped before it runs.
type Task interface {
	// Stop prevents the task from running. It reports whether the call
	// stopped the task before it ran.
	Stop() bool
}

// Scheduler runs functions after a delay. Timer-driven operators use it for
// every time-based decision, which lets tests substitute a virtual clock.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

type timeScheduler struct{}

// TimeScheduler returns a Scheduler backed by time.AfterFunc.
func TimeScheduler() Scheduler { return timeScheduler{} }

func (timeScheduler) Schedule(d time.Duration, fn func()) Task {
	return time.AfterFunc(d, fn)
}

type options struct {
	scheduler    Scheduler
	initialDelay time.Duration
	hasDelay     bool
}

// Option configures timer-driven operators.
type Option func(*options)

// WithScheduler runs the operator on s instead of the wall clock.
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithInitialDelay sets the delay before the first Interval tick.
// The default is one period.
func WithInitialDelay(d time.Duration) Option {
	return func(o *options) {
		o.initialDelay = d
		o.hasDelay = true
	}
}

func buildOptions(opts []Option) options {
	o := options{scheduler: TimeScheduler()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = TimeScheduler()
	}
	return o
}
