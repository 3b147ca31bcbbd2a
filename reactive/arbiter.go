package reactive

import "sync"

// arbiter forwards downstream demand to a replaceable upstream subscription.
// Operators that switch sources over time (FlatMap inners, Retry attempts,
// Concat) keep the outstanding demand here and hand it to each new source.
type arbiter struct {
	mu        sync.Mutex
	current   Subscription
	requested int64
	cancelled bool
}

// set makes s the current upstream and requests the outstanding demand from it.
func (a *arbiter) set(s Subscription) {
	a.mu.Lock()
	if a.cancelled {
		a.mu.Unlock()
		s.Cancel()
		return
	}
	a.current = s
	r := a.requested
	a.mu.Unlock()

	if r > 0 {
		s.Request(r)
	}
}

// request adds n to the outstanding demand and forwards it to the current upstream.
func (a *arbiter) request(n int64) {
	a.mu.Lock()
	if a.cancelled {
		a.mu.Unlock()
		return
	}
	a.requested = addCap(a.requested, n)
	cur := a.current
	a.mu.Unlock()

	if cur != nil {
		cur.Request(n)
	}
}

// produced records n delivered items.
func (a *arbiter) produced(n int64) {
	a.mu.Lock()
	if a.requested != Unbounded {
		a.requested -= n
		if a.requested < 0 {
			a.requested = 0
		}
	}
	a.mu.Unlock()
}

// outstanding returns the demand not yet satisfied.
func (a *arbiter) outstanding() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requested
}

// clear detaches the current upstream after it terminated.
func (a *arbiter) clear() {
	a.mu.Lock()
	a.current = nil
	a.mu.Unlock()
}

// cancel cancels the current upstream and every upstream set afterwards.
func (a *arbiter) cancel() {
	a.mu.Lock()
	if a.cancelled {
		a.mu.Unlock()
		return
	}
	a.cancelled = true
	cur := a.current
	a.current = nil
	a.mu.Unlock()

	if cur != nil {
		cur.Cancel()
	}
}

func (a *arbiter) isCancelled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelled
}
