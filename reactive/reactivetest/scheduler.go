package reactivetest

import (
	"sync"
	"time"

	"github.com/kbukum/fluxkit/reactive"
)

// VirtualScheduler is a reactive.Scheduler driven by Advance instead of the
// wall clock. Tasks run on the goroutine calling Advance, in due-time order
// and, for equal due times, in scheduling order.
type VirtualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int64
	tasks []*virtualTask
}

// NewVirtualScheduler returns a scheduler whose clock starts at zero.
func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{}
}

var _ reactive.Scheduler = (*VirtualScheduler)(nil)

type virtualTask struct {
	s       *VirtualScheduler
	at      time.Duration
	seq     int64
	fn      func()
	stopped bool
	ran     bool
}

// Schedule registers fn to run once the clock has advanced by d.
func (v *VirtualScheduler) Schedule(d time.Duration, fn func()) reactive.Task {
	if d < 0 {
		d = 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	t := &virtualTask{s: v, at: v.now + d, seq: v.seq, fn: fn}
	v.tasks = append(v.tasks, t)
	return t
}

func (t *virtualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.ran {
		return false
	}
	t.stopped = true
	t.s.remove(t)
	return true
}

// Advance moves the clock forward by d, running every task that becomes due,
// including tasks scheduled by those tasks.
func (v *VirtualScheduler) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now + d
	v.mu.Unlock()

	for {
		v.mu.Lock()
		t := v.earliest()
		if t == nil || t.at > target {
			v.now = target
			v.mu.Unlock()
			return
		}
		v.remove(t)
		t.ran = true
		if t.at > v.now {
			v.now = t.at
		}
		v.mu.Unlock()

		t.fn()
	}
}

// Now returns the virtual time elapsed since creation.
func (v *VirtualScheduler) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Pending returns the number of tasks waiting to run.
func (v *VirtualScheduler) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tasks)
}

func (v *VirtualScheduler) earliest() *virtualTask {
	var best *virtualTask
	for _, t := range v.tasks {
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (v *VirtualScheduler) remove(t *virtualTask) {
	for i, x := range v.tasks {
		if x == t {
			v.tasks = append(v.tasks[:i], v.tasks[i+1:]...)
			return
		}
	}
}
