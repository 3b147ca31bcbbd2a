package reactive

import "sync/atomic"

// addCap adds two non-negative demands, saturating at Unbounded.
func addCap(a, b int64) int64 {
	if a > Unbounded-b {
		return Unbounded
	}
	return a + b
}

// demand is an outstanding-request counter updated by CAS only.
type demand struct {
	n atomic.Int64
}

// add increases demand by n (> 0) and returns the value before the update.
func (d *demand) add(n int64) int64 {
	for {
		cur := d.n.Load()
		if cur == Unbounded {
			return Unbounded
		}
		if d.n.CompareAndSwap(cur, addCap(cur, n)) {
			return cur
		}
	}
}

// produced subtracts n delivered items and returns the remaining demand.
// Unbounded demand is never decremented.
func (d *demand) produced(n int64) int64 {
	for {
		cur := d.n.Load()
		if cur == Unbounded {
			return Unbounded
		}
		next := cur - n
		if next < 0 {
			next = 0
		}
		if d.n.CompareAndSwap(cur, next) {
			return next
		}
	}
}

// tryTake consumes one unit of demand if any is outstanding.
func (d *demand) tryTake() bool {
	for {
		cur := d.n.Load()
		if cur == 0 {
			return false
		}
		if cur == Unbounded {
			return true
		}
		if d.n.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

func (d *demand) get() int64 { return d.n.Load() }
