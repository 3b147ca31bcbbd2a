package reactivetest

import (
	"slices"
	"testing"
	"time"
)

func TestVirtualScheduler_RunsInDueOrder(t *testing.T) {
	vs := NewVirtualScheduler()
	var order []string
	vs.Schedule(30*time.Millisecond, func() { order = append(order, "c") })
	vs.Schedule(10*time.Millisecond, func() { order = append(order, "a") })
	vs.Schedule(10*time.Millisecond, func() { order = append(order, "b") })

	vs.Advance(20 * time.Millisecond)
	if !slices.Equal(order, []string{"a", "b"}) {
		t.Fatalf("order = %v", order)
	}
	if vs.Now() != 20*time.Millisecond {
		t.Errorf("now = %v", vs.Now())
	}

	vs.Advance(10 * time.Millisecond)
	if !slices.Equal(order, []string{"a", "b", "c"}) {
		t.Errorf("order = %v", order)
	}
}

func TestVirtualScheduler_TasksScheduledByTasks(t *testing.T) {
	vs := NewVirtualScheduler()
	var ticks []time.Duration
	var tick func()
	tick = func() {
		ticks = append(ticks, vs.Now())
		vs.Schedule(time.Second, tick)
	}
	vs.Schedule(time.Second, tick)

	vs.Advance(3 * time.Second)
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if !slices.Equal(ticks, want) {
		t.Errorf("ticks = %v, want %v", ticks, want)
	}
	if vs.Pending() != 1 {
		t.Errorf("pending = %d, want 1", vs.Pending())
	}
}

func TestVirtualScheduler_Stop(t *testing.T) {
	vs := NewVirtualScheduler()
	ran := false
	task := vs.Schedule(time.Second, func() { ran = true })

	if !task.Stop() {
		t.Error("first Stop should report true")
	}
	if task.Stop() {
		t.Error("second Stop should report false")
	}
	vs.Advance(time.Minute)
	if ran {
		t.Error("stopped task ran")
	}
	if vs.Pending() != 0 {
		t.Errorf("pending = %d", vs.Pending())
	}
}
