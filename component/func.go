package component

import (
	"context"
	"sync/atomic"
)

// FuncComponent adapts start and stop functions to Component. It reports
// healthy while started.
type FuncComponent struct {
	name    string
	start   func(ctx context.Context) error
	stop    func(ctx context.Context) error
	desc    Description
	running atomic.Bool
}

// Func builds a Component from start and stop. Either may be nil.
func Func(name string, start, stop func(ctx context.Context) error) *FuncComponent {
	return &FuncComponent{name: name, start: start, stop: stop}
}

// WithDescription sets the startup summary line.
func (f *FuncComponent) WithDescription(d Description) *FuncComponent {
	f.desc = d
	return f
}

func (f *FuncComponent) Name() string { return f.name }

func (f *FuncComponent) Start(ctx context.Context) error {
	if f.start != nil {
		if err := f.start(ctx); err != nil {
			return err
		}
	}
	f.running.Store(true)
	return nil
}

func (f *FuncComponent) Stop(ctx context.Context) error {
	f.running.Store(false)
	if f.stop != nil {
		return f.stop(ctx)
	}
	return nil
}

func (f *FuncComponent) Health(context.Context) Health {
	if f.running.Load() {
		return Health{Name: f.name, Status: StatusHealthy}
	}
	return Health{Name: f.name, Status: StatusUnhealthy, Message: "not running"}
}

// Describe implements Describable.
func (f *FuncComponent) Describe() Description {
	d := f.desc
	if d.Name == "" {
		d.Name = f.name
	}
	return d
}
