package reactive

// Kind identifies the variant of a Signal.
type Kind int

const (
	KindNext Kind = iota
	KindError
	KindComplete
)

func (k Kind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Signal is one event flowing downstream.
type Signal[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

// NextSignal wraps an item.
func NextSignal[T any](v T) Signal[T] { return Signal[T]{Kind: KindNext, Value: v} }

// ErrorSignal wraps a failure.
func ErrorSignal[T any](err error) Signal[T] { return Signal[T]{Kind: KindError, Err: err} }

// CompleteSignal marks successful termination.
func CompleteSignal[T any]() Signal[T] { return Signal[T]{Kind: KindComplete} }

// IsTerminal reports whether the signal ends the subscription.
func (s Signal[T]) IsTerminal() bool { return s.Kind != KindNext }

// Deliver invokes the matching callback of sub.
func (s Signal[T]) Deliver(sub Subscriber[T]) {
	switch s.Kind {
	case KindNext:
		sub.OnNext(s.Value)
	case KindError:
		sub.OnError(s.Err)
	case KindComplete:
		sub.OnComplete()
	}
}
