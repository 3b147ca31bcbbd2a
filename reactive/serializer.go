package reactive

import "sync"

// serializer delivers signals to a subscriber one at a time, in arrival
// order, from whichever goroutine produced them. A signal emitted while
// another is being delivered (on any goroutine, including reentrantly from
// inside a callback) is queued and delivered by the goroutine already
// emitting. Nothing is accepted after a terminal signal.
type serializer[T any] struct {
	actual Subscriber[T]

	mu       sync.Mutex
	queue    []Signal[T]
	emitting bool
	done     bool
}

func newSerializer[T any](actual Subscriber[T]) *serializer[T] {
	return &serializer[T]{actual: actual}
}

func (s *serializer[T]) onNext(v T)        { s.emit(NextSignal(v)) }
func (s *serializer[T]) onError(err error) { s.emit(ErrorSignal[T](err)) }
func (s *serializer[T]) onComplete()       { s.emit(CompleteSignal[T]()) }

// terminated reports whether a terminal signal has been accepted.
func (s *serializer[T]) terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *serializer[T]) emit(sig Signal[T]) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	if sig.IsTerminal() {
		s.done = true
	}
	s.queue = append(s.queue, sig)
	if s.emitting {
		s.mu.Unlock()
		return
	}
	s.emitting = true
	for {
		if len(s.queue) == 0 {
			s.emitting = false
			s.mu.Unlock()
			return
		}
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, q := range batch {
			q.Deliver(s.actual)
		}

		s.mu.Lock()
	}
}
