package sse

import (
	"sync"

	"github.com/kbukum/fluxkit/reactive"
)

// bridge hands signals from the publisher's goroutine to the handler
// goroutine. At most batch items are outstanding, so a buffer of batch+1
// holds every signal that can arrive and OnNext never blocks.
type bridge[T any] struct {
	signals chan reactive.Signal[T]
	batch   int64

	mu   sync.Mutex
	sub  reactive.Subscription
	done bool
}

func newBridge[T any](batch int64) *bridge[T] {
	return &bridge[T]{
		signals: make(chan reactive.Signal[T], batch+1),
		batch:   batch,
	}
}

func (b *bridge[T]) OnSubscribe(s reactive.Subscription) {
	b.mu.Lock()
	b.sub = s
	b.mu.Unlock()
	s.Request(b.batch)
}

func (b *bridge[T]) OnNext(v T) { b.push(reactive.NextSignal(v)) }

func (b *bridge[T]) OnError(err error) { b.push(reactive.ErrorSignal[T](err)) }

func (b *bridge[T]) OnComplete() { b.push(reactive.CompleteSignal[T]()) }

func (b *bridge[T]) push(sig reactive.Signal[T]) {
	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		return
	}
	if sig.IsTerminal() {
		b.done = true
	}
	b.mu.Unlock()

	select {
	case b.signals <- sig:
	default:
		// Only a publisher overrunning its demand gets here.
	}
}

func (b *bridge[T]) request(n int64) {
	b.mu.Lock()
	s, done := b.sub, b.done
	b.mu.Unlock()
	if s != nil && !done {
		s.Request(n)
	}
}

// cancel stops the upstream unless it already terminated.
func (b *bridge[T]) cancel() {
	b.mu.Lock()
	s, done := b.sub, b.done
	b.done = true
	b.mu.Unlock()
	if s != nil && !done {
		s.Cancel()
	}
}
