package reactive

import "math"

// Unbounded is the demand that disables backpressure.
const Unbounded int64 = math.MaxInt64

// Publisher is a lazy source of items. Nothing happens until Subscribe.
type Publisher[T any] interface {
	// Subscribe attaches s. OnSubscribe is always the first signal s sees.
	Subscribe(s Subscriber[T])
}

// Subscriber receives the signals of one subscription. Calls are serialized:
// no two methods run concurrently for the same subscription.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(v T)
	OnError(err error)
	OnComplete()
}

// Subscription is the demand channel between a subscriber and its publisher.
type Subscription interface {
	// Request adds n to the outstanding demand. n <= 0 fails the subscription
	// with an INVALID_DEMAND error.
	Request(n int64)
	// Cancel stops delivery and releases upstream resources. Idempotent.
	Cancel()
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc[T any] func(s Subscriber[T])

// Subscribe calls f(s).
func (f PublisherFunc[T]) Subscribe(s Subscriber[T]) { f(s) }

// noopSubscription is handed to subscribers of sources that never need demand.
type noopSubscription struct{}

func (noopSubscription) Request(int64) {}
func (noopSubscription) Cancel()       {}
