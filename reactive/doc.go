// Package reactive provides a push-based streaming pipeline with cooperative
// backpressure.
//
// A Publisher produces items only after its Subscriber asks for them through
// Subscription.Request. Demand flows from the consumer towards the source and
// items, errors and completion flow back. No stage ever delivers more items
// than were requested, and every subscription ends with at most one terminal
// signal (Error or Complete), after which nothing else is delivered.
//
// Pipelines are built by explicit composition:
//
//	src := reactive.Range(1, 5)
//	tripled := reactive.Map(src, func(n int) (int, error) { return n * 3, nil })
//	evens := reactive.Filter(tripled, func(n int) (bool, error) { return n%2 == 0, nil })
//	reactive.Subscribe(evens, func(n int) { fmt.Println(n) }, nil, nil)
//
// # Sources
//
//   - Just, FromSlice, Range: finite sequences
//   - Empty, Error, Never: degenerate sequences
//   - Defer, FromCallable, FromIterator: lazy construction
//   - Interval: timer ticks, suspended while there is no demand
//   - Create: callback-driven emission through an Emitter
//
// # Stages
//
//   - Map, Filter, DoOnNext, DoOnTerminate, DoOnCancel, Log
//   - FlatMap: one inner publisher per item, merged sequentially
//   - Zip, ZipPair: pairwise combination of two publishers
//   - Take, LimitRate, DelayElements, CollectList, Concat
//   - Retry, RetryBackoff: re-subscription after errors
//
// # Consumers
//
//   - SubscriberFuncs, Subscribe: callback consumers (unbounded demand)
//   - Batched, SubscribeBatched: request L, then L more after every L items
//   - Collect, BlockLast: block the calling goroutine until termination
//
// Timer-driven operators take a Scheduler through WithScheduler; tests use
// reactivetest.VirtualScheduler to advance time by hand.
package reactive
