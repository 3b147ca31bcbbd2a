// Package resilience provides retry policies shared by blocking calls and
// stream operators.
//
// Backoff computes exponential delays with jitter. RetryConfig bundles a
// Backoff with an attempt budget and a RetryIf predicate. Retry runs a
// blocking function under that policy; reactive.RetryBackoff re-subscribes
// a failed publisher under the same policy on a scheduler.
//
//	cfg := resilience.DefaultRetryConfig()
//	ln, err := resilience.Retry(ctx, cfg, func() (net.Listener, error) {
//	    return net.Listen("tcp", addr)
//	})
package resilience
