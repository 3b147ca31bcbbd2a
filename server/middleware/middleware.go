package middleware

import "net/http"

// Middleware wraps an http.Handler. The server applies it around the whole
// engine, so stream endpoints see the same stack as everything else.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares; the first one is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
