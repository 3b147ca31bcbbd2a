// Package server exposes publishers over HTTP as Server-Sent Event streams.
//
// The server is a Gin engine wrapped in h2c, with the middleware stack from
// server/middleware applied around the whole engine. Publishers are mounted
// by name with Register and served at
//
//	GET /streams            list of registered streams
//	GET /streams/:name      the stream itself, ?batch=N sets the demand batch
//	GET /health             aggregated component health
//	GET /info               build information
//
// Every client gets its own cold subscription. Demand is driven by the
// client connection: the server requests batch items, writes and flushes
// them, then requests the next batch.
//
// Server implements component.Component and can be registered with a
// bootstrap.App.
package server
