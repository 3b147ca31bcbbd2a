// Package errors provides the error taxonomy shared by fluxkit streams.
//
// Every failure that reaches a subscriber is an *AppError carrying a
// machine-readable code: transform errors raised by a stage function,
// upstream errors produced by a source, and protocol violations such as a
// non-positive demand request. The original cause stays reachable through
// Unwrap, so errors.Is and errors.As from the standard library keep working.
package errors
