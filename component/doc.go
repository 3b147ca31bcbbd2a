// Package component defines lifecycle-managed parts of a fluxkit program,
// such as the stream server or the telemetry providers.
//
// A Component starts, stops and reports its health. A Registry starts
// components in registration order and stops them in reverse. Func turns
// a pair of start/stop functions into a Component.
package component
