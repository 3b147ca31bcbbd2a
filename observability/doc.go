// Package observability provides OpenTelemetry metrics and tracing for
// fluxkit streams.
//
// InitMeter and InitTracer install OTLP/HTTP exporters as the global
// providers. Instrument wraps any publisher so that each subscription gets
// a span and feeds the StreamMetrics instruments: items delivered, demand
// requested, active subscriptions, terminations by outcome and duration.
//
//	mp, _ := observability.InitMeter(ctx, observability.DefaultMeterConfig("fluxdemo"))
//	defer mp.Shutdown(ctx)
//	m, _ := observability.NewStreamMetrics(observability.Meter("fluxkit"))
//	src := observability.Instrument(reactive.Range(1, 10), m, "range")
package observability
