package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/fluxkit/logger"
	"github.com/kbukum/fluxkit/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersionInfo().Version,
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Outcome values of the stream.terminations counter.
const (
	OutcomeComplete  = "complete"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// StreamMetrics holds the instruments fed by Instrument.
type StreamMetrics struct {
	items        metric.Int64Counter
	demand       metric.Int64Counter
	active       metric.Int64UpDownCounter
	terminations metric.Int64Counter
	duration     metric.Float64Histogram
}

// NewStreamMetrics creates the stream instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	items, err := meter.Int64Counter("stream.items",
		metric.WithDescription("Items delivered to subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.items counter: %w", err)
	}

	demand, err := meter.Int64Counter("stream.demand",
		metric.WithDescription("Items requested by subscribers (unbounded requests excluded)"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.demand counter: %w", err)
	}

	active, err := meter.Int64UpDownCounter("stream.subscriptions.active",
		metric.WithDescription("Subscriptions that have not terminated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.subscriptions.active counter: %w", err)
	}

	terminations, err := meter.Int64Counter("stream.terminations",
		metric.WithDescription("Terminated subscriptions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.terminations counter: %w", err)
	}

	duration, err := meter.Float64Histogram("stream.duration",
		metric.WithDescription("Subscription lifetime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.duration histogram: %w", err)
	}

	return &StreamMetrics{
		items:        items,
		demand:       demand,
		active:       active,
		terminations: terminations,
		duration:     duration,
	}, nil
}

func stageAttr(stage string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(AttrStage, stage))
}

// RecordSubscribe counts a new active subscription.
func (m *StreamMetrics) RecordSubscribe(ctx context.Context, stage string) {
	m.active.Add(ctx, 1, stageAttr(stage))
}

// RecordItem counts one delivered item.
func (m *StreamMetrics) RecordItem(ctx context.Context, stage string) {
	m.items.Add(ctx, 1, stageAttr(stage))
}

// RecordRequest counts requested demand.
func (m *StreamMetrics) RecordRequest(ctx context.Context, stage string, n int64) {
	m.demand.Add(ctx, n, stageAttr(stage))
}

// RecordTermination closes an active subscription with the given outcome.
func (m *StreamMetrics) RecordTermination(ctx context.Context, stage, outcome string, d time.Duration) {
	m.active.Add(ctx, -1, stageAttr(stage))
	m.terminations.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String(AttrOutcome, outcome),
	))
	m.duration.Record(ctx, d.Seconds(), stageAttr(stage))
}
