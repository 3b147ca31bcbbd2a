package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/fluxkit/component"
	"github.com/kbukum/fluxkit/logger"
)

const telemetryName = "telemetry"

var (
	_ component.Component   = (*Telemetry)(nil)
	_ component.Describable = (*Telemetry)(nil)
)

// Telemetry owns the tracer and meter providers for the lifetime of an
// application.
type Telemetry struct {
	cfg         Config
	serviceName string
	version     string
	environment string
	metrics     *StreamMetrics
	log         *logger.Logger

	mu      sync.Mutex
	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	running bool
}

// NewTelemetry creates the component and the stream instruments. The
// instruments are taken from the global meter, so they start exporting as
// soon as Start installs the real provider.
func NewTelemetry(cfg Config, serviceName, version, environment string) (*Telemetry, error) {
	m, err := NewStreamMetrics(Meter(defaultTracerName))
	if err != nil {
		return nil, err
	}
	return &Telemetry{
		cfg:         cfg,
		serviceName: serviceName,
		version:     version,
		environment: environment,
		metrics:     m,
		log:         logger.WithComponent(telemetryName),
	}, nil
}

// Metrics returns the stream instruments to pass to Instrument.
func (t *Telemetry) Metrics() *StreamMetrics { return t.metrics }

func (t *Telemetry) Name() string { return telemetryName }

// Start installs the OTLP tracer and meter providers when export is enabled.
func (t *Telemetry) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cfg.Enabled {
		t.log.Debug("telemetry export disabled")
		t.running = true
		return nil
	}

	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    t.serviceName,
		ServiceVersion: t.version,
		Environment:    t.environment,
		Endpoint:       t.cfg.Endpoint,
		Insecure:       t.cfg.Insecure,
		SampleRate:     t.cfg.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	mp, err := InitMeter(ctx, MeterConfig{
		ServiceName:    t.serviceName,
		ServiceVersion: t.version,
		Environment:    t.environment,
		Endpoint:       t.cfg.Endpoint,
		Insecure:       t.cfg.Insecure,
		Interval:       t.cfg.MetricInterval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("telemetry: %w", err)
	}
	t.tp, t.mp = tp, mp
	t.running = true
	return nil
}

// Stop flushes and shuts down the providers.
func (t *Telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = false
	var errs []error
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
		t.tp = nil
	}
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
		t.mp = nil
	}
	return errors.Join(errs...)
}

func (t *Telemetry) Health(context.Context) component.Health {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return component.Health{Name: telemetryName, Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: telemetryName, Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (t *Telemetry) Describe() component.Description {
	details := "export disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp http %s, sample %.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
