package observability_test

import (
	"context"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/fluxkit/observability"
	"github.com/kbukum/fluxkit/reactive"
	"github.com/kbukum/fluxkit/reactive/reactivetest"
)

func setup(t *testing.T) (*observability.StreamMetrics, *sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := observability.NewStreamMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewStreamMetrics: %v", err)
	}

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	return m, reader, spans
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// sum adds up the int64 data points of the named instrument whose
// attributes contain every given key/value pair.
func sum(rm metricdata.ResourceMetrics, name string, match ...attribute.KeyValue) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			data, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range data.DataPoints {
				if hasAll(dp.Attributes, match) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAll(set attribute.Set, kvs []attribute.KeyValue) bool {
	for _, kv := range kvs {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func spanAttr(s sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestInstrument(t *testing.T) {
	tests := []struct {
		name     string
		source   reactive.Publisher[int]
		request  int64
		cancel   bool
		outcome  string
		items    int64
		demand   int64
		hasError bool
	}{
		{
			name:    "complete",
			source:  reactive.Range(1, 5),
			request: 10,
			outcome: observability.OutcomeComplete,
			items:   5,
			demand:  10,
		},
		{
			name:     "error",
			source:   reactive.Error[int](fmt.Errorf("boom")),
			request:  1,
			outcome:  observability.OutcomeError,
			demand:   1,
			hasError: true,
		},
		{
			name:    "cancelled",
			source:  reactive.Range(1, 100),
			request: 3,
			cancel:  true,
			outcome: observability.OutcomeCancelled,
			items:   3,
			demand:  3,
		},
		{
			name:    "unbounded demand is not counted",
			source:  reactive.Range(1, 4),
			request: reactive.Unbounded,
			outcome: observability.OutcomeComplete,
			items:   4,
			demand:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader, spans := setup(t)

			rec := reactivetest.NewRecorder[int](tt.request)
			observability.Instrument(tt.source, m, "stage-a").Subscribe(rec)
			if tt.cancel {
				rec.Cancel()
			}

			stage := attribute.String(observability.AttrStage, "stage-a")
			rm := collect(t, reader)

			if got := sum(rm, "stream.items", stage); got != tt.items {
				t.Errorf("stream.items = %d, want %d", got, tt.items)
			}
			if got := sum(rm, "stream.demand", stage); got != tt.demand {
				t.Errorf("stream.demand = %d, want %d", got, tt.demand)
			}
			if got := sum(rm, "stream.subscriptions.active", stage); got != 0 {
				t.Errorf("stream.subscriptions.active = %d, want 0", got)
			}
			outcome := attribute.String(observability.AttrOutcome, tt.outcome)
			if got := sum(rm, "stream.terminations", stage, outcome); got != 1 {
				t.Errorf("stream.terminations{%s} = %d, want 1", tt.outcome, got)
			}

			ended := spans.Ended()
			if len(ended) != 1 {
				t.Fatalf("ended spans = %d, want 1", len(ended))
			}
			span := ended[0]
			if span.Name() != observability.SpanStreamSubscription {
				t.Errorf("span name = %q", span.Name())
			}
			if v, ok := spanAttr(span, observability.AttrOutcome); !ok || v.AsString() != tt.outcome {
				t.Errorf("span outcome = %v, want %s", v.AsString(), tt.outcome)
			}
			if v, ok := spanAttr(span, observability.AttrSubscriptionID); !ok || v.AsString() == "" {
				t.Error("span has no subscription id")
			}
			if got := len(span.Events()) > 0; got != tt.hasError {
				t.Errorf("span recorded error = %v, want %v", got, tt.hasError)
			}
		})
	}
}

func TestInstrument_NilMetrics(t *testing.T) {
	_, _, spans := setup(t)

	got, err := reactive.Collect(context.Background(), observability.Instrument(reactive.Just("a", "b"), nil, "nil"))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("items = %v, want 2", got)
	}
	if n := len(spans.Ended()); n != 1 {
		t.Errorf("ended spans = %d, want 1", n)
	}
}

func TestInstrument_SpanPerSubscription(t *testing.T) {
	m, reader, spans := setup(t)

	p := observability.Instrument(reactive.Range(0, 2), m, "multi")
	for i := 0; i < 3; i++ {
		if _, err := reactive.Collect(context.Background(), p); err != nil {
			t.Fatalf("Collect: %v", err)
		}
	}

	if n := len(spans.Ended()); n != 3 {
		t.Errorf("ended spans = %d, want 3", n)
	}
	rm := collect(t, reader)
	if got := sum(rm, "stream.items"); got != 6 {
		t.Errorf("stream.items = %d, want 6", got)
	}
}

func TestDefaultConfigs(t *testing.T) {
	mc := observability.DefaultMeterConfig("svc")
	if mc.ServiceName != "svc" || mc.Interval <= 0 || mc.ServiceVersion == "" {
		t.Errorf("unexpected meter defaults: %+v", mc)
	}
	tc := observability.DefaultTracerConfig("svc")
	if tc.ServiceName != "svc" || tc.SampleRate != 1.0 || tc.ServiceVersion == "" {
		t.Errorf("unexpected tracer defaults: %+v", tc)
	}
}
