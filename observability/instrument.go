package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/reactive"
)

// Instrument wraps p so that every subscription is traced as one
// "stream.subscription" span and recorded in m. A nil m only traces.
func Instrument[T any](p reactive.Publisher[T], m *StreamMetrics, stage string) reactive.Publisher[T] {
	return InstrumentContext(context.Background(), p, m, stage)
}

// InstrumentContext is Instrument with a parent context for the spans,
// typically the incoming request context.
func InstrumentContext[T any](ctx context.Context, p reactive.Publisher[T], m *StreamMetrics, stage string) reactive.Publisher[T] {
	return reactive.PublisherFunc[T](func(s reactive.Subscriber[T]) {
		id := uuid.NewString()
		spanCtx, span := StartSpan(ctx, SpanStreamSubscription, trace.WithAttributes(
			attribute.String(AttrStage, stage),
			attribute.String(AttrSubscriptionID, id),
		))
		if m != nil {
			m.RecordSubscribe(spanCtx, stage)
		}
		p.Subscribe(&instrumented[T]{
			actual:  s,
			ctx:     spanCtx,
			span:    span,
			metrics: m,
			stage:   stage,
			start:   time.Now(),
		})
	})
}

type instrumented[T any] struct {
	actual   reactive.Subscriber[T]
	ctx      context.Context
	span     trace.Span
	metrics  *StreamMetrics
	stage    string
	start    time.Time
	upstream reactive.Subscription
	items    atomic.Int64
	once     sync.Once
}

func (i *instrumented[T]) OnSubscribe(s reactive.Subscription) {
	i.upstream = s
	i.actual.OnSubscribe(i)
}

func (i *instrumented[T]) OnNext(v T) {
	i.items.Add(1)
	if i.metrics != nil {
		i.metrics.RecordItem(i.ctx, i.stage)
	}
	i.actual.OnNext(v)
}

func (i *instrumented[T]) OnError(err error) {
	i.finish(OutcomeError, err)
	i.actual.OnError(err)
}

func (i *instrumented[T]) OnComplete() {
	i.finish(OutcomeComplete, nil)
	i.actual.OnComplete()
}

func (i *instrumented[T]) Request(n int64) {
	if i.metrics != nil && n > 0 && n != reactive.Unbounded {
		i.metrics.RecordRequest(i.ctx, i.stage, n)
	}
	i.upstream.Request(n)
}

func (i *instrumented[T]) Cancel() {
	i.upstream.Cancel()
	i.finish(OutcomeCancelled, nil)
}

func (i *instrumented[T]) finish(outcome string, err error) {
	i.once.Do(func() {
		i.span.SetAttributes(
			attribute.String(AttrOutcome, outcome),
			attribute.Int64(AttrItems, i.items.Load()),
		)
		if err != nil {
			i.span.RecordError(err)
			i.span.SetAttributes(attribute.String(AttrErrorCode, string(errors.CodeOf(err))))
			i.span.SetStatus(codes.Error, err.Error())
		}
		i.span.End()
		if i.metrics != nil {
			i.metrics.RecordTermination(i.ctx, i.stage, outcome, time.Since(i.start))
		}
	})
}
