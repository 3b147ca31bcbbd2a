package reactive

import (
	"github.com/google/uuid"

	"github.com/kbukum/fluxkit/logger"
)

// Log logs every signal passing through it and every request or cancel
// travelling back, tagged with stage name and a per-subscription ID. A nil
// logger uses the "reactive" logger from the registry.
func Log[T any](p Publisher[T], name string, l *logger.Logger) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		base := l
		if base == nil {
			base = logger.Get("reactive")
		}
		p.Subscribe(&logSubscriber[T]{
			actual: s,
			log:    base.WithStage(name, uuid.NewString()),
		})
	})
}

type logSubscriber[T any] struct {
	actual   Subscriber[T]
	log      *logger.Logger
	upstream Subscription
}

func (s *logSubscriber[T]) OnSubscribe(sub Subscription) {
	s.upstream = sub
	s.log.Info("onSubscribe")
	s.actual.OnSubscribe(s)
}

func (s *logSubscriber[T]) OnNext(v T) {
	s.log.Info("onNext", logger.Fields(logger.FieldSignal, KindNext.String(), logger.FieldValue, v))
	s.actual.OnNext(v)
}

func (s *logSubscriber[T]) OnError(err error) {
	s.log.WithError(err).Error("onError", logger.Fields(logger.FieldSignal, KindError.String()))
	s.actual.OnError(err)
}

func (s *logSubscriber[T]) OnComplete() {
	s.log.Info("onComplete", logger.Fields(logger.FieldSignal, KindComplete.String()))
	s.actual.OnComplete()
}

func (s *logSubscriber[T]) Request(n int64) {
	var d interface{} = n
	if n == Unbounded {
		d = "unbounded"
	}
	s.log.Info("request", logger.Fields(logger.FieldDemand, d))
	s.upstream.Request(n)
}

func (s *logSubscriber[T]) Cancel() {
	s.log.Info("cancel")
	s.upstream.Cancel()
}
