package sse

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	ginsse "github.com/gin-contrib/sse"

	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/logger"
	"github.com/kbukum/fluxkit/reactive"
)

// DefaultKeepAlive is the interval of keep-alive comments. It stays below
// common proxy idle timeouts.
const DefaultKeepAlive = 30 * time.Second

// MaxBatch is the largest demand a stream holds outstanding. Larger batches,
// Unbounded included, are capped to it.
const MaxBatch int64 = 4096

// Option configures Stream.
type Option func(*options)

type options struct {
	keepAlive time.Duration
	log       *logger.Logger
}

// WithKeepAlive sets the keep-alive comment interval; d <= 0 disables it.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) { o.keepAlive = d }
}

// WithLogger sets the logger for connection events.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// Stream writes p to w as Server-Sent Events, pulling batch items at a
// time, with batch clamped to [1, MaxBatch]. It blocks until the publisher
// terminates, the client goes away or a write fails. The returned error is the publisher's error, the request
// context error or the write error; nil means the stream completed.
func Stream[T any](w http.ResponseWriter, r *http.Request, p reactive.Publisher[T], batch int64, opts ...Option) error {
	o := options{keepAlive: DefaultKeepAlive, log: logger.WithComponent("sse")}
	for _, opt := range opts {
		opt(&o)
	}
	batch = min(max(batch, 1), MaxBatch)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return errors.Internal(fmt.Errorf("response writer %T cannot flush", w))
	}

	// Streams outlive the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		o.log.Debug("could not clear write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", ginsse.ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	b := newBridge[T](batch)
	p.Subscribe(b)
	defer b.cancel()

	var tick <-chan time.Time
	if o.keepAlive > 0 {
		t := time.NewTicker(o.keepAlive)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	var id, inBatch int64
	for {
		select {
		case <-ctx.Done():
			o.log.Debug("client disconnected", logger.Fields("delivered", id, "reason", ctx.Err().Error()))
			return ctx.Err()

		case sig := <-b.signals:
			switch sig.Kind {
			case reactive.KindNext:
				id++
				if err := write(w, flusher, ginsse.Event{Id: strconv.FormatInt(id, 10), Event: EventNext, Data: sig.Value}); err != nil {
					return err
				}
				if inBatch++; inBatch == batch {
					inBatch = 0
					b.request(batch)
				}
			case reactive.KindError:
				_ = write(w, flusher, ginsse.Event{Event: EventError, Data: errorBody(sig.Err)})
				return sig.Err
			case reactive.KindComplete:
				return write(w, flusher, ginsse.Event{Event: EventComplete, Data: strconv.FormatInt(id, 10)})
			}

		case <-tick:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}

func write(w io.Writer, f http.Flusher, ev ginsse.Event) error {
	if err := ginsse.Encode(w, ev); err != nil {
		return err
	}
	f.Flush()
	return nil
}

func errorBody(err error) errors.ErrorBody {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	return appErr.ToResponse().Error
}
