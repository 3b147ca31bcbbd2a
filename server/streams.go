package server

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/logger"
	"github.com/kbukum/fluxkit/observability"
	"github.com/kbukum/fluxkit/reactive"
	"github.com/kbukum/fluxkit/server/middleware"
	"github.com/kbukum/fluxkit/sse"
	"github.com/kbukum/fluxkit/validation"
)

// Factory builds the publisher for one client. It runs once per request,
// so every client gets its own cold sequence. Errors are answered with a
// JSON error response before any event is sent.
type Factory[T any] func(r *http.Request) (reactive.Publisher[T], error)

// StreamInfo describes a registered stream in GET /streams.
type StreamInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

type streamEntry struct {
	info StreamInfo
	open func(ctx context.Context, r *http.Request) (streamFunc, error)
}

type streamFunc func(w http.ResponseWriter, r *http.Request, batch int64) error

// Register mounts factory as GET /streams/{name}.
func Register[T any](s *Server, name, description string, factory Factory[T]) error {
	if err := validation.New().Required("name", name).Err(); err != nil {
		return err
	}
	if factory == nil {
		return errors.InvalidInput("factory", "must not be nil")
	}

	entry := &streamEntry{
		info: StreamInfo{Name: name, Description: description, Path: "/streams/" + name},
		open: func(ctx context.Context, r *http.Request) (streamFunc, error) {
			p, err := factory(r)
			if err != nil {
				return nil, err
			}
			p = observability.InstrumentContext(ctx, p, s.metrics, name)
			return func(w http.ResponseWriter, r *http.Request, batch int64) error {
				return sse.Stream(w, r, p, batch,
					sse.WithKeepAlive(s.config.KeepAlive),
					sse.WithLogger(s.log.WithContext(r.Context())),
				)
			}, nil
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.streams[name]; exists {
		return errors.InvalidInput("name", "stream "+strconv.Quote(name)+" is already registered")
	}
	s.streams[name] = entry
	s.log.Debug("stream registered", logger.Fields(logger.FieldStage, name))
	return nil
}

// Streams returns the registered streams sorted by name.
func (s *Server) Streams() []StreamInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StreamInfo, 0, len(s.streams))
	for _, e := range s.streams {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Server) listStreams(c *gin.Context) {
	RespondOK(c, s.Streams())
}

func (s *Server) serveStream(c *gin.Context) {
	name := c.Param("name")
	s.mu.RLock()
	entry, ok := s.streams[name]
	s.mu.RUnlock()
	if !ok {
		RespondWithError(c, errors.NotFound("stream", name))
		return
	}

	batch, err := s.parseBatch(c.Query("batch"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanHTTPStream, trace.WithAttributes(
		attribute.String(observability.AttrStage, name),
		attribute.String(observability.AttrRequestID, c.GetHeader(middleware.HeaderRequestID)),
		attribute.Int64("stream.batch", batch),
	))
	defer span.End()

	stream, err := entry.open(ctx, c.Request)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		RespondWithError(c, err)
		return
	}

	log := s.log.WithContext(c.Request.Context())
	fields := logger.Fields(logger.FieldStage, name, logger.FieldDemand, batch)
	switch err := stream(c.Writer, c.Request, batch); {
	case err == nil:
		log.Debug("stream completed", fields)
	case c.Request.Context().Err() != nil:
		log.Debug("stream closed by client", fields)
	default:
		span.SetStatus(codes.Error, err.Error())
		fields[logger.FieldError] = err.Error()
		if code := errors.CodeOf(err); code != "" {
			span.SetAttributes(attribute.String(observability.AttrErrorCode, string(code)))
			fields["code"] = code
		}
		log.Warn("stream failed", fields)
	}
}

// parseBatch reads ?batch; an empty value means Config.DefaultBatch.
func (s *Server) parseBatch(raw string) (int64, error) {
	if raw == "" {
		return max(s.config.DefaultBatch, 1), nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.InvalidInput("batch", "must be an integer")
	}
	maxBatch := s.config.MaxBatch
	if maxBatch < 1 {
		maxBatch = reactive.Unbounded
	}
	if err := validation.New().Range("batch", n, 1, maxBatch).Err(); err != nil {
		return 0, err
	}
	return n, nil
}
