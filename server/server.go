package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/logger"
	"github.com/kbukum/fluxkit/observability"
	"github.com/kbukum/fluxkit/resilience"
	"github.com/kbukum/fluxkit/server/endpoint"
	"github.com/kbukum/fluxkit/server/middleware"
)

// Server serves registered publishers as SSE streams over HTTP/1.1 and h2c.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	handler    http.Handler
	config     Config
	log        *logger.Logger

	serviceName string
	metrics     *observability.StreamMetrics
	health      endpoint.HealthChecker

	// streamCtx is the base context of every request; Stop cancels it so
	// open streams end before Shutdown waits for connections.
	streamCtx     context.Context
	cancelStreams context.CancelFunc

	mu       sync.RWMutex
	streams  map[string]*streamEntry
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records every served stream in m.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithServiceName sets the name reported by /health and /info.
func WithServiceName(name string) Option {
	return func(s *Server) { s.serviceName = name }
}

// WithHealthChecker sets the source of component health for /health.
func WithHealthChecker(c endpoint.HealthChecker) Option {
	return func(s *Server) { s.health = c }
}

// New creates a Server with the middleware stack and the built-in routes.
// Streams are added with Register before or after Start.
func New(cfg Config, log *logger.Logger, opts ...Option) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	s := &Server{
		engine:      gin.New(),
		config:      cfg,
		log:         log.WithComponent(componentName),
		serviceName: "fluxkit",
		streams:     make(map[string]*streamEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streamCtx, s.cancelStreams = context.WithCancel(context.Background())

	s.engine.HandleMethodNotAllowed = true
	s.engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, errors.NotFound("route", c.Request.URL.Path))
	})
	s.engine.NoMethod(func(c *gin.Context) {
		RespondWithError(c, errors.New(errors.ErrCodeInvalidInput, "method not allowed", http.StatusMethodNotAllowed))
	})
	s.engine.GET("/health", endpoint.Health(s.serviceName, s.health))
	s.engine.GET("/info", endpoint.Info(s.serviceName))
	s.engine.GET("/streams", s.listStreams)
	s.engine.GET("/streams/:name", s.serveStream)

	chain := middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(cfg.CORS),
		middleware.RequestLogger(s.log),
	)
	s.handler = h2c.NewHandler(chain(s.engine), &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          cfg.IdleTimeout,
	})

	s.httpServer = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.streamCtx },
	}
	s.httpServer.RegisterOnShutdown(s.cancelStreams)
	return s
}

// Handler returns the complete handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener, retrying transient bind failures, and serves in
// a goroutine. It returns once the port is bound.
func (s *Server) Start(ctx context.Context) error {
	addr := s.httpServer.Addr
	s.log.Info("starting HTTP server", map[string]interface{}{"addr": addr})

	bind := resilience.RetryConfig{
		MaxAttempts: s.config.BindAttempts,
		Backoff:     resilience.Backoff{Initial: 100 * time.Millisecond, Max: time.Second, Factor: 2},
		OnRetry: func(attempt int, err error, wait time.Duration) {
			s.log.Warn("bind failed, retrying", map[string]interface{}{
				"addr":              addr,
				logger.FieldAttempt: attempt,
				logger.FieldError:   err.Error(),
				"wait_ms":           wait.Milliseconds(),
			})
		},
	}
	ln, err := resilience.Retry(ctx, bind, func() (net.Listener, error) {
		var lc net.ListenConfig
		return lc.Listen(ctx, "tcp", addr)
	})
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{"addr": ln.Addr().String()})
	return nil
}

// Stop cancels open streams and shuts the server down. Without a deadline
// on ctx, Config.ShutdownTimeout applies.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running() {
		return nil
	}
	s.log.Info("shutting down HTTP server")

	if _, ok := ctx.Deadline(); !ok && s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("server shutdown error", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the bound address while running, the configured one
// otherwise.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

func (s *Server) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener != nil
}
