package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/teemow/calbridge/internal/booking"
	"github.com/teemow/calbridge/internal/instrumentation"
)

const (
	// DefaultReadHeaderTimeout bounds reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultWriteTimeout covers the slowest calendar call plus rendering.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultIdleTimeout closes idle keep-alive connections.
	DefaultIdleTimeout = 120 * time.Second

	// maxBodyBytes caps inbound JSON bodies.
	maxBodyBytes = 1 << 20
)

// Config holds the HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit  float64
	RateBurst  int
	TrustProxy bool

	// ShutdownTimeout bounds graceful shutdown. Defaults to DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Health is reported by /healthz/detailed.
	Health HealthInfo
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder for HTTP and rate limit metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server is the webhook and REST front end of a booking.Dispatcher.
type Server struct {
	dispatcher *booking.Dispatcher
	cfg        Config
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	limiter    *RateLimiter
	health     *HealthChecker
	router     *mux.Router
	httpServer *http.Server
}

// New creates a Server. Call Run or Serve to accept connections, or use
// Handler directly.
func New(d *booking.Dispatcher, cfg Config, opts ...Option) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		dispatcher: d,
		cfg:        cfg,
		logger:     slog.Default(),
		health:     NewHealthChecker(cfg.Health),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.limiter = NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.TrustProxy)
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	return s
}

func (s *Server) routes() *mux.Router {
	base := []mux.MiddlewareFunc{
		requestIDMiddleware,
		accessLogMiddleware(s.logger, s.metrics),
		recoveryMiddleware(s.logger),
	}

	r := mux.NewRouter()
	r.Use(base...)

	s.health.RegisterHealthEndpoints(r)

	api := r.NewRoute().Subrouter()
	api.Use(rateLimitMiddleware(s.limiter, s.metrics))
	api.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	api.HandleFunc("/free-slots", s.handleFreeSlots).Methods(http.MethodGet)
	api.HandleFunc("/schedule", s.handleSchedule).Methods(http.MethodPost)

	// mux only runs r.Use middleware on matched routes.
	r.NotFoundHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "not found")
	}), base...)
	r.MethodNotAllowedHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "method not allowed")
	}), base...)
	return r
}

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, mws ...mux.MiddlewareFunc) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Handler returns the root handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Health returns the server's health checker.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. In-flight requests get ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting webhook server", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.health.MarkShuttingDown()
	s.logger.Info("shutting down webhook server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down webhook server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
