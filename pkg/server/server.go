package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/telemetry/health"
)

// MetricsHandler exposes a Prometheus scrape handler. The metrics
// collector satisfies it; nil disables the /metrics route.
type MetricsHandler interface {
	Handler() http.Handler
}

// Dependencies bundles the components the API server exposes. Storage is
// required; States and Metrics may be nil when the corresponding feature
// is disabled.
type Dependencies struct {
	Storage probe.Storage
	States  StateReader
	Metrics MetricsHandler

	// MetricsPath is the route the scrape handler is mounted on.
	// Defaults to "/metrics".
	MetricsPath string

	// Build information served by /version.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the HTTP API server for probe results, target state, health,
// and metrics.
type Server struct {
	config       *config.ServerConfig
	storage      probe.Storage
	states       StateReader
	metrics      MetricsHandler
	metricsPath  string
	checker      *health.Checker
	version      string
	commit       string
	buildTime    string
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	logger       *slog.Logger
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new API server. Health checks for components can be
// registered on Checker() before Start.
func NewServer(cfg *config.ServerConfig, deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = "/metrics"
	}

	return &Server{
		config:       cfg,
		storage:      deps.Storage,
		states:       deps.States,
		metrics:      deps.Metrics,
		metricsPath:  deps.MetricsPath,
		checker:      health.New(0),
		version:      deps.Version,
		commit:       deps.Commit,
		buildTime:    deps.BuildTime,
		shutdownChan: make(chan struct{}),
		logger:       logger.With("component", "server"),
	}
}

// Checker returns the health checker so callers can register component
// readiness checks.
func (s *Server) Checker() *health.Checker {
	return s.checker
}

// Start starts the HTTP server and blocks until shutdown. Shutdown is
// triggered by context cancellation, SIGINT/SIGTERM, or TriggerShutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting api server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// TriggerShutdown requests a graceful shutdown from another goroutine.
func (s *Server) TriggerShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler with the full middleware
// chain. Exposed for testing.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes configures HTTP routes and middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.checker.LivenessHandler())
	mux.HandleFunc("/ready", s.checker.ReadinessHandler())
	mux.HandleFunc("/version", health.VersionHandler(s.version, s.commit, s.buildTime))
	mux.HandleFunc("/api/v1/results", s.handleResults)
	mux.HandleFunc("/api/v1/targets", s.handleTargets)

	if s.metrics != nil {
		mux.Handle(s.metricsPath, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = RequestIDMiddleware(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RecoveryMiddleware(s.logger)(handler)

	return handler
}
