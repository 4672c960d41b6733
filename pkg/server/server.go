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

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/costs/report"
	"mercator-hq/saturn/pkg/server/middleware"
	"mercator-hq/saturn/pkg/share"
	"mercator-hq/saturn/pkg/telemetry/health"
	"mercator-hq/saturn/pkg/telemetry/metrics"
	"mercator-hq/saturn/pkg/telemetry/tracing"

	"github.com/gorilla/mux"
)

// Deps are the components served by the API.
type Deps struct {
	Reports *report.Service
	Budgets *budget.Engine
	Shares  *share.Cache
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Health  *health.Checker
	Logger  *slog.Logger

	// Now overrides the clock used for snapshot timestamps.
	Now func() time.Time
}

// Server is the HTTP API server.
type Server struct {
	config       *config.Config
	deps         Deps
	logger       *slog.Logger
	now          func() time.Time
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates an API server.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Server{
		config:       cfg,
		deps:         deps,
		logger:       logger.With("component", "server"),
		now:          now,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	select {
	case <-s.shutdownChan:
		s.mu.Unlock()
		return fmt.Errorf("server has been shut down")
	default:
	}
	s.isRunning = true

	s.httpServer = &http.Server{
		Addr:         s.config.Server.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting api server", "address", s.config.Server.ListenAddress)

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
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)

		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		srv := s.httpServer
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if srv != nil {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("api server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.deps.Health != nil {
		r.Handle("/ready", s.deps.Health.ReadinessHandler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/credentials/validate", s.handleValidate).Methods(http.MethodPost)

	api.HandleFunc("/costs", s.handleGetCosts).Methods(http.MethodGet)
	api.HandleFunc("/costs/upload", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/cache/flush", s.handleCacheFlush).Methods(http.MethodPost)
	api.HandleFunc("/cache/stats", s.handleCacheStats).Methods(http.MethodGet)

	api.HandleFunc("/budgets", s.handleListBudgets).Methods(http.MethodGet)
	api.HandleFunc("/budgets", s.handleSaveBudget).Methods(http.MethodPost)
	api.HandleFunc("/budgets/utilization", s.handleUtilization).Methods(http.MethodGet)
	api.HandleFunc("/budgets/alerts", s.handleGenerateAlerts).Methods(http.MethodPost)
	api.HandleFunc("/budgets/{id}", s.handleDeleteBudget).Methods(http.MethodDelete)

	api.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/ack", s.handleAckNotification).Methods(http.MethodPost)

	api.HandleFunc("/shares", s.handleCreateShare).Methods(http.MethodPost)
	api.HandleFunc("/shares", s.handleListShares).Methods(http.MethodGet)
	api.HandleFunc("/shares/cleanup", s.handleCleanupShares).Methods(http.MethodPost)
	api.HandleFunc("/shares/{id}", s.handleGetShare).Methods(http.MethodGet)
	api.HandleFunc("/shares/{id}/stats", s.handleShareStats).Methods(http.MethodGet)

	api.HandleFunc("/export/csv", s.handleExportCSV).Methods(http.MethodGet)
	api.HandleFunc("/export/json", s.handleExportJSON).Methods(http.MethodGet)

	if m := s.config.Telemetry.Metrics; m.Enabled && s.deps.Metrics != nil {
		r.Handle(m.Path, s.deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	var handler http.Handler = r
	handler = middleware.BodyLimitMiddleware(s.config.Server.MaxBodyBytes)(handler)
	handler = middleware.AccountMiddleware(handler)
	handler = middleware.TracingMiddleware(s.deps.Tracer)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)

	return handler
}
