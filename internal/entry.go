// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/rowanh/notegraph/internal/api"
	"github.com/rowanh/notegraph/internal/graph"
	"github.com/rowanh/notegraph/internal/mcpserver"
	"github.com/rowanh/notegraph/internal/metrics"
	"github.com/rowanh/notegraph/internal/noteservice"
	"github.com/rowanh/notegraph/internal/sse"
	"github.com/rowanh/notegraph/internal/tenant"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("graph_uri", cfg.Graph.URI),
		slog.String("tenant_registry", cfg.Tenancy.RegistryPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Connect to the graph database.
	conn, err := graph.Dial(ctx, graph.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
	})
	if err != nil {
		return fmt.Errorf("connect graph: %w", err)
	}
	defer func() { _ = conn.Close(context.Background()) }()

	// Open the tenant registry.
	tenants, err := tenant.Open(cfg.Tenancy.RegistryPath)
	if err != nil {
		return fmt.Errorf("open tenant registry: %w", err)
	}
	defer tenants.Close()

	// SSE broker.
	broker := sse.NewBroker(app.throttle())
	defer broker.Close()

	// Build the note service and API router.
	svc := noteservice.NewService(conn, tenants, broker)
	h := api.NewHandler(svc)
	apiRouter := api.NewRouter(h, api.AuthMiddleware(cfg.Auth.AuthEnabled(), cfg.Auth.Token))

	// Build chi router.
	collector := metrics.NewCollector()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := conn.Verify(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"graph unreachable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Service counters for monitoring (unauthenticated, like health).
	r.Get("/metrics", collector.Handler)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// SSE endpoint.
	r.Get("/api/events", broker.ServeHTTP)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server over stdio for a single user. Logs go to
// stderr so stdout stays clean for the protocol.
func RunMCP(ctx context.Context, userID string, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	conn, err := graph.Dial(ctx, graph.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
	})
	if err != nil {
		return fmt.Errorf("connect graph: %w", err)
	}
	defer func() { _ = conn.Close(context.Background()) }()

	tenants, err := tenant.Open(cfg.Tenancy.RegistryPath)
	if err != nil {
		return fmt.Errorf("open tenant registry: %w", err)
	}
	defer tenants.Close()

	svc := noteservice.NewService(conn, tenants, nil)
	srv := mcpserver.New(svc, userID)

	logger.Info("MCP server starting on stdio", slog.String("user_id", userID))
	return srv.ServeStdio()
}
