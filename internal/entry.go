// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/mkoster/daymark/internal/api"
	"github.com/mkoster/daymark/internal/mcpserver"
	"github.com/mkoster/daymark/internal/sse"
	"github.com/mkoster/daymark/internal/storage"
	"github.com/mkoster/daymark/internal/trackservice"
)

// buildStore constructs the configured storage backend. Closing is the
// caller's responsibility via the returned closer (nil for Supabase).
func buildStore(cfg *Config) (storage.Provider, io.Closer, error) {
	switch cfg.Store.Backend {
	case BackendSQLite:
		db, err := storage.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return db, db, nil
	default:
		sb, err := storage.NewSupabase(cfg.Store.URL, cfg.Store.ServiceKey,
			cfg.Store.ThingsTable, cfg.Store.EntriesTable)
		if err != nil {
			return nil, nil, fmt.Errorf("init supabase store: %w", err)
		}
		return sb, nil, nil
	}
}

func initLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP API with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := initLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_backend", cfg.Store.Backend),
		slog.Int("history_lookback", cfg.History.Lookback),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store := app.store
	if store == nil {
		s, closer, err := buildStore(cfg)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}
		store = s
	}

	// SSE broker for entry-save notifications.
	broker := sse.NewBroker()
	defer broker.Close()

	svc := trackservice.New(store, cfg.History.Lookback, nil)
	apiRouter := api.NewRouter(svc, broker, http.HandlerFunc(broker.ServeHTTP))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

// RunMCP starts the MCP stdio server with the given options. Logs go to
// stderr because stdout carries the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	initLogger(cfg, os.Stderr)

	store := app.store
	if store == nil {
		s, closer, err := buildStore(cfg)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}
		store = s
	}

	svc := trackservice.New(store, cfg.History.Lookback, nil)
	return mcpserver.New(svc, store).ServeStdio()
}
