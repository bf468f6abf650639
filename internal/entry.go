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

	"github.com/starford/flashdeck/internal/api"
	"github.com/starford/flashdeck/internal/catalog"
	"github.com/starford/flashdeck/internal/deckservice"
	"github.com/starford/flashdeck/internal/index"
	"github.com/starford/flashdeck/internal/mcpserver"
	"github.com/starford/flashdeck/internal/parser"
	"github.com/starford/flashdeck/internal/sse"
	"github.com/starford/flashdeck/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{
		version:   "dev",
		logOutput: os.Stdout,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openService wires storage, index and catalog into a deck service and
// performs the initial reload. The returned func closes the index.
func (a *application) openService(ctx context.Context, logger *slog.Logger, opts ...deckservice.Option) (*deckservice.Service, func(), error) {
	cfg := a.config

	// Ensure deck directory exists.
	if err := os.MkdirAll(cfg.Deck.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create deck dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Deck.Path, parser.Ext)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	svc := deckservice.NewService(store, db, catalog.New(db, logger), logger, opts...)

	start := time.Now()
	res, err := svc.Reload(ctx)
	if err != nil {
		// Serve an empty deck rather than refusing to start; /health/ready
		// reports 503 until a reload succeeds.
		logger.Warn("initial reload failed", slog.String("error", err.Error()))
	} else {
		logger.Info("Deck loaded",
			slog.Int("cards", res.Cards),
			slog.Int("tags", res.Tags),
			slog.Int("failed_sources", res.Failed),
			slog.Duration("took", time.Since(start)))
	}

	return svc, func() { _ = db.Close() }, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("deck_path", cfg.Deck.Path),
		slog.Bool("watch", cfg.Deck.Watch),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker doubles as the service notifier.
	broker := sse.NewBroker(cfg.SSE.ReloadThrottle)
	defer broker.Close()

	svc, closeDB, err := app.openService(ctx, logger, deckservice.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer closeDB()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !svc.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the index and snapshot in step with the deck directory.
	if cfg.Deck.Watch {
		g.Go(func() error {
			if err := svc.Watch(gCtx); err != nil {
				return fmt.Errorf("deck watcher: %w", err)
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Ends open event streams; Shutdown waits for them otherwise.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once a shutdown was requested so the
// watcher stops together with the HTTP server.
var errShutdown = errors.New("shutdown requested")

// RunMCP serves the MCP protocol on stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger()

	svc, closeDB, err := app.openService(ctx, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	if app.config.Deck.Watch {
		g.Go(func() error {
			return svc.Watch(gCtx)
		})
	}
	g.Go(func() error {
		defer cancel()
		logger.Info("MCP server starting on stdio")
		return mcpserver.New(svc, app.version).ServeStdio()
	})
	return g.Wait()
}

// Summarize loads the deck once and summarizes the given card IDs.
func Summarize(ctx context.Context, cardIDs []string, opts ...Option) (*deckservice.Summary, error) {
	opts = append([]Option{WithLogOutput(io.Discard)}, opts...)
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	logger := app.newLogger()

	svc, closeDB, err := app.openService(ctx, logger)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	if !svc.Ready() {
		return nil, fmt.Errorf("deck could not be loaded from %s", app.config.Deck.Path)
	}
	return svc.Summarize(ctx, cardIDs), nil
}
