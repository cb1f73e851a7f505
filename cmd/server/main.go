// Tome server entry point. Loads configuration, connects the configured
// persistence backend, wires the application, and starts the HTTP server
// with graceful shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keyxmakerx/tome/internal/app"
	"github.com/keyxmakerx/tome/internal/config"
	"github.com/keyxmakerx/tome/internal/database"
	"github.com/keyxmakerx/tome/internal/editor"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting Tome",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Editor.Storage),
	)

	// Connect the persisted-state backend selected by EDITOR_STORAGE.
	store, cleanup, err := newStore(cfg)
	if err != nil {
		slog.Error("failed to initialize storage backend", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	// Create the application with all dependencies and register routes.
	application := app.New(cfg, store)
	application.RegisterRoutes()

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Give in-flight requests 10 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Echo.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// newStore builds the editor.Store implementation for the configured
// backend. The returned cleanup closes the underlying connection.
func newStore(cfg *config.Config) (editor.Store, func(), error) {
	switch cfg.Editor.Storage {
	case config.StorageMariaDB:
		db, err := database.NewMariaDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(db, "./migrations"); err != nil {
			db.Close()
			return nil, nil, err
		}
		return editor.NewMariaDBStore(db), func() { db.Close() }, nil

	default: // config.StorageRedis, enforced by config.Load
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return editor.NewRedisStore(rdb), func() { rdb.Close() }, nil
	}
}

// setupLogging configures the global slog logger. Development uses a
// human-readable text handler, production uses JSON for log aggregation.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
