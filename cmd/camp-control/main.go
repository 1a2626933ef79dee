// main is the entry point of the camp-control server.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (plus .env and env overrides)
//  2. Initialise the logger
//  3. Open the student store selected by storage.driver
//  4. Build the page dispatcher and mount it with the JSON API
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/camp-control --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/camp-control
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aanand-mishra/camp-control/internal/app"
	"github.com/aanand-mishra/camp-control/internal/config"
	"github.com/aanand-mishra/camp-control/internal/storage"
	"github.com/aanand-mishra/camp-control/internal/storage/memory"
	"github.com/aanand-mishra/camp-control/internal/storage/postgres"
	"github.com/aanand-mishra/camp-control/internal/storage/sqlite"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting camp-control",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	store, closeStore, err := openStorage(cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	// ── 4. Pages and API ──────────────────────────────────────────────────
	nav, err := app.NewDispatcher(store, cfg.Navigation.History, cfg.Navigation.Base)
	if err != nil {
		log.Error("failed to build routes", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, r := range nav.Routes() {
		log.Debug("page registered",
			slog.String("name", r.Name),
			slog.String("path", r.Path),
			slog.String("href", nav.History().Href(r.Path)))
	}

	// ── 5. Create the HTTP Server ─────────────────────────────────────────
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      app.NewHandler(store, nav, log),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 6. Start Server in a Goroutine ────────────────────────────────────
	go func() {
		log.Info("server started",
			slog.String("address", cfg.HTTPServer.Addr),
			slog.String("history", cfg.Navigation.History))

		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// openStorage opens the store for the configured driver. The returned
// func releases it.
func openStorage(cfg config.Storage) (storage.Storage, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), func() {}, nil

	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s.Close), nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create storage dir: %w", err)
			}
		}

		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s.Close), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func closer(fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			slog.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
