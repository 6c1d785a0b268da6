package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/contactsel/internal/config"
	"github.com/JonMunkholm/contactsel/internal/logging"
	"github.com/JonMunkholm/contactsel/internal/session"
	"github.com/JonMunkholm/contactsel/internal/sheet"
	"github.com/JonMunkholm/contactsel/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"session_idle_ttl", cfg.Session.IdleTTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	codec := sheet.New(cfg.Upload.MaxFileSize)

	store := session.NewStore(codec, session.Options{
		IdleTTL:              cfg.Session.IdleTTL,
		JanitorInterval:      cfg.Session.JanitorInterval,
		DecodeTimeout:        cfg.Upload.Timeout,
		MaxConcurrentDecodes: cfg.Upload.MaxConcurrent,
		MaxWait:              cfg.Upload.MaxWaitTime,
	})

	server, err := web.NewServer(store, codec, cfg)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown on signal, or when the listener fails
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight decodes land before the listener closes
		if pending := store.PendingDecodes(); pending > 0 {
			slog.Info("waiting for decodes to complete", "pending", pending)
			if err := store.WaitForDecodes(shutdownCtx); err != nil {
				slog.Warn("decodes did not complete in time", "error", err)
			} else {
				slog.Info("all decodes completed")
			}
		}

		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	store.Close()
	if err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
