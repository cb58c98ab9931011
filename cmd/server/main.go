// Command server runs the Kmetija Maroša storefront API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kmetijamarosa/storefront/app"
	"github.com/kmetijamarosa/storefront/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	application, err := app.New()
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	code := 0
	if err := run(application); err != nil {
		application.Logger.Error("server exited with error", "error", err)
		code = 1
	}
	if err := application.Close(); err != nil {
		application.Logger.Warn("failed to release resources", "error", err)
	}
	os.Exit(code)
}

func run(application *app.App) error {
	srv, err := server.New(application.Config, application.Logger, application.Handlers, application.MetricsHandler)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Close(shutdownCtx)
}
