package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"paddock/internal/championship/handler"
	championshipmetrics "paddock/internal/championship/metrics"
	"paddock/internal/championship/service"
	"paddock/internal/platform/config"
	"paddock/internal/platform/httpserver"
	"paddock/internal/platform/logger"
	platformmetrics "paddock/internal/platform/metrics"
	"paddock/pkg/platform/middleware/metadata"
	"paddock/pkg/platform/middleware/request"
	"paddock/pkg/platform/middleware/requesttime"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	publisher, err := openPublisher(ctx, cfg.Kafka, b, log)
	if err != nil {
		return err
	}

	svcOpts := append([]service.Option{
		service.WithLogger(log),
		service.WithMetrics(championshipmetrics.New()),
		service.WithPublisher(publisher),
	}, healthChecks(b)...)
	svc, err := service.New(b.store.Stores(), b.store, svcOpts...)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	httpMetrics := platformmetrics.New()
	r := chi.NewRouter()
	r.Use(request.Recover(log))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(log))
	r.Use(request.Timeout(cfg.Server.RequestTimeout))
	r.Use(httpMetrics.LatencyMiddleware)
	r.Handle("/metrics", platformmetrics.Handler())
	handler.New(svc, log, cfg.Server.AdminToken).Register(r)

	if cfg.Server.AdminToken == "" {
		log.WarnContext(ctx, "no admin token configured, mutating routes are open")
	}

	srv := httpserver.New(cfg.Server, r)
	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "starting paddock", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
