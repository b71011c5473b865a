package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tbt/internal/platform/config"
	"tbt/internal/platform/httpserver"
	"tbt/internal/platform/logger"
	"tbt/internal/platform/tracing"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and runs the HTTP server, the claim reaper and the
// settlement worker until SIGINT or SIGTERM.
func main() {
	if err := run(); err != nil {
		slog.Error("tbt exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Init()
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.Server.Addr, a.router())
	g, gCtx := errgroup.WithContext(ctx)

	log.Info("starting tbt", "postgres", cfg.Database.Enabled(), "kafka", cfg.Kafka.Enabled())
	g.Go(func() error {
		return httpserver.Run(gCtx, srv, log)
	})
	g.Go(func() error {
		return ignoreCanceled(a.transfers.RunReaper(gCtx, cfg.Transfer.ReaperInterval))
	})
	g.Go(func() error {
		return ignoreCanceled(a.worker.Run(gCtx))
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("tbt shut down gracefully")
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
