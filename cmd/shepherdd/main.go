package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"shepherd/internal/config"
	"shepherd/internal/daemon"
	"shepherd/internal/logging"
	"shepherd/internal/storage"
	"shepherd/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := telemetry.Init(cfg); err != nil {
		logger.Warn("telemetry init failed", slog.Any("error", err))
	}

	store, err := storage.Open(cfg)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		return
	}

	d, err := daemon.New(cfg, store, newSweep(cfg, store, logger), logger)
	if err != nil {
		logger.Error("create daemon", slog.Any("error", err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := runEnvironmentChecks(ctx, cfg, logger); err != nil {
		return
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", slog.Any("error", err))
		return
	}

	<-ctx.Done()
	logger.Info("shepherdd shutting down")
}
