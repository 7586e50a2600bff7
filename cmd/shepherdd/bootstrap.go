package main

import (
	"context"
	"fmt"
	"log/slog"

	"shepherd/internal/approval"
	"shepherd/internal/config"
	"shepherd/internal/preflight"
	"shepherd/internal/reaper"
	"shepherd/internal/storage"
)

func newSweep(cfg *config.Config, store *storage.DB, logger *slog.Logger) *reaper.Manager {
	return reaper.NewManager(approval.NewStore(store), logger, cfg.SweepInterval())
}

// runEnvironmentChecks fails startup when the environment is broken so the
// daemon does not limp along logging sweep errors forever.
func runEnvironmentChecks(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var failed int
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			continue
		}
		failed++
		logger.Error("environment check failed",
			slog.String("check", result.Name),
			slog.String("detail", result.Detail))
	}
	if failed > 0 {
		return fmt.Errorf("%d environment check(s) failed", failed)
	}
	return nil
}
