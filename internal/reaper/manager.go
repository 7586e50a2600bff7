// Package reaper sweeps overdue approval requests into the expired state on a
// fixed interval so pending queues never hold requests past their deadline.
package reaper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shepherd/internal/approval"
	"shepherd/internal/logging"
	"shepherd/internal/telemetry"
)

// Manager drives the periodic expiry sweep over the approval store.
type Manager struct {
	store    *approval.Store
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// Option customizes manager construction.
type Option func(*Manager)

// WithClock overrides the sweep clock, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager builds a sweep manager. A non-positive interval falls back to
// one minute.
func NewManager(store *approval.Store, logger *slog.Logger, interval time.Duration, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	manager := &Manager{
		store:    store,
		logger:   logger.With(logging.FieldComponent, "reaper"),
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// RunOnce performs a single expiry sweep and returns how many requests moved
// to expired.
func (m *Manager) RunOnce(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "reaper.sweep")
	expired, err := m.store.ExpireOverdue(ctx, m.now())
	telemetry.EndSpan(span, err)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		logging.WithContext(ctx, m.logger).Info("expired overdue approval requests",
			slog.Int64("count", expired))
	}
	return expired, nil
}

// Run sweeps on the configured interval until the context is cancelled. The
// first sweep happens immediately so a restarted daemon clears backlog
// without waiting a full interval.
func (m *Manager) Run(ctx context.Context) error {
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("expiry sweep started", slog.Duration("interval", m.interval))

	if _, err := m.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("expiry sweep failed", slog.Any("error", err))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry sweep stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.RunOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				logger.Warn("expiry sweep failed", slog.Any("error", err))
			}
		}
	}
}
