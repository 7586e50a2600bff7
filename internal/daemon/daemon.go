package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"shepherd/internal/config"
	"shepherd/internal/logging"
	"shepherd/internal/reaper"
	"shepherd/internal/storage"
)

// Daemon runs the background expiry sweep and enforces single-instance
// execution through a lock file in the log directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *storage.DB
	sweep  *reaper.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *storage.DB, sweep *reaper.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || sweep == nil {
		return nil, errors.New("daemon requires config, store, and sweep manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "shepherdd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.FieldComponent, "daemon"),
		store:    store,
		sweep:    sweep,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the sweep loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shepherd daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.sweep.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("sweep loop exited", slog.Any("error", err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("shepherd daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop stops the sweep loop and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.Any("error", err))
	}
	d.running.Store(false)
	d.logger.Info("shepherd daemon stopped")
}

// Running reports whether the daemon holds the lock and the loop is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
