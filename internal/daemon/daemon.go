// Package daemon runs the background processing half of briefcast: it owns
// the task worker pool, enforces single-instance execution with a lock
// file, and exposes a runtime status snapshot.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"briefcast/internal/config"
	"briefcast/internal/logging"
	"briefcast/internal/records"
	"briefcast/internal/tasks"
)

// Daemon coordinates the worker pool and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *records.Store
	pool   *tasks.Pool

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DatabasePath string
	LockFilePath string
	Workers      int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *records.Store, pool *tasks.Pool, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || pool == nil {
		return nil, errors.New("daemon requires config, store, and worker pool")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "briefcast.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		pool:     pool,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the worker pool.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another briefcast daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pool.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start worker pool: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String(logging.FieldComponent, "daemon"),
		logging.String("lock", d.lockPath),
		logging.Int("workers", d.cfg.Workers.Count),
	)
	return nil
}

// Stop drains the worker pool and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pool.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.String(logging.FieldComponent, "daemon"),
			logging.Error(err),
		)
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped", logging.String(logging.FieldComponent, "daemon"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Workers:      d.cfg.Workers.Count,
	}
}
