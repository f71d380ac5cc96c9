package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"kinemetry/internal/config"
	"kinemetry/internal/session"
	"kinemetry/internal/store"
)

// Daemon owns the live service dependencies and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	manager *session.Manager

	lockPath string
	lock     *flock.Flock

	server *streamServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	Bind           string
	StoreDBPath    string
	LockFilePath   string
	ActiveSessions []string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		manager:  session.NewManager(logger),
		lockPath: cfg.Daemon.LockPath,
		lock:     flock.New(cfg.Daemon.LockPath),
	}
	d.server = newStreamServer(cfg.Daemon.Bind, d, logger)
	return d, nil
}

// Start acquires the daemon lock and begins serving pose streams.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another kinemetry daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.server.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start stream server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("kinemetry daemon started",
		slog.String("bind", d.server.addr()),
		slog.String("lock", d.lockPath))
	return nil
}

// Stop ends every running session, shuts down the listener and
// releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()

	for _, summary := range d.manager.StopAll() {
		if err := d.store.FinishSession(context.Background(), summary); err != nil {
			d.logger.Warn("failed to persist session on shutdown",
				slog.String("session_id", summary.SessionID),
				slog.String("error", err.Error()))
		}
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.String("error", err.Error()))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("kinemetry daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the address the stream server is listening on. Useful
// when the configured bind uses port 0.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// Status reports current runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:        d.running.Load(),
		Bind:           d.server.addr(),
		StoreDBPath:    d.store.Path(),
		LockFilePath:   d.lockPath,
		ActiveSessions: d.manager.Active(),
	}
}
