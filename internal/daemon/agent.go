package daemon

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// Locker is the exclusive daemon lock.
type Locker interface {
	Acquire(ctx context.Context, timeout time.Duration) error
	Release() error
}

// Agent is a daemon-mode process: it holds the daemon lock, runs the CPU
// monitor beside the watcher, and lives until the watcher re-arms or stops.
type Agent struct {
	lock        Locker
	lockTimeout time.Duration
	monitor     *CPUMonitor // optional
	watcher     *Watcher
	logger      *zap.Logger
}

// NewAgent creates a daemon-mode process. monitor may be nil.
func NewAgent(lock Locker, lockTimeout time.Duration, monitor *CPUMonitor, watcher *Watcher, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		lock:        lock,
		lockTimeout: lockTimeout,
		monitor:     monitor,
		watcher:     watcher,
		logger:      logger,
	}
}

// Run blocks until the watcher returns.
// A predecessor that keeps the lock past the timeout means another daemon is
// already watching; this process then exits quietly.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.lock.Acquire(ctx, a.lockTimeout); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			a.logger.Info("another daemon holds the lock, exiting")
			return nil
		}
		return err
	}
	defer func() { _ = a.lock.Release() }()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	if a.monitor != nil {
		go a.monitor.Run(monitorCtx)
	}

	err := a.watcher.Run(ctx)
	if IsStopped(err) {
		return nil
	}
	return err
}
