// Package usecase contains application business logic.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// TryLocker is a non-blocking exclusive lock.
type TryLocker interface {
	TryAcquire() error
	Release() error
}

// LifecycleDeps groups the collaborators of a Lifecycle.
type LifecycleDeps struct {
	Processes    domain.ProcessManager
	Spawner      domain.DaemonSpawner
	Store        domain.ConfigStore
	ConfigUI     domain.ConfigUI
	Autostart    domain.AutostartRegistrar
	RelaunchLock TryLocker

	// Executable resolves the binary registered for autostart.
	Executable  func() string
	ProcessName string

	// Out receives messages meant for the user running the configurator.
	Out io.Writer
	// Exit ends the current process. Defaults to os.Exit.
	Exit func(code int)
}

// Lifecycle starts, replaces and terminates agent processes.
// It is single-threaded: one instance serves one process.
type Lifecycle struct {
	processes    domain.ProcessManager
	spawner      domain.DaemonSpawner
	store        domain.ConfigStore
	configUI     domain.ConfigUI
	autostart    domain.AutostartRegistrar
	relaunchLock TryLocker
	executable   func() string
	processName  string
	out          io.Writer
	exit         func(code int)
	logger       *zap.Logger

	// successors are daemons this process spawned; TerminateOthers spares them.
	successors map[int]struct{}
}

// NewLifecycle creates a lifecycle manager.
func NewLifecycle(deps LifecycleDeps, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Exit == nil {
		deps.Exit = os.Exit
	}
	return &Lifecycle{
		processes:    deps.Processes,
		spawner:      deps.Spawner,
		store:        deps.Store,
		configUI:     deps.ConfigUI,
		autostart:    deps.Autostart,
		relaunchLock: deps.RelaunchLock,
		executable:   deps.Executable,
		processName:  deps.ProcessName,
		out:          deps.Out,
		exit:         deps.Exit,
		logger:       logger,
		successors:   make(map[int]struct{}),
	}
}

// IsInstanceRunning reports whether another process runs under the agent's name.
func (l *Lifecycle) IsInstanceRunning() (bool, error) {
	others, err := l.others()
	if err != nil {
		return false, err
	}
	return len(others) > 0, nil
}

// SpawnDaemon starts a detached daemon and remembers it as a successor.
func (l *Lifecycle) SpawnDaemon() error {
	pid, err := l.spawner.Spawn(domain.ModeDaemon)
	if err != nil {
		return err
	}
	l.successors[pid] = struct{}{}
	return nil
}

// TerminateOthers kills every other agent process except successors spawned
// here. With includeSelf it then exits the current process.
// Every target is attempted; failures are reported together.
func (l *Lifecycle) TerminateOthers(includeSelf bool) error {
	others, err := l.others()
	if err != nil {
		return err
	}

	var errs []error
	for _, pid := range others {
		if err := l.processes.Kill(pid); err != nil {
			l.logger.Error("failed to terminate agent process", zap.Int("pid", pid), zap.Error(err))
			errs = append(errs, fmt.Errorf("%w: pid %d: %v", domain.ErrTerminate, pid, err))
			continue
		}
		l.logger.Info("terminated agent process", zap.Int("pid", pid))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if includeSelf {
		l.logger.Info("exiting current agent process", zap.Int("pid", l.processes.GetCurrentPID()))
		l.exit(0)
	}
	return nil
}

// Rearm replaces the running daemon with a fresh one and exits.
// The successor waits on the daemon lock until this process is gone.
func (l *Lifecycle) Rearm() error {
	if err := l.SpawnDaemon(); err != nil {
		return err
	}
	return l.TerminateOthers(true)
}

// Relaunch is the hand-off step: it replaces every running agent with one new daemon.
// A concurrent hand-off holding the relaunch lock makes this a no-op.
func (l *Lifecycle) Relaunch() error {
	if err := l.relaunchLock.TryAcquire(); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			l.logger.Info("another relaunch is in progress, exiting")
			return nil
		}
		return err
	}
	defer func() { _ = l.relaunchLock.Release() }()

	if err := l.TerminateOthers(false); err != nil {
		return err
	}
	return l.SpawnDaemon()
}

// Configure is the interactive entry point.
// With a valid configuration and no agent running it only hands off to a relauncher.
// Otherwise it stops running agents, asks the user for a configuration, saves it,
// registers autostart and hands off.
func (l *Lifecycle) Configure(ctx context.Context) error {
	running, err := l.IsInstanceRunning()
	if err != nil {
		return err
	}

	existing, loadErr := l.store.Load()
	switch {
	case loadErr == nil && !running:
		l.logger.Info("configuration valid and no agent running, handing off")
		return l.handOff()
	case loadErr == nil:
	case errors.Is(loadErr, domain.ErrConfigCorrupted):
		l.logger.Warn("configuration corrupted", zap.String("path", l.store.Path()), zap.Error(loadErr))
		fmt.Fprintf(l.out, "The configuration at %s is corrupted and must be re-entered.\n", l.store.Path())
	case errors.Is(loadErr, domain.ErrConfigNotFound):
		l.logger.Info("no configuration saved yet")
	default:
		return fmt.Errorf("load configuration: %w", loadErr)
	}

	if err := l.TerminateOthers(false); err != nil {
		return err
	}

	outcome, cfg, err := l.configUI.Present(ctx, existing)
	if err != nil {
		return fmt.Errorf("configuration ui: %w", err)
	}
	if outcome != domain.UICompleted {
		fmt.Fprintln(l.out, "Configuration not changed.")
		if loadErr == nil {
			// The previous configuration still stands; put its daemon back.
			return l.handOff()
		}
		return nil
	}

	if err := l.store.Save(cfg); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	l.logger.Info("configuration saved",
		zap.String("device", cfg.DeviceName),
		zap.Strings("folders", cfg.FolderPaths))

	name, value := domain.ModeDaemon.Env()
	if err := l.autostart.Register(l.executable(), map[string]string{name: value}); err != nil {
		return fmt.Errorf("register autostart: %w", err)
	}
	fmt.Fprintf(l.out, "Saved. Backups go to %q; autostart entry at %s.\n", cfg.DeviceName, l.autostart.Path())

	return l.handOff()
}

func (l *Lifecycle) handOff() error {
	pid, err := l.spawner.Spawn(domain.ModeRelaunch)
	if err != nil {
		return err
	}
	l.logger.Info("relauncher started", zap.Int("pid", pid))
	return nil
}

// others lists agent processes that are neither this one nor a successor.
func (l *Lifecycle) others() ([]int, error) {
	pids, err := l.processes.FindByExactName(l.processName)
	if err != nil {
		if errors.Is(err, domain.ErrProcessEnumeration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProcessEnumeration, err)
	}

	self := l.processes.GetCurrentPID()
	out := make([]int, 0, len(pids))
	for _, pid := range pids {
		if pid == self {
			continue
		}
		if _, ok := l.successors[pid]; ok {
			continue
		}
		out = append(out, pid)
	}
	return out, nil
}
