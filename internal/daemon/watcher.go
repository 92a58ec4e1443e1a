// Package daemon implements the standing background agent.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
	"github.com/eliteGoblin/focusd/eb_agent/internal/gesture"
)

// ScreenPointer is a pointer source that also knows the screen size.
type ScreenPointer interface {
	gesture.PointerSource
	Geometry() (gesture.ScreenGeometry, error)
}

// Rearmer replaces the running daemon with a fresh one.
// On success it does not return: the current process exits.
type Rearmer interface {
	Rearm() error
}

// DefaultHeartbeatInterval bounds registry writes while the pointer idles.
const DefaultHeartbeatInterval = 30 * time.Second

// WatcherConfig holds watcher daemon configuration.
type WatcherConfig struct {
	PatternID      string
	SampleInterval time.Duration // pointer polling cadence
	GeometryRetry  time.Duration // wait between failed screen size queries
	Heartbeat      time.Duration // minimum time between registry heartbeats
	RearmOnCancel  bool          // re-arm instead of resuming after a cancelled countdown
	AppVersion     string
}

// DefaultWatcherConfig returns default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		PatternID:      gesture.RectanglePatternID,
		SampleInterval: gesture.DefaultSampleInterval,
		GeometryRetry:  time.Second,
		Heartbeat:      DefaultHeartbeatInterval,
	}
}

// Watcher is the main daemon loop.
// It waits for the gesture, confirms with a countdown, backs up and re-arms.
type Watcher struct {
	config    WatcherConfig
	patterns  *gesture.Registry
	pointer   ScreenPointer
	countdown domain.CountdownUI
	store     domain.ConfigStore
	copier    domain.Copier
	registry  domain.AgentRegistry // optional
	rearmer   Rearmer
	pid       int
	logger    *zap.Logger

	// lastBeat is when the registry last heard from this daemon.
	lastBeat time.Time
}

// NewWatcher creates a new watcher daemon. registry may be nil.
func NewWatcher(
	config WatcherConfig,
	patterns *gesture.Registry,
	pointer ScreenPointer,
	countdown domain.CountdownUI,
	store domain.ConfigStore,
	copier domain.Copier,
	registry domain.AgentRegistry,
	rearmer Rearmer,
	pid int,
	logger *zap.Logger,
) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.GeometryRetry <= 0 {
		config.GeometryRetry = time.Second
	}
	if config.Heartbeat <= 0 {
		config.Heartbeat = DefaultHeartbeatInterval
	}
	return &Watcher{
		config:    config,
		patterns:  patterns,
		pointer:   pointer,
		countdown: countdown,
		store:     store,
		copier:    copier,
		registry:  registry,
		rearmer:   rearmer,
		pid:       pid,
		logger:    logger,
	}
}

// Run starts the watcher daemon loop.
// It returns when the daemon re-arms, or with ctx.Err() when canceled.
func (w *Watcher) Run(ctx context.Context) error {
	geometry, err := w.waitForGeometry(ctx)
	if err != nil {
		return err
	}

	pattern, err := w.patterns.New(w.config.PatternID, geometry)
	if err != nil {
		return err
	}
	recognizer := gesture.NewRecognizer(pattern, w.pointer, w.config.SampleInterval, w.logger)

	w.register()
	w.logger.Info("watcher daemon started",
		zap.Int("pid", w.pid),
		zap.String("pattern", pattern.ID()),
		zap.Float64("screen_width", geometry.Width),
		zap.Float64("screen_height", geometry.Height))

	for {
		matched, err := recognizer.Recognize(ctx)
		if err != nil {
			w.logger.Info("watcher daemon stopping")
			return err
		}
		w.heartbeat()
		if !matched {
			continue
		}

		w.logger.Info("gesture recognized, starting countdown")
		outcome, err := w.countdown.Present(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("countdown failed, resuming watch", zap.Error(err))
			continue
		}

		if outcome == domain.CountdownCancelled {
			w.logger.Info("backup cancelled by user")
			if w.config.RearmOnCancel {
				return w.rearm()
			}
			continue
		}

		w.runBackup(ctx)
		return w.rearm()
	}
}

// waitForGeometry retries until the display can be queried.
func (w *Watcher) waitForGeometry(ctx context.Context) (gesture.ScreenGeometry, error) {
	warned := false
	for {
		g, err := w.pointer.Geometry()
		if err == nil {
			return g, nil
		}
		if !warned {
			w.logger.Warn("screen geometry unavailable, retrying", zap.Error(err))
			warned = true
		}

		select {
		case <-ctx.Done():
			return gesture.ScreenGeometry{}, ctx.Err()
		case <-time.After(w.config.GeometryRetry):
		}
	}
}

// runBackup copies the configured folders with the configuration as it is now.
func (w *Watcher) runBackup(ctx context.Context) {
	started := time.Now()

	// Reloaded on every run: the user may have reconfigured since this daemon started.
	cfg, err := w.store.Load()
	if err != nil {
		w.logger.Error("cannot back up without a valid configuration", zap.Error(err))
		w.recordBackup(domain.BackupRun{
			ID:         uuid.NewString(),
			StartedAt:  started,
			FinishedAt: time.Now(),
			Status:     domain.BackupFailed,
			Error:      err.Error(),
		})
		return
	}

	report := w.copier.Copy(ctx, cfg.DeviceName, cfg.FolderPaths)
	w.logger.Info("backup run recorded",
		zap.String("id", report.ID),
		zap.String("status", string(report.Status())),
		zap.Int("files", report.FilesCopied),
		zap.Int64("bytes", report.BytesCopied))
	w.recordBackup(report.Record())
}

func (w *Watcher) rearm() error {
	w.logger.Info("re-arming daemon")
	if err := w.rearmer.Rearm(); err != nil {
		return fmt.Errorf("re-arm: %w", err)
	}
	return nil
}

func (w *Watcher) register() {
	if w.registry == nil {
		return
	}
	w.lastBeat = time.Now()
	err := w.registry.RegisterGeneration(domain.DaemonGeneration{
		PID:        w.pid,
		AppVersion: w.config.AppVersion,
		StartedAt:  w.lastBeat,
	})
	if err != nil {
		w.logger.Warn("failed to register daemon generation", zap.Error(err))
	}
}

// heartbeat runs after every recognition attempt; a pointer resting off the
// pattern ends an attempt each sample, so writes are throttled.
func (w *Watcher) heartbeat() {
	if w.registry == nil || time.Since(w.lastBeat) < w.config.Heartbeat {
		return
	}
	w.lastBeat = time.Now()
	if err := w.registry.Heartbeat(w.pid); err != nil {
		w.logger.Warn("failed to update heartbeat", zap.Error(err))
	}
}

func (w *Watcher) recordBackup(run domain.BackupRun) {
	if w.registry == nil {
		return
	}
	if err := w.registry.RecordBackup(run); err != nil {
		w.logger.Warn("failed to record backup run", zap.Error(err))
	}
}

// IsStopped reports whether err only means the daemon was asked to stop.
func IsStopped(err error) bool {
	return errors.Is(err, context.Canceled)
}
