// Package main is the CLI entry point for ebagent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/eb_agent/internal/daemon"
	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
	"github.com/eliteGoblin/focusd/eb_agent/internal/gesture"
	"github.com/eliteGoblin/focusd/eb_agent/internal/infra"
	"github.com/eliteGoblin/focusd/eb_agent/internal/tui"
	"github.com/eliteGoblin/focusd/eb_agent/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ebagent",
	Short: "Emergency backup agent - copies your folders when you trace the gesture",
	Long: `ebagent watches the mouse pointer in the background. Tracing the edge of
the screen clockwise from the top-left corner starts a short countdown, after
which the configured folders are copied onto the configured external device.

Run it from a terminal to choose the device and folders. After saving, the
agent relaunches itself in the background and starts at every login.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runAgent,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent status",
	Long:  `Shows running agent processes, the last daemon generation, the last backup and the saved configuration.`,
	RunE:  runStatus,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent backup runs",
	RunE:  runHistory,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	historyLimit int
	jsonOutput   bool
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// runAgent dispatches on the launch mode set in the environment.
func runAgent(cmd *cobra.Command, args []string) error {
	paths := infra.DetectPaths()
	if err := paths.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	settings, err := infra.LoadSettings(paths.SettingsFile)
	if err != nil {
		return err
	}

	mode := domain.DetectLaunchMode(os.Getenv)
	logger := createLogger(paths, settings.LogLevel)
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("mode", string(mode)), zap.Int("pid", os.Getpid()))

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	pm := infra.NewProcessManager()
	fsm := infra.NewFileSystemManager()
	store := infra.NewTOMLConfigStore(paths.ConfigFile)

	lifecycle := usecase.NewLifecycle(usecase.LifecycleDeps{
		Processes:    pm,
		Spawner:      daemon.NewSpawner(paths.ExecutablePath, paths.HomeDir, logger),
		Store:        store,
		ConfigUI:     tui.NewTerminalConfigUI(infra.NewVolumeDeviceLister(settings.VolumesRoot), fsm),
		Autostart:    infra.NewAutostartRegistrar(paths.HomeDir, logger),
		RelaunchLock: infra.NewAgentLock(paths.RelaunchLock),
		Executable:   paths.ExecutablePath,
		ProcessName:  infra.ProcessName,
		Out:          cmd.OutOrStdout(),
		Exit: func(code int) {
			_ = logger.Sync()
			os.Exit(code)
		},
	}, logger)

	switch mode {
	case domain.ModeDaemon:
		err = runDaemon(ctx, paths, settings, pm, fsm, store, lifecycle, logger)
	case domain.ModeRelaunch:
		err = lifecycle.Relaunch()
	default:
		err = lifecycle.Configure(ctx)
	}
	if err != nil {
		logger.Error("agent failed", zap.Error(err))
	}
	return err
}

func runDaemon(
	ctx context.Context,
	paths *infra.AgentPaths,
	settings *infra.Settings,
	pm domain.ProcessManager,
	fsm domain.FileSystemManager,
	store domain.ConfigStore,
	lifecycle *usecase.Lifecycle,
	logger *zap.Logger,
) error {
	pid := pm.GetCurrentPID()

	pointer := infra.NewDesktopPointer(logger)
	defer pointer.Close()

	// The registry is history only; the daemon runs without it.
	var registry domain.AgentRegistry
	if reg, err := infra.OpenRegistry(paths.RegistryDB, infra.NewFileKeyProvider(paths.KeyFile)); err != nil {
		logger.Warn("agent registry unavailable", zap.String("path", paths.RegistryDB), zap.Error(err))
	} else {
		defer reg.Close()
		registry = reg
	}

	cpuLogger := createCPULogger(paths)
	defer func() { _ = cpuLogger.Sync() }()
	monitor, err := daemon.NewCPUMonitor(daemon.MonitorConfig{
		Delay:    settings.CPULogDelay,
		Interval: settings.CPULogInterval,
	}, pid, cpuLogger)
	if err != nil {
		logger.Warn("cpu monitor disabled", zap.Error(err))
		monitor = nil
	}

	watcher := daemon.NewWatcher(
		daemon.WatcherConfig{
			PatternID:      settings.Pattern,
			SampleInterval: settings.SampleInterval,
			GeometryRetry:  time.Second,
			Heartbeat:      settings.Heartbeat,
			RearmOnCancel:  settings.RearmOnCancel,
			AppVersion:     Version,
		},
		gesture.NewRegistry(),
		pointer,
		infra.NewDialogCountdown(settings.Countdown, logger),
		store,
		infra.NewVolumeCopier(settings.VolumesRoot, fsm, logger),
		registry,
		lifecycle,
		pid,
		logger,
	)

	agent := daemon.NewAgent(infra.NewAgentLock(paths.DaemonLock), settings.LockTimeout, monitor, watcher, logger)
	return agent.Run(ctx)
}

func createLogger(paths *infra.AgentPaths, level zapcore.Level) *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{paths.LogFile}
	config.ErrorOutputPaths = []string{paths.ErrorLogFile}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

// createCPULogger writes CPU samples to their own file, apart from the agent log.
func createCPULogger(paths *infra.AgentPaths) *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{paths.CPULogFile}
	config.ErrorOutputPaths = []string{paths.ErrorLogFile}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableCaller = true
	config.DisableStacktrace = true

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named("cpu")
}
