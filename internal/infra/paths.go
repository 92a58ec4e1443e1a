package infra

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// ProcessName is the executable name every agent process runs under.
	ProcessName = "ebagent"

	dataDirName = "eb-agent"
)

// AgentPaths holds every per-user location the agent reads or writes.
// All process generations share them.
type AgentPaths struct {
	HomeDir         string
	DataDir         string // application-support directory
	ConfigFile      string // agent configuration (device + folders)
	SettingsFile    string // optional runtime tunables
	LogFile         string
	ErrorLogFile    string
	CPULogFile      string
	RegistryDB      string
	KeyFile         string
	DaemonLock      string
	RelaunchLock    string
	InstalledBinary string // fallback when the running executable cannot be resolved
}

// DetectPaths resolves the agent paths for the current user.
func DetectPaths() *AgentPaths {
	home, _ := os.UserHomeDir()
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(home, ".config")
	}
	return NewAgentPaths(home, filepath.Join(configDir, dataDirName), runtime.GOOS)
}

// NewAgentPaths builds the paths for an explicit home and data directory (for testing).
func NewAgentPaths(home, dataDir, goos string) *AgentPaths {
	return &AgentPaths{
		HomeDir:         home,
		DataDir:         dataDir,
		ConfigFile:      filepath.Join(dataDir, "config.toml"),
		SettingsFile:    filepath.Join(dataDir, "settings.toml"),
		LogFile:         filepath.Join(dataDir, "ebagent.log"),
		ErrorLogFile:    filepath.Join(dataDir, "ebagent.error.log"),
		CPULogFile:      filepath.Join(dataDir, "process_cpu_usage.log"),
		RegistryDB:      filepath.Join(dataDir, "registry.db"),
		KeyFile:         filepath.Join(dataDir, ".key"),
		DaemonLock:      filepath.Join(dataDir, "daemon.lock"),
		RelaunchLock:    filepath.Join(dataDir, "relaunch.lock"),
		InstalledBinary: installedBinary(home, goos),
	}
}

// EnsureDataDir creates the data directory if needed.
func (p *AgentPaths) EnsureDataDir() error {
	return os.MkdirAll(p.DataDir, 0700)
}

// ExecutablePath returns the running executable if it resolves to an existing
// file, else the installed-application path.
func (p *AgentPaths) ExecutablePath() string {
	return resolveExecutable(os.Executable, p.InstalledBinary)
}

func resolveExecutable(current func() (string, error), fallback string) string {
	exe, err := current()
	if err != nil || exe == "" {
		return fallback
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	if _, err := os.Stat(exe); err != nil {
		return fallback
	}
	return exe
}

func installedBinary(home, goos string) string {
	if goos == "darwin" {
		return filepath.Join(home, "Applications", ProcessName+".app", "Contents", "MacOS", ProcessName)
	}
	return filepath.Join(home, ".local", "bin", ProcessName)
}
