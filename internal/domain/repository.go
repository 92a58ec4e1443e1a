package domain

import "context"

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByExactName returns PIDs of processes whose name equals name.
	FindByExactName(name string) ([]int, error)

	// Kill terminates a process by PID (SIGKILL).
	// A process that already exited is not an error.
	Kill(pid int) error

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// FileSystemManager handles filesystem operations.
type FileSystemManager interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// ExpandHome expands ~ to the user's home directory.
	ExpandHome(path string) string

	// DirSize returns the total size of regular files under path.
	DirSize(path string) (int64, error)
}

// ConfigStore persists the agent configuration.
type ConfigStore interface {
	// Load returns ErrConfigNotFound or ErrConfigCorrupted when no usable configuration exists.
	Load() (*AgentConfiguration, error)

	// Save validates and writes the configuration.
	Save(cfg *AgentConfiguration) error

	// Path returns the configuration file path.
	Path() string
}

// ConfigUI lets the user choose a device and folders.
type ConfigUI interface {
	// Present blocks until the user saves or closes the UI.
	// existing may be nil; when set it pre-fills the form.
	Present(ctx context.Context, existing *AgentConfiguration) (UIOutcome, *AgentConfiguration, error)
}

// CountdownUI shows the cancellable confirmation before a backup.
type CountdownUI interface {
	Present(ctx context.Context) (CountdownOutcome, error)
}

// Copier copies the configured folders onto an external device.
// Best effort: failures are collected in the report, never returned.
type Copier interface {
	Copy(ctx context.Context, deviceName string, folders []string) BackupReport
}

// DeviceLister discovers mounted external devices.
type DeviceLister interface {
	List(ctx context.Context) ([]ExternalDevice, error)
}

// AutostartRegistrar makes the agent start at login.
type AutostartRegistrar interface {
	// Register installs (or refreshes) the login entry for execPath with env.
	Register(execPath string, env map[string]string) error

	// IsRegistered checks if the login entry exists.
	IsRegistered() bool

	// Path returns the login entry file path.
	Path() string
}

// DaemonSpawner starts a detached copy of the agent in the given mode.
type DaemonSpawner interface {
	// Spawn returns the PID of the started process.
	Spawn(mode LaunchMode) (int, error)
}

// AgentRegistry records daemon generations and backup history.
// Implementation: encrypted SQLite database.
type AgentRegistry interface {
	// RegisterGeneration records a newly started daemon.
	RegisterGeneration(gen DaemonGeneration) error

	// Heartbeat updates the liveness timestamp of a daemon.
	Heartbeat(pid int) error

	// LatestGeneration returns the most recently registered daemon, or nil.
	LatestGeneration() (*DaemonGeneration, error)

	// RecordBackup stores a finished backup run.
	RecordBackup(run BackupRun) error

	// RecentBackups returns up to limit runs, newest first.
	RecentBackups(limit int) ([]BackupRun, error)

	// SetMeta stores a key/value pair.
	SetMeta(key, value string) error

	// GetMeta returns a stored value, or "" if missing.
	GetMeta(key string) (string, error)

	// Close releases resources (e.g., database connection).
	Close() error
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}
