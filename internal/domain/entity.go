// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Environment flags that select the launch mode. Both take the value EnvTrue.
const (
	EnvInsideJob = "INSIDE_JOB"
	EnvLaunchJob = "LAUNCH_JOB"
	EnvTrue      = "TRUE"
)

// LaunchMode identifies why the process was started.
type LaunchMode string

const (
	// ModeConfigure is an ordinary launch by the user.
	ModeConfigure LaunchMode = "configure"
	// ModeDaemon is the standing background agent (INSIDE_JOB).
	ModeDaemon LaunchMode = "daemon"
	// ModeRelaunch performs the hand-off to a fresh daemon (LAUNCH_JOB).
	ModeRelaunch LaunchMode = "relaunch"
)

// DetectLaunchMode maps the environment flags to a launch mode.
// INSIDE_JOB is evaluated before LAUNCH_JOB.
func DetectLaunchMode(getenv func(string) string) LaunchMode {
	if getenv(EnvInsideJob) == EnvTrue {
		return ModeDaemon
	}
	if getenv(EnvLaunchJob) == EnvTrue {
		return ModeRelaunch
	}
	return ModeConfigure
}

// Env returns the environment flag that starts a process in this mode.
// ModeConfigure has no flag and returns an empty name.
func (m LaunchMode) Env() (name, value string) {
	switch m {
	case ModeDaemon:
		return EnvInsideJob, EnvTrue
	case ModeRelaunch:
		return EnvLaunchJob, EnvTrue
	}
	return "", ""
}

// MaxFolders is the number of folders a configuration may hold.
const MaxFolders = 5

// AgentConfiguration is what the user picked in the configuration UI.
// Folder order is preserved.
type AgentConfiguration struct {
	DeviceName  string   `toml:"device_name"`
	FolderPaths []string `toml:"folder_paths"`
}

// Validate checks the configuration is usable for a backup.
func (c *AgentConfiguration) Validate() error {
	if strings.TrimSpace(c.DeviceName) == "" {
		return fmt.Errorf("device name is empty")
	}
	if len(c.FolderPaths) == 0 {
		return fmt.Errorf("no folders selected")
	}
	if len(c.FolderPaths) > MaxFolders {
		return fmt.Errorf("%d folders selected, at most %d allowed", len(c.FolderPaths), MaxFolders)
	}
	for i, p := range c.FolderPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("folder %d is empty", i+1)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *AgentConfiguration) Clone() *AgentConfiguration {
	if c == nil {
		return nil
	}
	out := &AgentConfiguration{DeviceName: c.DeviceName}
	out.FolderPaths = append([]string(nil), c.FolderPaths...)
	return out
}

// UIOutcome is how the configuration UI ended.
type UIOutcome int

const (
	// UICompleted means the user saved a configuration.
	UICompleted UIOutcome = iota
	// UICancelled means the user closed the UI without saving.
	UICancelled
)

func (o UIOutcome) String() string {
	if o == UICompleted {
		return "completed"
	}
	return "cancelled"
}

// CountdownOutcome is how the confirmation countdown ended.
type CountdownOutcome int

const (
	// CountdownCompleted means the countdown elapsed without cancellation.
	CountdownCompleted CountdownOutcome = iota
	// CountdownCancelled means the user cancelled before it elapsed.
	CountdownCancelled
)

func (o CountdownOutcome) String() string {
	if o == CountdownCompleted {
		return "completed"
	}
	return "cancelled"
}

// DaemonGeneration is one daemon process in the chain of re-armed daemons.
type DaemonGeneration struct {
	PID           int
	AppVersion    string
	StartedAt     time.Time
	LastHeartbeat time.Time
}

// BackupStatus summarizes a backup run.
type BackupStatus string

const (
	BackupCompleted BackupStatus = "completed"
	BackupPartial   BackupStatus = "partial"
	BackupFailed    BackupStatus = "failed"
	BackupSkipped   BackupStatus = "skipped"
)

// BackupReport captures what happened during a single backup run.
type BackupReport struct {
	ID           string
	Device       string
	Destination  string
	Folders      []string
	FilesCopied  int
	BytesCopied  int64
	SkippedPaths []string // special files that are not copied
	Errors       []error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Status derives the run status from what was copied and what failed.
func (r *BackupReport) Status() BackupStatus {
	switch {
	case r.Destination == "":
		return BackupSkipped
	case len(r.Errors) == 0:
		return BackupCompleted
	case r.FilesCopied > 0:
		return BackupPartial
	default:
		return BackupFailed
	}
}

// ErrorText joins the collected errors for display and storage.
func (r *BackupReport) ErrorText() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Record converts the report into its persisted form.
func (r *BackupReport) Record() BackupRun {
	return BackupRun{
		ID:          r.ID,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Device:      r.Device,
		Folders:     append([]string(nil), r.Folders...),
		FilesCopied: r.FilesCopied,
		BytesCopied: r.BytesCopied,
		Status:      r.Status(),
		Error:       r.ErrorText(),
	}
}

// BackupRun is a persisted backup history entry.
type BackupRun struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Device      string
	Folders     []string
	FilesCopied int
	BytesCopied int64
	Status      BackupStatus
	Error       string
}

// ExternalDevice is a mounted volume a backup can be written to.
type ExternalDevice struct {
	Name       string
	MountPoint string
	FreeBytes  uint64
	TotalBytes uint64
}
