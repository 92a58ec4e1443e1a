package infra

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes environment overrides, e.g. EBAGENT_COUNTDOWN=30s.
const EnvPrefix = "EBAGENT"

// Setting keys.
const (
	KeySampleInterval = "sample_interval"
	KeyCountdown      = "countdown"
	KeyCPULogInterval = "cpu_log_interval"
	KeyCPULogDelay    = "cpu_log_delay"
	KeyLockTimeout    = "lock_timeout"
	KeyHeartbeat      = "heartbeat_interval"
	KeyVolumesRoot    = "volumes_root"
	KeyRearmOnCancel  = "rearm_on_cancel"
	KeyLogLevel       = "log_level"
	KeyPattern        = "pattern"
)

// Settings are the runtime tunables.
// Precedence: environment, then settings file, then defaults.
type Settings struct {
	SampleInterval time.Duration
	Countdown      time.Duration
	CPULogInterval time.Duration
	CPULogDelay    time.Duration
	LockTimeout    time.Duration
	Heartbeat      time.Duration
	VolumesRoot    string
	RearmOnCancel  bool
	LogLevel       zapcore.Level
	Pattern        string
}

// LoadSettings reads the tunables. An empty or missing path uses defaults and env only.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, path); err != nil {
		return nil, err
	}
	return settingsFrom(v)
}

// DefaultSettings returns the built-in tunables.
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaults(v)
	s, _ := settingsFrom(v)
	return s
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeySampleInterval, 50*time.Millisecond)
	v.SetDefault(KeyCountdown, 15*time.Second)
	v.SetDefault(KeyCPULogInterval, 5*time.Minute)
	v.SetDefault(KeyCPULogDelay, 5*time.Second)
	v.SetDefault(KeyLockTimeout, 30*time.Second)
	v.SetDefault(KeyHeartbeat, 30*time.Second)
	v.SetDefault(KeyVolumesRoot, defaultVolumesRoot(runtime.GOOS, currentUsername()))
	v.SetDefault(KeyRearmOnCancel, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyPattern, "rectangle")
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat settings %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("settings path %s is a directory", path)
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("read settings %s: %w", path, err)
	}
	return nil
}

func settingsFrom(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		SampleInterval: v.GetDuration(KeySampleInterval),
		Countdown:      v.GetDuration(KeyCountdown),
		CPULogInterval: v.GetDuration(KeyCPULogInterval),
		CPULogDelay:    v.GetDuration(KeyCPULogDelay),
		LockTimeout:    v.GetDuration(KeyLockTimeout),
		Heartbeat:      v.GetDuration(KeyHeartbeat),
		VolumesRoot:    v.GetString(KeyVolumesRoot),
		RearmOnCancel:  v.GetBool(KeyRearmOnCancel),
		Pattern:        v.GetString(KeyPattern),
	}

	level, err := zapcore.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}
	s.LogLevel = level

	positive := map[string]time.Duration{
		KeySampleInterval: s.SampleInterval,
		KeyCountdown:      s.Countdown,
		KeyCPULogInterval: s.CPULogInterval,
		KeyLockTimeout:    s.LockTimeout,
		KeyHeartbeat:      s.Heartbeat,
	}
	for key, d := range positive {
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive, got %s", key, d)
		}
	}
	if s.CPULogDelay < 0 {
		return nil, fmt.Errorf("invalid %s: must not be negative", KeyCPULogDelay)
	}
	if s.VolumesRoot == "" {
		return nil, fmt.Errorf("invalid %s: empty", KeyVolumesRoot)
	}
	return s, nil
}

// defaultVolumesRoot is where removable volumes are mounted.
func defaultVolumesRoot(goos, username string) string {
	if goos == "darwin" {
		return "/Volumes"
	}
	if username == "" {
		return "/media"
	}
	return filepath.Join("/media", username)
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
