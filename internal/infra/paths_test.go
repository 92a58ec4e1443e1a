package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAgentPaths_LivesUnderDataDir(t *testing.T) {
	p := NewAgentPaths("/home/u", "/home/u/.config/eb-agent", "linux")

	for _, f := range []string{p.ConfigFile, p.SettingsFile, p.LogFile, p.ErrorLogFile,
		p.CPULogFile, p.RegistryDB, p.KeyFile, p.DaemonLock, p.RelaunchLock} {
		assert.Equal(t, p.DataDir, filepath.Dir(f), f)
	}
	assert.Equal(t, "config.toml", filepath.Base(p.ConfigFile))
	assert.Equal(t, "process_cpu_usage.log", filepath.Base(p.CPULogFile))
}

func TestNewAgentPaths_InstalledBinary(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "/Users/u/Applications/ebagent.app/Contents/MacOS/ebagent"},
		{"linux", "/Users/u/.local/bin/ebagent"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			p := NewAgentPaths("/Users/u", "/data", tt.goos)
			assert.Equal(t, tt.want, p.InstalledBinary)
		})
	}
}

func TestResolveExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "ebagent")
	require.NoError(t, os.WriteFile(exe, []byte("bin"), 0755))

	current := func(path string, err error) func() (string, error) {
		return func() (string, error) { return path, err }
	}

	assert.Equal(t, exe, resolveExecutable(current(exe, nil), "/fallback"))
	assert.Equal(t, "/fallback", resolveExecutable(current("", errors.New("unsupported")), "/fallback"))
	assert.Equal(t, "/fallback", resolveExecutable(current(filepath.Join(dir, "deleted"), nil), "/fallback"))
}

func TestAgentPaths_EnsureDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "eb-agent")
	p := NewAgentPaths(t.TempDir(), dataDir, "linux")

	require.NoError(t, p.EnsureDataDir())
	info, err := os.Stat(dataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
