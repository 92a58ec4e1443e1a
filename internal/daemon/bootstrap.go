package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// Spawner starts detached copies of the agent executable.
// The child runs from the user's home directory with the mode's environment flag set.
type Spawner struct {
	executable func() string
	homeDir    string
	environ    func() []string
	start      func(cmd *exec.Cmd) error
	logger     *zap.Logger
}

// NewSpawner creates a spawner. executable resolves the binary to run at spawn time.
func NewSpawner(executable func() string, homeDir string, logger *zap.Logger) *Spawner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Spawner{
		executable: executable,
		homeDir:    homeDir,
		environ:    os.Environ,
		start:      (*exec.Cmd).Start,
		logger:     logger,
	}
}

// Spawn starts the agent in mode and returns the child's PID without waiting for it.
func (s *Spawner) Spawn(mode domain.LaunchMode) (int, error) {
	exe := s.executable()
	if exe == "" {
		return 0, fmt.Errorf("%w: no executable path", domain.ErrSpawn)
	}

	cmd := exec.Command(exe)
	cmd.Dir = s.homeDir
	cmd.Env = childEnv(s.environ(), mode)

	// No stdin/stdout/stderr - fully detached
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)

	if err := s.start(cmd); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrSpawn, exe, err)
	}

	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	s.logger.Info("spawned agent process",
		zap.String("mode", string(mode)),
		zap.Int("pid", pid),
		zap.String("executable", exe))
	return pid, nil
}

// childEnv copies env, drops any inherited mode flags and sets the one for mode.
func childEnv(env []string, mode domain.LaunchMode) []string {
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, domain.EnvInsideJob+"=") || strings.HasPrefix(kv, domain.EnvLaunchJob+"=") {
			continue
		}
		out = append(out, kv)
	}
	if name, value := mode.Env(); name != "" {
		out = append(out, name+"="+value)
	}
	return out
}

// Ensure Spawner implements domain.DaemonSpawner.
var _ domain.DaemonSpawner = (*Spawner)(nil)
