package usecase

import (
	"context"
	"errors"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

const selfPID = 100

// mockProcessManager implements domain.ProcessManager for testing.
// Killed and spawned pids disappear from and appear in the process table.
type mockProcessManager struct {
	self       int
	running    []int
	findErr    error
	killErr    map[int]error
	killedPIDs []int
}

func (m *mockProcessManager) FindByExactName(name string) ([]int, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := make([]int, len(m.running))
	copy(out, m.running)
	return out, nil
}

func (m *mockProcessManager) Kill(pid int) error {
	if err := m.killErr[pid]; err != nil {
		return err
	}
	m.killedPIDs = append(m.killedPIDs, pid)
	m.remove(pid)
	return nil
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	for _, p := range m.running {
		if p == pid {
			return true
		}
	}
	return false
}

func (m *mockProcessManager) GetCurrentPID() int {
	return m.self
}

func (m *mockProcessManager) remove(pid int) {
	kept := m.running[:0]
	for _, p := range m.running {
		if p != pid {
			kept = append(kept, p)
		}
	}
	m.running = kept
}

// mockSpawner implements domain.DaemonSpawner for testing.
type mockSpawner struct {
	processes *mockProcessManager
	nextPID   int
	err       error
	modes     []domain.LaunchMode
}

func (m *mockSpawner) Spawn(mode domain.LaunchMode) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.nextPID++
	m.modes = append(m.modes, mode)
	if m.processes != nil {
		m.processes.running = append(m.processes.running, m.nextPID)
	}
	return m.nextPID, nil
}

// mockConfigStore implements domain.ConfigStore for testing.
type mockConfigStore struct {
	cfg     *domain.AgentConfiguration
	loadErr error
	saveErr error
	saved   []*domain.AgentConfiguration
}

func (m *mockConfigStore) Load() (*domain.AgentConfiguration, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.cfg == nil {
		return nil, domain.ErrConfigNotFound
	}
	return m.cfg.Clone(), nil
}

func (m *mockConfigStore) Save(cfg *domain.AgentConfiguration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, cfg)
	m.cfg = cfg
	m.loadErr = nil
	return nil
}

func (m *mockConfigStore) Path() string {
	return "/home/u/.config/eb-agent/config.toml"
}

// mockConfigUI implements domain.ConfigUI for testing.
type mockConfigUI struct {
	outcome  domain.UIOutcome
	result   *domain.AgentConfiguration
	err      error
	calls    int
	existing *domain.AgentConfiguration
}

func (m *mockConfigUI) Present(ctx context.Context, existing *domain.AgentConfiguration) (domain.UIOutcome, *domain.AgentConfiguration, error) {
	m.calls++
	m.existing = existing
	return m.outcome, m.result, m.err
}

// mockAutostart implements domain.AutostartRegistrar for testing.
type mockAutostart struct {
	err      error
	execPath string
	env      map[string]string
}

func (m *mockAutostart) Register(execPath string, env map[string]string) error {
	if m.err != nil {
		return m.err
	}
	m.execPath = execPath
	m.env = env
	return nil
}

func (m *mockAutostart) IsRegistered() bool { return m.execPath != "" }
func (m *mockAutostart) Path() string       { return "/home/u/Library/LaunchAgents/com.eb-agent.plist" }

// mockLock implements TryLocker for testing.
type mockLock struct {
	busy     bool
	held     bool
	released bool
}

func (m *mockLock) TryAcquire() error {
	if m.busy {
		return domain.ErrAlreadyRunning
	}
	m.held = true
	return nil
}

func (m *mockLock) Release() error {
	m.released = true
	m.held = false
	return nil
}

var errBoom = errors.New("boom")

type lifecycleFixture struct {
	processes *mockProcessManager
	spawner   *mockSpawner
	store     *mockConfigStore
	ui        *mockConfigUI
	autostart *mockAutostart
	lock      *mockLock
	exitCodes []int
	out       *recordingWriter
}

type recordingWriter struct {
	text string
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.text += string(p)
	return len(p), nil
}

func newLifecycleFixture(running ...int) *lifecycleFixture {
	pm := &mockProcessManager{self: selfPID, running: append([]int{selfPID}, running...)}
	return &lifecycleFixture{
		processes: pm,
		spawner:   &mockSpawner{processes: pm, nextPID: 500},
		store:     &mockConfigStore{},
		ui:        &mockConfigUI{},
		autostart: &mockAutostart{},
		lock:      &mockLock{},
		out:       &recordingWriter{},
	}
}

func (f *lifecycleFixture) lifecycle() *Lifecycle {
	return NewLifecycle(LifecycleDeps{
		Processes:    f.processes,
		Spawner:      f.spawner,
		Store:        f.store,
		ConfigUI:     f.ui,
		Autostart:    f.autostart,
		RelaunchLock: f.lock,
		Executable:   func() string { return "/Applications/ebagent" },
		ProcessName:  "ebagent",
		Out:          f.out,
		Exit:         func(code int) { f.exitCodes = append(f.exitCodes, code) },
	}, nil)
}

func validConfig() *domain.AgentConfiguration {
	return &domain.AgentConfiguration{DeviceName: "USB", FolderPaths: []string{"/home/u/docs"}}
}
