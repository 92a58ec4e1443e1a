package daemon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
	"github.com/eliteGoblin/focusd/eb_agent/internal/gesture"
)

var testGeometry = gesture.ScreenGeometry{Width: 1200, Height: 600}

// gestureSamples returns pointer positions tracing the full perimeter walk once.
func gestureSamples() [][2]float64 {
	p := gesture.NewRectanglePattern(testGeometry)
	samples := [][2]float64{{100, 100}}
	for _, c := range p.Waypoints() {
		samples = append(samples, [2]float64{float64(c.Column)*200 + 100, float64(c.Row)*200 + 100})
	}
	return samples
}

// scriptedPointer replays positions, then keeps returning the last one.
type scriptedPointer struct {
	mu               sync.Mutex
	samples          [][2]float64
	reads            int
	geometryFailures int
}

func (p *scriptedPointer) Position() (float64, float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.reads
	if i >= len(p.samples) {
		i = len(p.samples) - 1
	}
	p.reads++
	return p.samples[i][0], p.samples[i][1], nil
}

func (p *scriptedPointer) Geometry() (gesture.ScreenGeometry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.geometryFailures > 0 {
		p.geometryFailures--
		return gesture.ScreenGeometry{}, domain.ErrPlatformUnavailable
	}
	return testGeometry, nil
}

type fakeCountdown struct {
	outcomes []domain.CountdownOutcome
	err      error
	calls    int
}

func (f *fakeCountdown) Present(ctx context.Context) (domain.CountdownOutcome, error) {
	f.calls++
	if f.err != nil {
		return domain.CountdownCancelled, f.err
	}
	i := f.calls - 1
	if i >= len(f.outcomes) {
		i = len(f.outcomes) - 1
	}
	return f.outcomes[i], nil
}

type fakeStore struct {
	cfg *domain.AgentConfiguration
	err error
}

func (f *fakeStore) Load() (*domain.AgentConfiguration, error) { return f.cfg, f.err }
func (f *fakeStore) Save(cfg *domain.AgentConfiguration) error { f.cfg = cfg; return nil }
func (f *fakeStore) Path() string                              { return "/tmp/config.toml" }

type copyCall struct {
	device  string
	folders []string
}

type fakeCopier struct {
	calls []copyCall
}

func (f *fakeCopier) Copy(ctx context.Context, device string, folders []string) domain.BackupReport {
	f.calls = append(f.calls, copyCall{device: device, folders: folders})
	return domain.BackupReport{
		ID:          "run-1",
		Device:      device,
		Destination: "/Volumes/" + device + "/eb-agent-backup-x",
		Folders:     folders,
		FilesCopied: 2,
		BytesCopied: 20,
		StartedAt:   time.Now(),
		FinishedAt:  time.Now(),
	}
}

type fakeRegistry struct {
	generations []domain.DaemonGeneration
	heartbeats  int
	runs        []domain.BackupRun
}

func (f *fakeRegistry) RegisterGeneration(gen domain.DaemonGeneration) error {
	f.generations = append(f.generations, gen)
	return nil
}
func (f *fakeRegistry) Heartbeat(pid int) error { f.heartbeats++; return nil }
func (f *fakeRegistry) LatestGeneration() (*domain.DaemonGeneration, error) {
	return nil, nil
}
func (f *fakeRegistry) RecordBackup(run domain.BackupRun) error {
	f.runs = append(f.runs, run)
	return nil
}
func (f *fakeRegistry) RecentBackups(limit int) ([]domain.BackupRun, error) { return f.runs, nil }
func (f *fakeRegistry) SetMeta(key, value string) error                     { return nil }
func (f *fakeRegistry) GetMeta(key string) (string, error)                  { return "", nil }
func (f *fakeRegistry) Close() error                                        { return nil }

type fakeRearmer struct {
	calls int
	err   error
}

func (f *fakeRearmer) Rearm() error {
	f.calls++
	return f.err
}

type fakeLock struct {
	acquireErr error
	acquired   bool
	released   bool
}

func (f *fakeLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if f.acquireErr != nil {
		return f.acquireErr
	}
	f.acquired = true
	return nil
}

func (f *fakeLock) Release() error {
	f.released = true
	return nil
}

var errBoom = errors.New("boom")

var _ domain.AgentRegistry = (*fakeRegistry)(nil)
