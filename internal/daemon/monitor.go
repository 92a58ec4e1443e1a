package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// MonitorConfig holds CPU monitor timing.
type MonitorConfig struct {
	Delay    time.Duration // wait before the first sample
	Interval time.Duration // time between samples
}

// DefaultMonitorConfig returns default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Delay:    5 * time.Second,
		Interval: 5 * time.Minute,
	}
}

// CPUMonitor periodically logs the CPU usage of one process.
// It owns its logger and shares nothing mutable with the watch loop.
type CPUMonitor struct {
	config MonitorConfig
	pid    int
	sample func() (float64, error)
	logger *zap.Logger
}

// NewCPUMonitor creates a monitor for pid.
func NewCPUMonitor(config MonitorConfig, pid int, logger *zap.Logger) (*CPUMonitor, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", pid, err)
	}
	// Prime the counters so the first sample covers the delay.
	_, _ = p.Percent(0)

	return newCPUMonitor(config, pid, func() (float64, error) { return p.Percent(0) }, logger), nil
}

func newCPUMonitor(config MonitorConfig, pid int, sample func() (float64, error), logger *zap.Logger) *CPUMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CPUMonitor{config: config, pid: pid, sample: sample, logger: logger}
}

// Run logs a sample after the delay and then every interval.
// This blocks until context is canceled.
func (m *CPUMonitor) Run(ctx context.Context) {
	delay := time.NewTimer(m.config.Delay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	m.logUsage()

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.logUsage()
		}
	}
}

func (m *CPUMonitor) logUsage() {
	usage, err := m.sample()
	if err != nil {
		m.logger.Warn("failed to sample CPU usage", zap.Int("pid", m.pid), zap.Error(err))
		return
	}
	m.logger.Info(formatUsage(m.pid, usage),
		zap.Int("pid", m.pid),
		zap.Float64("cpu_percent", usage))
}

func formatUsage(pid int, usage float64) string {
	return fmt.Sprintf("(PID: %d) CPU usage: (%.3f)%%", pid, usage)
}
