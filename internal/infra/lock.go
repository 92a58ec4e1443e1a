package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

const lockRetryDelay = 200 * time.Millisecond

// AgentLock is an exclusive advisory file lock shared by agent processes.
// The OS drops it when the holder dies, so a killed daemon never leaves it stale.
type AgentLock struct {
	path string
	fl   *flock.Flock
}

// NewAgentLock creates a lock backed by path. Nothing is locked yet.
func NewAgentLock(path string) *AgentLock {
	return &AgentLock{path: path, fl: flock.New(path)}
}

// Path returns the lock file path.
func (l *AgentLock) Path() string {
	return l.path
}

// TryAcquire takes the lock without waiting.
// It returns domain.ErrAlreadyRunning if another process holds it.
func (l *AgentLock) TryAcquire() error {
	if err := l.ensureDir(); err != nil {
		return err
	}
	locked, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", l.path, err)
	}
	if !locked {
		return domain.ErrAlreadyRunning
	}
	return nil
}

// Acquire waits up to timeout for the lock.
// It returns domain.ErrAlreadyRunning if the holder did not let go in time.
func (l *AgentLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := l.ensureDir(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := l.fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ErrAlreadyRunning
		}
		return fmt.Errorf("acquiring lock %s: %w", l.path, err)
	}
	if !locked {
		return domain.ErrAlreadyRunning
	}
	return nil
}

// Release drops the lock. Safe to call when not held.
func (l *AgentLock) Release() error {
	return l.fl.Unlock()
}

// Locked reports whether this handle holds the lock.
func (l *AgentLock) Locked() bool {
	return l.fl.Locked()
}

func (l *AgentLock) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	return nil
}
