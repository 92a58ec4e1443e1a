package infra

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

const (
	countdownTitle  = "eb-agent"
	cancelButton    = "Cancel backup"
	zenityTimedOut  = 5
	osascriptCancel = 1
)

// DialogCountdown implements domain.CountdownUI with the desktop's dialog tool.
// macOS uses osascript, Linux uses zenity. Without either it counts down headless.
type DialogCountdown struct {
	duration time.Duration
	runner   CommandRunner
	goos     string
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewDialogCountdown creates a countdown of the given duration.
func NewDialogCountdown(duration time.Duration, logger *zap.Logger) *DialogCountdown {
	return NewDialogCountdownWithDeps(duration, &RealCommandRunner{}, runtime.GOOS, logger)
}

// NewDialogCountdownWithDeps creates a countdown with injectable dependencies (for testing)
func NewDialogCountdownWithDeps(duration time.Duration, runner CommandRunner, goos string, logger *zap.Logger) *DialogCountdown {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DialogCountdown{
		duration: duration,
		runner:   runner,
		goos:     goos,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Present shows the dialog and blocks until it is dismissed or times out.
// If the dialog tool fails, the remaining time runs out headless and the backup proceeds.
func (c *DialogCountdown) Present(ctx context.Context) (domain.CountdownOutcome, error) {
	start := time.Now()
	c.logger.Info("countdown started", zap.Duration("duration", c.duration))

	var (
		outcome domain.CountdownOutcome
		err     error
		shown   bool
	)
	switch {
	case c.goos == "darwin" && c.available("osascript"):
		shown = true
		outcome, err = c.presentOsascript(ctx)
	case c.available("zenity"):
		shown = true
		outcome, err = c.presentZenity(ctx)
	}

	if ctx.Err() != nil {
		return domain.CountdownCancelled, ctx.Err()
	}
	if shown && err == nil {
		c.logger.Info("countdown finished", zap.Stringer("outcome", outcome))
		return outcome, nil
	}
	if err != nil {
		c.logger.Warn("countdown dialog failed, counting down without it", zap.Error(err))
	}
	c.logger.Warn("backup will proceed without a confirmation dialog",
		zap.Bool("dialog_failed", err != nil),
		zap.Duration("remaining", c.duration-time.Since(start)))

	remaining := c.duration - time.Since(start)
	if err := c.sleep(ctx, remaining); err != nil {
		return domain.CountdownCancelled, err
	}
	c.logger.Info("countdown finished", zap.Stringer("outcome", domain.CountdownCompleted))
	return domain.CountdownCompleted, nil
}

func (c *DialogCountdown) available(tool string) bool {
	_, err := c.runner.LookPath(tool)
	return err == nil
}

func (c *DialogCountdown) message() string {
	return fmt.Sprintf("Backup starts in %d seconds.", c.seconds())
}

func (c *DialogCountdown) seconds() int {
	return int(math.Ceil(c.duration.Seconds()))
}

func (c *DialogCountdown) presentOsascript(ctx context.Context) (domain.CountdownOutcome, error) {
	script := fmt.Sprintf(`display dialog %q with title %q buttons {%q} default button 1 giving up after %d`,
		c.message(), countdownTitle, cancelButton, c.seconds())

	out, err := c.runner.Output(ctx, "osascript", "-e", script)
	if err != nil {
		// Escape closes the dialog with "User canceled" (exit 1).
		if code, ok := exitCode(err); ok && code == osascriptCancel {
			return domain.CountdownCancelled, nil
		}
		return domain.CountdownCancelled, fmt.Errorf("osascript: %w", err)
	}
	if strings.Contains(string(out), "gave up:true") {
		return domain.CountdownCompleted, nil
	}
	return domain.CountdownCancelled, nil
}

func (c *DialogCountdown) presentZenity(ctx context.Context) (domain.CountdownOutcome, error) {
	err := c.runner.Run(ctx, "zenity", "--question",
		"--title="+countdownTitle,
		"--text="+c.message(),
		"--ok-label="+cancelButton,
		"--cancel-label="+cancelButton,
		fmt.Sprintf("--timeout=%d", c.seconds()))
	if err == nil {
		return domain.CountdownCancelled, nil
	}

	code, ok := exitCode(err)
	switch {
	case ok && code == zenityTimedOut:
		return domain.CountdownCompleted, nil
	case ok && code == 1:
		return domain.CountdownCancelled, nil
	}
	return domain.CountdownCancelled, fmt.Errorf("zenity: %w", err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure DialogCountdown implements domain.CountdownUI.
var _ domain.CountdownUI = (*DialogCountdown)(nil)
