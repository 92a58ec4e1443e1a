package gesture

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSampleInterval is the pointer polling cadence.
const DefaultSampleInterval = 50 * time.Millisecond

// PointerSource reports the current pointer position in screen pixels.
type PointerSource interface {
	Position() (x, y float64, err error)
}

// Recognizer drives a Pattern with pointer samples until a terminal verdict.
// It is the only writer of the pattern state and must not be shared between goroutines.
type Recognizer struct {
	pattern  Pattern
	pointer  PointerSource
	interval time.Duration
	logger   *zap.Logger

	// failing tracks consecutive pointer read failures, so only the first and the
	// recovery are logged.
	failing int
}

// NewRecognizer creates a recognizer. A non-positive interval uses DefaultSampleInterval.
func NewRecognizer(pattern Pattern, pointer PointerSource, interval time.Duration, logger *zap.Logger) *Recognizer {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recognizer{
		pattern:  pattern,
		pointer:  pointer,
		interval: interval,
		logger:   logger,
	}
}

// Pattern returns the driven pattern.
func (r *Recognizer) Pattern() Pattern {
	return r.pattern
}

// Recognize samples the pointer every interval until the pattern reaches a
// terminal verdict. It returns true on Completed and false on WrongMove.
// An attempt has no timeout; it ends early only when ctx is canceled.
func (r *Recognizer) Recognize(ctx context.Context) (bool, error) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.pattern.Reset()
			return false, ctx.Err()
		case <-ticker.C:
		}

		verdict, ok := r.step()
		if !ok {
			continue
		}

		switch verdict {
		case WrongMove:
			r.pattern.Reset()
			return false, nil
		case Completed:
			r.pattern.Reset()
			return true, nil
		}
	}
}

// step reads one sample and feeds it to the pattern.
// ok is false when the pointer could not be read; the sample is skipped, not failed.
func (r *Recognizer) step() (verdict Verdict, ok bool) {
	x, y, err := r.pointer.Position()
	if err != nil {
		if r.failing == 0 {
			r.logger.Warn("pointer position unavailable, skipping samples", zap.Error(err))
		}
		r.failing++
		return InProgress, false
	}

	if r.failing > 0 {
		r.logger.Info("pointer position available again", zap.Int("skipped_samples", r.failing))
		r.failing = 0
	}

	return r.pattern.CheckPosition(x, y), true
}
