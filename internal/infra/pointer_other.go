//go:build !linux

package infra

import (
	"fmt"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
	"github.com/eliteGoblin/focusd/eb_agent/internal/gesture"
)

// DesktopPointer reads the pointer through the native desktop APIs.
type DesktopPointer struct {
	logger *zap.Logger
}

// NewDesktopPointer creates a pointer source for the main display.
func NewDesktopPointer(logger *zap.Logger) *DesktopPointer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DesktopPointer{logger: logger}
}

// Position implements gesture.PointerSource.
func (p *DesktopPointer) Position() (float64, float64, error) {
	x, y := robotgo.Location()
	return float64(x), float64(y), nil
}

// Geometry returns the size of the main display.
func (p *DesktopPointer) Geometry() (gesture.ScreenGeometry, error) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return gesture.ScreenGeometry{}, fmt.Errorf("%w: screen size %dx%d", domain.ErrPlatformUnavailable, w, h)
	}
	return gesture.ScreenGeometry{Width: float64(w), Height: float64(h)}, nil
}

// Close is a no-op; robotgo keeps no connection.
func (p *DesktopPointer) Close() {}
