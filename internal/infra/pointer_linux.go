//go:build linux

package infra

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
	"github.com/eliteGoblin/focusd/eb_agent/internal/gesture"
)

// DesktopPointer reads the pointer from the X server.
// The connection is opened lazily and reopened after a failed query,
// so a daemon started before the display is ready recovers on its own.
type DesktopPointer struct {
	mu     sync.Mutex
	xu     *xgbutil.XUtil
	logger *zap.Logger
}

// NewDesktopPointer creates a pointer source for the default display.
func NewDesktopPointer(logger *zap.Logger) *DesktopPointer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DesktopPointer{logger: logger}
}

// Position implements gesture.PointerSource.
func (p *DesktopPointer) Position() (float64, float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	xu, err := p.connect()
	if err != nil {
		return 0, 0, err
	}

	reply, err := xproto.QueryPointer(xu.Conn(), xu.RootWin()).Reply()
	if err != nil {
		p.disconnect()
		return 0, 0, fmt.Errorf("%w: query pointer: %v", domain.ErrPlatformUnavailable, err)
	}
	return float64(reply.RootX), float64(reply.RootY), nil
}

// Geometry returns the size of the default screen.
func (p *DesktopPointer) Geometry() (gesture.ScreenGeometry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	xu, err := p.connect()
	if err != nil {
		return gesture.ScreenGeometry{}, err
	}
	screen := xu.Screen()
	if screen == nil || screen.WidthInPixels == 0 || screen.HeightInPixels == 0 {
		return gesture.ScreenGeometry{}, fmt.Errorf("%w: no screen", domain.ErrPlatformUnavailable)
	}
	return gesture.ScreenGeometry{
		Width:  float64(screen.WidthInPixels),
		Height: float64(screen.HeightInPixels),
	}, nil
}

// Close releases the X connection.
func (p *DesktopPointer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnect()
}

func (p *DesktopPointer) connect() (*xgbutil.XUtil, error) {
	if p.xu != nil {
		return p.xu, nil
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: connect to X server: %v", domain.ErrPlatformUnavailable, err)
	}
	p.logger.Debug("connected to X server")
	p.xu = xu
	return xu, nil
}

func (p *DesktopPointer) disconnect() {
	if p.xu != nil {
		p.xu.Conn().Close()
		p.xu = nil
	}
}
