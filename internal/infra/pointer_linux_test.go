//go:build linux

package infra

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

func TestDesktopPointer_NoDisplay(t *testing.T) {
	t.Setenv("DISPLAY", ":99999")

	p := NewDesktopPointer(nil)
	defer p.Close()

	_, _, err := p.Position()
	assert.ErrorIs(t, err, domain.ErrPlatformUnavailable)

	_, err = p.Geometry()
	assert.ErrorIs(t, err, domain.ErrPlatformUnavailable)
}

func TestDesktopPointer_WithDisplay(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X display")
	}

	p := NewDesktopPointer(nil)
	defer p.Close()

	g, err := p.Geometry()
	require.NoError(t, err)
	assert.Positive(t, g.Width)

	x, y, err := p.Position()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, x, 0.0)
	assert.GreaterOrEqual(t, y, 0.0)
}
