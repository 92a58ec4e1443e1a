package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// center returns the pixel center of a 200x200 cell on the 1200x600 test screen.
func center(c GridCell) (float64, float64) {
	return float64(c.Column)*200 + 100, float64(c.Row)*200 + 100
}

func newTestPattern() *RectanglePattern {
	return NewRectanglePattern(ScreenGeometry{Width: 1200, Height: 600})
}

func TestPerimeterWalk_6x3(t *testing.T) {
	want := []GridCell{
		{1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0},
		{5, 1}, {5, 2},
		{4, 2}, {3, 2}, {2, 2}, {1, 2}, {0, 2},
		{0, 1}, {0, 0},
	}

	assert.Equal(t, want, perimeterWalk(6, 3))
}

func TestPerimeterWalk_Length(t *testing.T) {
	tests := []struct {
		columns, rows uint8
	}{
		{2, 2}, {3, 2}, {6, 3}, {8, 5},
	}

	for _, tt := range tests {
		walk := perimeterWalk(tt.columns, tt.rows)
		assert.Len(t, walk, 2*int(tt.columns-1)+2*int(tt.rows-1))
		assert.Equal(t, GridCell{0, 0}, walk[len(walk)-1], "walk must end at the start node")

		// The start node only appears as the final return-home step.
		for _, c := range walk[:len(walk)-1] {
			assert.NotEqual(t, GridCell{0, 0}, c)
		}
	}
}

func TestRectanglePattern_StaysInProgressInsideCurrentCell(t *testing.T) {
	p := newTestPattern()
	before := p.Waypoints()

	samples := [][2]float64{{100, 100}, {0, 0}, {200, 200}, {50, 150}, {199, 1}}
	for i := 0; i < 50; i++ {
		s := samples[i%len(samples)]
		require.Equal(t, InProgress, p.CheckPosition(s[0], s[1]))
	}

	assert.Equal(t, before, p.Waypoints())
	assert.Equal(t, GridCell{0, 0}, p.LastVisited())
}

func TestRectanglePattern_FullWalkCompletesOnLastStep(t *testing.T) {
	p := newTestPattern()
	walk := p.Waypoints()
	require.Len(t, walk, 14)

	for i, cell := range walk {
		x, y := center(cell)
		got := p.CheckPosition(x, y)
		if i < len(walk)-1 {
			assert.Equal(t, InProgress, got, "step %d (%s)", i, cell)
		} else {
			assert.Equal(t, Completed, got, "last step")
		}
	}
}

func TestRectanglePattern_LingeringBetweenWaypoints(t *testing.T) {
	p := newTestPattern()

	for _, cell := range p.Waypoints()[:3] {
		x, y := center(cell)
		require.Equal(t, InProgress, p.CheckPosition(x, y))
		// Lingering in the reached cell never advances the queue.
		require.Equal(t, InProgress, p.CheckPosition(x+10, y-10))
	}

	assert.Equal(t, GridCell{3, 0}, p.LastVisited())
	assert.Len(t, p.Waypoints(), 11)
}

func TestRectanglePattern_WrongMove(t *testing.T) {
	tests := []struct {
		name    string
		reached int
		x, y    float64
	}{
		{"diagonal from start", 0, 300, 300},
		{"skip a cell on the top edge", 2, 900, 100},
		{"jump back home", 2, 100, 100},
		{"counter-clockwise first move", 0, 100, 300},
		{"middle of screen mid-walk", 6, 500, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPattern()
			for _, cell := range p.Waypoints()[:tt.reached] {
				x, y := center(cell)
				require.Equal(t, InProgress, p.CheckPosition(x, y))
			}
			assert.Equal(t, WrongMove, p.CheckPosition(tt.x, tt.y))
		})
	}
}

func TestRectanglePattern_EdgeSampleAdvances(t *testing.T) {
	p := newTestPattern()

	// (200, 100) is on the edge shared by (0,0) and (1,0): it is still the current cell.
	assert.Equal(t, InProgress, p.CheckPosition(200, 100))
	assert.Equal(t, GridCell{0, 0}, p.LastVisited())

	// Moving inside (1,0) advances.
	assert.Equal(t, InProgress, p.CheckPosition(201, 100))
	assert.Equal(t, GridCell{1, 0}, p.LastVisited())
}

func TestRectanglePattern_ResetIsIdempotent(t *testing.T) {
	p := newTestPattern()
	initial := p.Waypoints()

	for _, cell := range initial[:5] {
		x, y := center(cell)
		p.CheckPosition(x, y)
	}
	require.NotEqual(t, initial, p.Waypoints())

	p.Reset()
	assert.Equal(t, initial, p.Waypoints())
	assert.Equal(t, GridCell{0, 0}, p.LastVisited())

	p.Reset()
	p.Reset()
	assert.Equal(t, initial, p.Waypoints())
	assert.Equal(t, GridCell{0, 0}, p.LastVisited())
}

func TestRectanglePattern_ReusableAfterCompleted(t *testing.T) {
	p := newTestPattern()

	for attempt := 0; attempt < 3; attempt++ {
		var last Verdict
		for _, cell := range p.Waypoints() {
			x, y := center(cell)
			last = p.CheckPosition(x, y)
		}
		require.Equal(t, Completed, last, "attempt %d", attempt)
		p.Reset()
	}
}

func TestRectanglePattern_ID(t *testing.T) {
	assert.Equal(t, RectanglePatternID, newTestPattern().ID())
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "wrong_move", WrongMove.String())
	assert.Equal(t, "in_progress", InProgress.String())
	assert.Equal(t, "completed", Completed.String())
	assert.True(t, WrongMove.Terminal())
	assert.True(t, Completed.Terminal())
	assert.False(t, InProgress.Terminal())
}
