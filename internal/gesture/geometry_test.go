package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testGrid() Grid {
	return Grid{
		Geometry: ScreenGeometry{Width: 1200, Height: 600},
		Columns:  6,
		Rows:     3,
	}
}

func TestGrid_CellBounds(t *testing.T) {
	grid := testGrid()

	tests := []struct {
		name string
		cell GridCell
		want Bounds
	}{
		{"origin", GridCell{0, 0}, Bounds{XMin: 0, XMax: 200, YMin: 0, YMax: 200}},
		{"top right", GridCell{5, 0}, Bounds{XMin: 1000, XMax: 1200, YMin: 0, YMax: 200}},
		{"bottom left", GridCell{0, 2}, Bounds{XMin: 0, XMax: 200, YMin: 400, YMax: 600}},
		{"middle", GridCell{3, 1}, Bounds{XMin: 600, XMax: 800, YMin: 200, YMax: 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, grid.CellBounds(tt.cell))
		})
	}
}

func TestGrid_NonIntegerCells(t *testing.T) {
	grid := Grid{Geometry: ScreenGeometry{Width: 1440, Height: 900}, Columns: 6, Rows: 3}

	b := grid.CellBounds(GridCell{1, 1})
	assert.InDelta(t, 240.0, b.XMin, 1e-9)
	assert.InDelta(t, 480.0, b.XMax, 1e-9)
	assert.InDelta(t, 300.0, b.YMin, 1e-9)
	assert.InDelta(t, 600.0, b.YMax, 1e-9)
}

func TestBounds_ContainsIsInclusive(t *testing.T) {
	grid := testGrid()
	left := GridCell{0, 0}
	right := GridCell{1, 0}

	// A sample on the shared edge belongs to both cells.
	assert.True(t, grid.Contains(left, 200, 100))
	assert.True(t, grid.Contains(right, 200, 100))

	// Corners are inside.
	assert.True(t, grid.Contains(left, 0, 0))
	assert.True(t, grid.Contains(left, 200, 200))

	// Just outside.
	assert.False(t, grid.Contains(left, 200.5, 100))
	assert.False(t, grid.Contains(right, 199.5, 100))
	assert.False(t, grid.Contains(left, -1, 10))
}

func TestGridCell_String(t *testing.T) {
	assert.Equal(t, "(3,2)", GridCell{Column: 3, Row: 2}.String())
}
