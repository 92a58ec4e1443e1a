package gesture

// RectanglePatternID is the registry ID of the perimeter pattern.
const RectanglePatternID = "rectangle"

const (
	// DefaultColumns and DefaultRows define the 6x3 grid of the perimeter pattern.
	DefaultColumns uint8 = 6
	DefaultRows    uint8 = 3
)

// RectanglePattern recognizes a clockwise walk around the grid perimeter,
// starting and ending in the top-left cell. At every sample the pointer must be
// either in the cell it last reached or in the next cell of the walk.
type RectanglePattern struct {
	grid        Grid
	start       GridCell
	lastVisited GridCell
	toVisit     []GridCell
}

// NewRectanglePattern creates the 6x3 perimeter pattern for the given screen.
func NewRectanglePattern(geometry ScreenGeometry) *RectanglePattern {
	return NewRectanglePatternWithGrid(Grid{
		Geometry: geometry,
		Columns:  DefaultColumns,
		Rows:     DefaultRows,
	})
}

// NewRectanglePatternWithGrid creates a perimeter pattern over an arbitrary grid.
// The grid needs at least two columns and two rows.
func NewRectanglePatternWithGrid(grid Grid) *RectanglePattern {
	p := &RectanglePattern{
		grid:  grid,
		start: GridCell{Column: 0, Row: 0},
	}
	p.Reset()
	return p
}

// ID implements Pattern.
func (p *RectanglePattern) ID() string {
	return RectanglePatternID
}

// CheckPosition implements Pattern.
func (p *RectanglePattern) CheckPosition(x, y float64) Verdict {
	if p.grid.Contains(p.lastVisited, x, y) {
		return InProgress
	}

	if len(p.toVisit) == 0 {
		// Only reachable when Reset was skipped after Completed.
		return WrongMove
	}

	next := p.toVisit[0]
	if !p.grid.Contains(next, x, y) {
		return WrongMove
	}

	p.toVisit = p.toVisit[1:]
	p.lastVisited = next

	if next == p.start {
		return Completed
	}
	return InProgress
}

// Reset implements Pattern.
func (p *RectanglePattern) Reset() {
	p.toVisit = perimeterWalk(p.grid.Columns, p.grid.Rows)
	p.lastVisited = p.start
}

// Waypoints returns a copy of the pending walk, front first.
func (p *RectanglePattern) Waypoints() []GridCell {
	out := make([]GridCell, len(p.toVisit))
	copy(out, p.toVisit)
	return out
}

// LastVisited returns the cell the pointer last reached.
func (p *RectanglePattern) LastVisited() GridCell {
	return p.lastVisited
}

// Grid returns the grid the pattern is evaluated on.
func (p *RectanglePattern) Grid() Grid {
	return p.grid
}

// perimeterWalk lists the cells after (0,0) in clockwise order:
// top edge rightward, right edge downward, bottom edge leftward, left edge upward.
// The last element is (0,0) itself.
func perimeterWalk(columns, rows uint8) []GridCell {
	walk := make([]GridCell, 0, 2*int(columns-1)+2*int(rows-1))

	for c := uint8(1); c < columns; c++ {
		walk = append(walk, GridCell{Column: c, Row: 0})
	}
	for r := uint8(1); r < rows; r++ {
		walk = append(walk, GridCell{Column: columns - 1, Row: r})
	}
	for i := uint8(1); i < columns; i++ {
		walk = append(walk, GridCell{Column: columns - 1 - i, Row: rows - 1})
	}
	for i := uint8(1); i < rows; i++ {
		walk = append(walk, GridCell{Column: 0, Row: rows - 1 - i})
	}

	return walk
}

// Ensure RectanglePattern implements Pattern.
var _ Pattern = (*RectanglePattern)(nil)
