// Package gesture implements pointer gesture recognition.
// A Pattern consumes pointer samples and reports whether the user is tracing it;
// the Recognizer drives a Pattern from a PointerSource at a fixed cadence.
package gesture

import "fmt"

// ScreenGeometry holds the primary display size in pixels.
type ScreenGeometry struct {
	Height float64
	Width  float64
}

// GridCell addresses one cell of the screen grid.
type GridCell struct {
	Column uint8
	Row    uint8
}

func (c GridCell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Column, c.Row)
}

// Bounds is an axis-aligned cell rectangle. All edges are inclusive.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Contains reports whether (x, y) lies inside b, edges included.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// Grid is a uniform Columns x Rows partition of the screen.
type Grid struct {
	Geometry ScreenGeometry
	Columns  uint8
	Rows     uint8
}

// CellBounds returns the rectangle covered by cell.
func (g Grid) CellBounds(cell GridCell) Bounds {
	w := g.Geometry.Width / float64(g.Columns)
	h := g.Geometry.Height / float64(g.Rows)

	return Bounds{
		XMin: float64(cell.Column) * w,
		XMax: float64(cell.Column+1) * w,
		YMin: float64(cell.Row) * h,
		YMax: float64(cell.Row+1) * h,
	}
}

// Contains reports whether (x, y) falls inside cell.
func (g Grid) Contains(cell GridCell, x, y float64) bool {
	return g.CellBounds(cell).Contains(x, y)
}
