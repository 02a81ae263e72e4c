package ui

import "meshstep/internal/core"

// CellAt maps a screen pixel to the grid cell drawn under it. Screen columns
// are grid columns (y) and screen rows are grid rows (x).
func CellAt(px, py, scale int, size core.Size) (x, y int, ok bool) {
	if scale <= 0 {
		scale = 1
	}
	if px < 0 || py < 0 {
		return 0, 0, false
	}
	col, row := px/scale, py/scale
	if col >= size.W || row >= size.H {
		return 0, 0, false
	}
	return row, col, true
}
