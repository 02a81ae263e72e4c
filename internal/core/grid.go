package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrAllocation reports that a grid could not be allocated at the requested size.
var ErrAllocation = errors.New("grid allocation failed")

// DefaultMaxCells caps the number of cells NewGrid is willing to allocate.
const DefaultMaxCells = 1 << 28

// Field names one scalar component of a Cell.
type Field uint8

const (
	// FieldAvg is the gather-average field.
	FieldAvg Field = iota
	// FieldSum is the scatter-redistribute field.
	FieldSum
	// FieldPDE is the explicit-diffusion field.
	FieldPDE
	// FieldDep is the coupled field.
	FieldDep
	// FieldTotal holds avg+sum of the same generation.
	FieldTotal

	fieldCount
)

var fieldNames = [fieldCount]string{"avg", "sum", "pde", "dep", "total"}

// String returns the short field label used in dumps and flags.
func (f Field) String() string {
	if f >= fieldCount {
		return fmt.Sprintf("field(%d)", uint8(f))
	}
	return fieldNames[f]
}

// Fields lists every field in declaration order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// ParseField resolves a field label.
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Cell is one grid location with its physical values.
type Cell struct {
	Avg   float64
	Sum   float64
	PDE   float64
	Dep   float64
	Total float64
}

// Get returns the value of field f.
func (c *Cell) Get(f Field) float64 {
	switch f {
	case FieldAvg:
		return c.Avg
	case FieldSum:
		return c.Sum
	case FieldPDE:
		return c.PDE
	case FieldDep:
		return c.Dep
	case FieldTotal:
		return c.Total
	}
	return math.NaN()
}

// Set assigns v to field f.
func (c *Cell) Set(f Field, v float64) {
	switch f {
	case FieldAvg:
		c.Avg = v
	case FieldSum:
		c.Sum = v
	case FieldPDE:
		c.PDE = v
	case FieldDep:
		c.Dep = v
	case FieldTotal:
		c.Total = v
	}
}

// Grid stores XSize rows of YSize cells in row-major order. Row x holds the
// cells (x, 0) .. (x, YSize-1).
type Grid struct {
	XSize, YSize int
	data         []Cell
}

// NewGrid allocates a grid with DefaultMaxCells as the size limit.
func NewGrid(xSize, ySize int) (*Grid, error) {
	return NewGridLimit(xSize, ySize, DefaultMaxCells)
}

// NewGridLimit allocates a grid, refusing anything above maxCells cells.
// Either the whole grid is returned or an error wrapping ErrAllocation.
func NewGridLimit(xSize, ySize, maxCells int) (*Grid, error) {
	if xSize <= 0 || ySize <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d must be positive", ErrAllocation, xSize, ySize)
	}
	if xSize > math.MaxInt/ySize {
		return nil, fmt.Errorf("%w: size %dx%d overflows", ErrAllocation, xSize, ySize)
	}
	total := xSize * ySize
	if maxCells > 0 && total > maxCells {
		return nil, fmt.Errorf("%w: %d cells exceeds limit %d", ErrAllocation, total, maxCells)
	}
	return &Grid{XSize: xSize, YSize: ySize, data: make([]Cell, total)}, nil
}

// Cells exposes the backing slice so callers can read/write values directly.
func (g *Grid) Cells() []Cell { return g.data }

// Index returns the linear slice index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return x*g.YSize + y }

// At returns a pointer to the cell at (x, y).
func (g *Grid) At(x, y int) *Cell { return &g.data[x*g.YSize+y] }

// Row returns the cells of row x. The slice aliases grid storage.
func (g *Grid) Row(x int) []Cell {
	base := x * g.YSize
	return g.data[base : base+g.YSize : base+g.YSize]
}

// SetRow copies src into row x.
func (g *Grid) SetRow(x int, src []Cell) {
	copy(g.Row(x), src)
}

// Rows calls fn for each row in increasing order until fn returns false.
func (g *Grid) Rows(fn func(x int, row []Cell) bool) {
	for x := 0; x < g.XSize; x++ {
		if !fn(x, g.Row(x)) {
			return
		}
	}
}

// Values copies field f of every cell into dst (grown as needed) in row-major order.
func (g *Grid) Values(f Field, dst []float64) []float64 {
	dst = dst[:0]
	for i := range g.data {
		dst = append(dst, g.data[i].Get(f))
	}
	return dst
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{XSize: g.XSize, YSize: g.YSize, data: make([]Cell, len(g.data))}
	copy(out.data, g.data)
	return out
}

// CopyFrom overwrites g with src. Dimensions must match.
func (g *Grid) CopyFrom(src *Grid) error {
	if g.XSize != src.XSize || g.YSize != src.YSize {
		return fmt.Errorf("grid size mismatch: %dx%d vs %dx%d", g.XSize, g.YSize, src.XSize, src.YSize)
	}
	copy(g.data, src.data)
	return nil
}

// Clear zeroes every cell.
func (g *Grid) Clear() {
	for i := range g.data {
		g.data[i] = Cell{}
	}
}
