// Package topology enumerates the neighbors a stencil reads for each cell.
//
// Coordinates are (x, y) with x selecting the grid row. Every variant clamps
// per axis: a component that would leave [0, size) is replaced by the center
// cell's own component, so the list always has exactly Size entries and
// boundary cells see themselves in place of the missing neighbor.
package topology

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknown is returned by Parse for names that do not match a variant.
var ErrUnknown = errors.New("unknown topology")

// Coord is one (x, y) grid coordinate.
type Coord struct {
	X, Y int
}

// Topology maps a cell to its ordered, fixed-length neighbor list.
type Topology interface {
	// Name is the configuration label of the variant.
	Name() string
	// Size is the number of entries Neighbors always produces.
	Size() int
	// Reach returns the largest row and column displacement of any neighbor.
	Reach() (rows, cols int)
	// WindowDepth is the scratch window this variant is paired with by default.
	WindowDepth() int
	// Neighbors appends the neighbor list of (x, y) to dst and returns it.
	Neighbors(xSize, ySize, x, y int, dst []Coord) []Coord
}

func clamp(v, center, size int) int {
	if v < 0 || v >= size {
		return center
	}
	return v
}

// Moore9 is the 3×3 block around a cell, including the cell itself,
// enumerated with the row offset in the outer loop.
type Moore9 struct {
	window int
}

// NewMoore9 returns the Moore neighborhood paired with a two-row window.
func NewMoore9() Moore9 { return Moore9{window: 2} }

// NewMoore9Windowed returns the Moore neighborhood paired with a three-row window.
func NewMoore9Windowed() Moore9 { return Moore9{window: 3} }

func (m Moore9) Name() string {
	if m.window == 3 {
		return "moore9w"
	}
	return "moore9"
}

func (Moore9) Size() int { return 9 }
func (Moore9) Reach() (rows, cols int) { return 1, 1 }

func (m Moore9) WindowDepth() int {
	if m.window <= 0 {
		return 2
	}
	return m.window
}

func (Moore9) Neighbors(xSize, ySize, x, y int, dst []Coord) []Coord {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			dst = append(dst, Coord{
				X: clamp(x+dx, x, xSize),
				Y: clamp(y+dy, y, ySize),
			})
		}
	}
	return dst
}

// Cross5 is the cell with its four axis neighbors, ordered
// (x-1,y) (x,y) (x+1,y) (x,y-1) (x,y+1).
type Cross5 struct{}

// NewCross5 returns the axis-cross neighborhood.
func NewCross5() Cross5 { return Cross5{} }

func (Cross5) Name() string { return "cross5" }
func (Cross5) Size() int { return 5 }
func (Cross5) Reach() (rows, cols int) { return 1, 1 }
func (Cross5) WindowDepth() int { return 2 }

func (Cross5) Neighbors(xSize, ySize, x, y int, dst []Coord) []Coord {
	for dx := -1; dx <= 1; dx++ {
		dst = append(dst, Coord{X: clamp(x+dx, x, xSize), Y: y})
	}
	dst = append(dst,
		Coord{X: x, Y: clamp(y-1, y, ySize)},
		Coord{X: x, Y: clamp(y+1, y, ySize)},
	)
	return dst
}

var variants = map[string]func() Topology{
	"moore9":  func() Topology { return NewMoore9() },
	"moore9w": func() Topology { return NewMoore9Windowed() },
	"cross5":  func() Topology { return NewCross5() },
}

// Parse returns the variant registered under name.
func Parse(name string) (Topology, error) {
	mk, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknown, name, Names())
	}
	return mk(), nil
}

// Names lists the known variant labels.
func Names() []string {
	out := make([]string, 0, len(variants))
	for name := range variants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DistSq returns the squared Euclidean distance between two coordinates.
func DistSq(a, b Coord) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
