// Package rules holds the per-cell update formulas. Every formula reads the
// previous generation only; new values are written to a caller-owned row.
package rules

import (
	"errors"
	"fmt"

	"meshstep/internal/core"
	"meshstep/internal/topology"
)

// ErrInvalid reports a rule set that cannot be evaluated.
var ErrInvalid = errors.New("invalid rule set")

// DefaultDamping is the diffusion damping constant C.
const DefaultDamping = 0.25

// RuleSet selects the active rules and their constants.
type RuleSet struct {
	Gather    bool
	Scatter   bool
	Diffusion bool
	Coupled   bool
	// Total stores avg+sum of the new generation.
	Total bool

	DT float64
	C  float64

	// Neighbors, when non-zero, is the neighbor count the rules were tuned
	// for. A topology of another size is rejected.
	Neighbors int
}

// Default enables the four stencil rules with dt=1 and C=0.25.
func Default() RuleSet {
	return RuleSet{
		Gather:    true,
		Scatter:   true,
		Diffusion: true,
		Coupled:   true,
		DT:        1,
		C:         DefaultDamping,
	}
}

// Validate checks constants and the pairing with topo.
func (r RuleSet) Validate(topo topology.Topology) error {
	if topo == nil {
		return fmt.Errorf("%w: no topology", ErrInvalid)
	}
	if r.C == 0 && (r.Diffusion || r.Coupled) {
		return fmt.Errorf("%w: damping constant C must be non-zero", ErrInvalid)
	}
	if r.DT <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, r.DT)
	}
	if r.Neighbors != 0 && r.Neighbors != topo.Size() {
		return fmt.Errorf("%w: rules expect %d neighbors, topology %s has %d",
			ErrInvalid, r.Neighbors, topo.Name(), topo.Size())
	}
	if !r.Gather && !r.Scatter && !r.Diffusion && !r.Coupled && !r.Total {
		return fmt.Errorf("%w: no rule enabled", ErrInvalid)
	}
	return nil
}

// Active lists the fields the rule set updates, in dump order.
func (r RuleSet) Active() []core.Field {
	var out []core.Field
	if r.Gather {
		out = append(out, core.FieldAvg)
	}
	if r.Scatter {
		out = append(out, core.FieldSum)
	}
	if r.Diffusion {
		out = append(out, core.FieldPDE)
	}
	if r.Coupled {
		out = append(out, core.FieldDep)
	}
	if r.Total {
		out = append(out, core.FieldTotal)
	}
	return out
}

// Evaluator computes new-generation rows. It keeps neighbor buffers, so each
// worker needs its own.
type Evaluator struct {
	rules RuleSet
	topo  topology.Topology
	prev  *core.Grid

	n       int
	dt2     float64
	reachX  int
	reachY  int
	nbrs    []topology.Coord
	srcNbrs []topology.Coord
}

// NewEvaluator binds rules and topo to the previous generation stored in prev.
func NewEvaluator(rs RuleSet, topo topology.Topology, prev *core.Grid) *Evaluator {
	rx, ry := topo.Reach()
	return &Evaluator{
		rules:   rs,
		topo:    topo,
		prev:    prev,
		n:       topo.Size(),
		dt2:     rs.DT * rs.DT,
		reachX:  rx,
		reachY:  ry,
		nbrs:    make([]topology.Coord, 0, topo.Size()),
		srcNbrs: make([]topology.Coord, 0, topo.Size()),
	}
}

// Row fills dst with the new values of row x. Fields whose rule is off keep
// their previous value.
func (e *Evaluator) Row(x int, dst []core.Cell) {
	for y := range dst {
		dst[y] = e.Cell(x, y)
	}
}

// Cell returns the new value of (x, y).
func (e *Evaluator) Cell(x, y int) core.Cell {
	g := e.prev
	out := *g.At(x, y)
	e.nbrs = e.topo.Neighbors(g.XSize, g.YSize, x, y, e.nbrs[:0])
	center := topology.Coord{X: x, Y: y}

	if e.rules.Gather {
		out.Avg = e.gather()
	}
	if e.rules.Scatter {
		out.Sum = e.scatter(center)
	}
	if e.rules.Diffusion {
		out.PDE = e.diffusion(center, g.At(x, y).PDE)
	}
	if e.rules.Coupled {
		out.Dep = e.coupled(center)
	}
	if e.rules.Total {
		out.Total = out.Avg + out.Sum
	}
	return out
}

func (e *Evaluator) gather() float64 {
	var acc float64
	for _, nb := range e.nbrs {
		acc += e.prev.At(nb.X, nb.Y).Avg
	}
	return acc / float64(e.n)
}

// scatter accumulates, for every source cell whose neighbor list contains c,
// one share of the source's previous value per occurrence. Sources are
// visited in row-major order and occurrences in enumeration order, which is
// the order a push loop over the whole grid adds them to c.
func (e *Evaluator) scatter(c topology.Coord) float64 {
	g := e.prev
	var acc float64
	for sx := c.X - e.reachX; sx <= c.X+e.reachX; sx++ {
		if sx < 0 || sx >= g.XSize {
			continue
		}
		for sy := c.Y - e.reachY; sy <= c.Y+e.reachY; sy++ {
			if sy < 0 || sy >= g.YSize {
				continue
			}
			e.srcNbrs = e.topo.Neighbors(g.XSize, g.YSize, sx, sy, e.srcNbrs[:0])
			for _, nb := range e.srcNbrs {
				if nb == c {
					acc += g.At(sx, sy).Sum / float64(e.n)
				}
			}
		}
	}
	return acc
}

func (e *Evaluator) diffusion(c topology.Coord, old float64) float64 {
	C := e.rules.C
	acc := -2 * e.dt2 * C * old
	for _, nb := range e.nbrs {
		d2 := float64(topology.DistSq(nb, c))
		acc += (-2 * e.dt2 * e.prev.At(nb.X, nb.Y).PDE) / ((d2 + 1) * C)
	}
	return acc
}

func (e *Evaluator) coupled(c topology.Coord) float64 {
	C := e.rules.C
	var acc float64
	for _, nb := range e.nbrs {
		p := e.prev.At(nb.X, nb.Y)
		d2 := float64(topology.DistSq(nb, c))
		acc += (p.Avg * e.dt2 * p.Dep) / ((d2 + p.Sum) * C)
	}
	return acc
}
