package engine

import (
	"meshstep/internal/core"
	"meshstep/internal/rules"
	"meshstep/internal/topology"
)

// Reference computes one generation of prev sequentially into a fresh grid,
// keeping a full copy of both generations. Scatter is done by pushing shares
// into neighbor cells. It is the oracle the windowed engine is checked
// against and allocates a whole second grid, so it is meant for small runs.
func Reference(prev *core.Grid, topo topology.Topology, rs rules.RuleSet) *core.Grid {
	next := prev.Clone()
	xs, ys := prev.XSize, prev.YSize
	n := float64(topo.Size())
	dt2 := rs.DT * rs.DT
	var nbrs []topology.Coord

	if rs.Scatter {
		for x := 0; x < xs; x++ {
			for y := 0; y < ys; y++ {
				next.At(x, y).Sum = 0
			}
		}
	}

	for x := 0; x < xs; x++ {
		for y := 0; y < ys; y++ {
			nbrs = topo.Neighbors(xs, ys, x, y, nbrs[:0])
			c := topology.Coord{X: x, Y: y}
			old := prev.At(x, y)
			cell := next.At(x, y)

			if rs.Gather {
				cell.Avg = 0
				for _, nb := range nbrs {
					cell.Avg += prev.At(nb.X, nb.Y).Avg
				}
				cell.Avg /= n
			}
			if rs.Scatter {
				for _, nb := range nbrs {
					next.At(nb.X, nb.Y).Sum += old.Sum / n
				}
			}
			if rs.Diffusion {
				cell.PDE = -2 * dt2 * rs.C * old.PDE
				for _, nb := range nbrs {
					d2 := float64(topology.DistSq(nb, c))
					cell.PDE += (-2 * dt2 * prev.At(nb.X, nb.Y).PDE) / ((d2 + 1) * rs.C)
				}
			}
			if rs.Coupled {
				cell.Dep = 0
				for _, nb := range nbrs {
					p := prev.At(nb.X, nb.Y)
					d2 := float64(topology.DistSq(nb, c))
					cell.Dep += (p.Avg * dt2 * p.Dep) / ((d2 + p.Sum) * rs.C)
				}
			}
		}
	}

	if rs.Total {
		cells := next.Cells()
		for i := range cells {
			cells[i].Total = cells[i].Avg + cells[i].Sum
		}
	}
	return next
}
