// Package initial fills a freshly allocated grid with starting values.
package initial

import (
	"errors"
	"fmt"
	"sort"

	"meshstep/internal/core"
	rng "meshstep/pkg/core"
)

// ErrUnknown is returned for initializer names that are not registered.
var ErrUnknown = errors.New("unknown initializer")

// Initializer writes starting values into every cell of g.
type Initializer interface {
	Name() string
	Fill(g *core.Grid) error
}

// Ramp reproduces the classic starting mesh: avg climbs by Step per row
// starting at Base, sum climbs by Step*10 per column starting at Base*10,
// and pde and dep both start at avg+sum.
type Ramp struct {
	Base float64
	Step float64
}

// NewRamp returns the ramp with base 100 and step 100.
func NewRamp() Ramp { return Ramp{Base: 100, Step: 100} }

func (Ramp) Name() string { return "ramp" }

func (r Ramp) Fill(g *core.Grid) error {
	h := r.Base
	for x := 0; x < g.XSize; x++ {
		v := r.Base * 10
		row := g.Row(x)
		for y := range row {
			row[y] = core.Cell{Avg: h, Sum: v, PDE: h + v, Dep: h + v, Total: h + v}
			v += r.Step * 10
		}
		h += r.Step
	}
	return nil
}

// Uniform sets every field of every cell to Value.
type Uniform struct {
	Value float64
}

func (Uniform) Name() string { return "uniform" }

func (u Uniform) Fill(g *core.Grid) error {
	cells := g.Cells()
	for i := range cells {
		cells[i] = core.Cell{Avg: u.Value, Sum: u.Value, PDE: u.Value, Dep: u.Value, Total: 2 * u.Value}
	}
	return nil
}

// Spike is a uniform background with one cell raised to Peak in every field.
type Spike struct {
	Background float64
	Peak       float64
	X, Y       int
}

func (Spike) Name() string { return "spike" }

func (s Spike) Fill(g *core.Grid) error {
	if s.X < 0 || s.X >= g.XSize || s.Y < 0 || s.Y >= g.YSize {
		return fmt.Errorf("spike (%d,%d) outside %dx%d grid", s.X, s.Y, g.XSize, g.YSize)
	}
	if err := (Uniform{Value: s.Background}).Fill(g); err != nil {
		return err
	}
	*g.At(s.X, s.Y) = core.Cell{Avg: s.Peak, Sum: s.Peak, PDE: s.Peak, Dep: s.Peak, Total: 2 * s.Peak}
	return nil
}

// Random draws every field uniformly from [Lo, Hi) with a fixed seed.
type Random struct {
	Seed   int64
	Lo, Hi float64
}

func (Random) Name() string { return "random" }

func (r Random) Fill(g *core.Grid) error {
	if r.Hi < r.Lo {
		return fmt.Errorf("random range [%g, %g) is empty", r.Lo, r.Hi)
	}
	src := rng.NewRNG(r.Seed)
	cells := g.Cells()
	for i := range cells {
		c := core.Cell{
			Avg: src.Range(r.Lo, r.Hi),
			Sum: src.Range(r.Lo, r.Hi),
			PDE: src.Range(r.Lo, r.Hi),
			Dep: src.Range(r.Lo, r.Hi),
		}
		c.Total = c.Avg + c.Sum
		cells[i] = c
	}
	return nil
}

// Options carries the parameters shared by the registered initializers.
type Options struct {
	Value    float64
	Peak     float64
	SpikeX   int
	SpikeY   int
	Seed     int64
	Lo, Hi   float64
	RampBase float64
	RampStep float64
}

// DefaultOptions mirrors the defaults of each initializer.
func DefaultOptions() Options {
	return Options{
		Value:    100,
		Peak:     900,
		Seed:     42,
		Lo:       0,
		Hi:       1000,
		RampBase: 100,
		RampStep: 100,
	}
}

var registry = map[string]func(Options) Initializer{
	"ramp":    func(o Options) Initializer { return Ramp{Base: o.RampBase, Step: o.RampStep} },
	"uniform": func(o Options) Initializer { return Uniform{Value: o.Value} },
	"spike": func(o Options) Initializer {
		return Spike{Background: o.Value, Peak: o.Peak, X: o.SpikeX, Y: o.SpikeY}
	},
	"random": func(o Options) Initializer { return Random{Seed: o.Seed, Lo: o.Lo, Hi: o.Hi} },
}

// Lookup builds the initializer registered under name.
func Lookup(name string, opts Options) (Initializer, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknown, name, Names())
	}
	return mk(opts), nil
}

// Names lists the registered initializers.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
