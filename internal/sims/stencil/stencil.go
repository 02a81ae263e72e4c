// Package stencil exposes an engine run through the viewer's core.Sim contract.
package stencil

import (
	"context"
	"fmt"
	"math"

	"meshstep/internal/config"
	"meshstep/internal/core"
	"meshstep/internal/diag"
	"meshstep/internal/engine"
)

// Sim renders one field of a running grid as gray levels.
type Sim struct {
	cfg   config.Config
	grid  *core.Grid
	eng   *engine.Engine
	field core.Field
	shade []uint8
	buf   []float64
	err   error
}

// New allocates the grid, fills it and prepares the engine.
func New(cfg config.Config) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := core.NewGridLimit(cfg.XSize, cfg.YSize, cfg.MaxCells)
	if err != nil {
		return nil, err
	}
	s := &Sim{cfg: cfg, grid: grid, field: core.FieldAvg, shade: make([]uint8, cfg.XSize*cfg.YSize)}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sim) rebuild() error {
	ini, err := s.cfg.Initializer()
	if err != nil {
		return err
	}
	if err := ini.Fill(s.grid); err != nil {
		return fmt.Errorf("initialize grid: %w", err)
	}
	ecfg, err := s.cfg.Engine()
	if err != nil {
		return err
	}
	eng, err := engine.New(s.grid, ecfg)
	if err != nil {
		return err
	}
	s.eng = eng
	s.err = nil
	return nil
}

// Name returns the simulation identifier.
func (s *Sim) Name() string { return "stencil" }

// Size maps grid columns to screen width and grid rows to screen height.
func (s *Sim) Size() core.Size { return core.Size{W: s.cfg.YSize, H: s.cfg.XSize} }

// Reset refills the grid. The seed only affects the random initializer.
func (s *Sim) Reset(seed int64) {
	s.cfg.Init.Seed = seed
	s.err = s.rebuild()
}

// Step advances one generation. Once a step fails Step does nothing and Err
// reports the failure.
func (s *Sim) Step() {
	if s.err != nil {
		return
	}
	if err := s.eng.Step(context.Background()); err != nil {
		s.err = err
		return
	}
	if s.cfg.CheckFinite {
		s.err = diag.CheckFinite(s.grid, s.cfg.RuleSet().Active())
	}
}

// Err returns the error that stopped the run, if any.
func (s *Sim) Err() error { return s.err }

// Grid exposes the simulated grid.
func (s *Sim) Grid() *core.Grid { return s.grid }

// Field returns the field being rendered.
func (s *Sim) Field() core.Field { return s.field }

// SetField selects the field Cells renders.
func (s *Sim) SetField(f core.Field) { s.field = f }

// Cells scales the selected field between its current minimum and maximum
// into 0..255. A flat field renders as mid gray.
func (s *Sim) Cells() []uint8 {
	s.buf = s.grid.Values(s.field, s.buf)
	st := diag.Summarize(s.grid, []core.Field{s.field})[0]
	span := st.Max - st.Min
	for i, v := range s.buf {
		if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
			s.shade[i] = 128
			continue
		}
		s.shade[i] = uint8(255 * (v - st.Min) / span)
	}
	return s.shade
}

// Parameters reports the run settings and live field statistics.
func (s *Sim) Parameters() core.ParameterSnapshot {
	st := diag.Summarize(s.grid, []core.Field{s.field})[0]
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Grid",
			Params: []core.Parameter{
				core.IntParam("x_size", "Rows", s.cfg.XSize),
				core.IntParam("y_size", "Columns", s.cfg.YSize),
				core.StringParam("topology", "Topology", s.cfg.Topology),
				core.IntParam("window_depth", "Window", s.eng.WindowDepth()),
				core.IntParam("workers", "Workers", s.cfg.Workers),
				core.StringParam("assignment", "Assignment", s.cfg.Assignment),
			},
		},
		{
			Name: "Rules",
			Params: []core.Parameter{
				core.FloatParam("dt", "dt", s.cfg.Rules.DT),
				core.FloatParam("c", "C", s.cfg.Rules.C),
			},
		},
		{
			Name: "Field " + s.field.String(),
			Params: []core.Parameter{
				core.IntParam("step", "Step", s.eng.Steps()),
				core.FloatParam("min", "Min", st.Min),
				core.FloatParam("max", "Max", st.Max),
				core.FloatParam("sum", "Sum", st.Sum),
			},
		},
	}}
}

// Paint sets the selected field of cell (x, y) to the spike peak value.
func (s *Sim) Paint(x, y int) error {
	if x < 0 || x >= s.grid.XSize || y < 0 || y >= s.grid.YSize {
		return fmt.Errorf("paint (%d,%d) outside %dx%d grid", x, y, s.grid.XSize, s.grid.YSize)
	}
	s.grid.At(x, y).Set(s.field, s.cfg.Init.Peak)
	return nil
}
