package stencil

import (
	"testing"

	"meshstep/internal/config"
	"meshstep/internal/core"
)

func TestCellsShadeSelectedField(t *testing.T) {
	s, err := New(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Size(); got != (core.Size{W: 10, H: 5}) {
		t.Fatalf("Size() = %+v", got)
	}
	cells := s.Cells()
	if len(cells) != 50 {
		t.Fatalf("len(Cells()) = %d, want 50", len(cells))
	}
	// The ramp climbs by row in avg.
	if cells[0] != 0 || cells[49] != 255 {
		t.Fatalf("avg shades = %d..%d, want 0..255", cells[0], cells[49])
	}
	if cells[9] != cells[0] {
		t.Fatalf("avg should be flat along a row: %d vs %d", cells[0], cells[9])
	}
}

func TestFlatFieldIsMidGray(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Init.Name = "uniform"
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range s.Cells() {
		if v != 128 {
			t.Fatalf("cell %d = %d, want 128", i, v)
		}
	}
}

func TestStepAndReset(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Init.Name = "random"
	cfg.Rules.DT = 0.01
	cfg.CheckFinite = true
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Grid().Clone()
	s.Step()
	if s.Err() != nil {
		t.Fatal(s.Err())
	}
	if s.Grid().At(2, 2).Avg == before.At(2, 2).Avg {
		t.Fatal("Step did not change the grid")
	}
	s.Reset(cfg.Init.Seed)
	if *s.Grid().At(2, 2) != *before.At(2, 2) {
		t.Fatal("Reset with the same seed did not restore the start state")
	}

	s.SetField(core.FieldDep)
	snap := s.Parameters()
	if len(snap.Groups) != 3 || snap.Groups[2].Name != "Field dep" {
		t.Fatalf("parameters = %+v", snap.Groups)
	}
	if snap.Groups[2].Params[0].Value != "0" {
		t.Fatalf("step after reset = %s, want 0", snap.Groups[2].Params[0].Value)
	}
}

func TestPaintSetsSelectedField(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Init.Name = "uniform"
	cfg.Init.Peak = 750
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s.SetField(core.FieldPDE)
	if err := s.Paint(3, 7); err != nil {
		t.Fatal(err)
	}
	c := s.Grid().At(3, 7)
	if c.PDE != 750 || c.Avg != cfg.Init.Value {
		t.Fatalf("painted cell = %+v, want pde=750 and avg untouched", *c)
	}
	// Painted cells make the field non-flat, so the shade follows.
	if shade := s.Cells()[3*10+7]; shade != 255 {
		t.Fatalf("painted shade = %d, want 255", shade)
	}
	if err := s.Paint(5, 0); err == nil {
		t.Fatal("paint outside the grid accepted")
	}
	if err := s.Paint(0, -1); err == nil {
		t.Fatal("paint at a negative column accepted")
	}
}
