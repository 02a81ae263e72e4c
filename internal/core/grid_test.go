package core

import (
	"errors"
	"math"
	"testing"
)

func TestNewGridRejectsBadSizes(t *testing.T) {
	cases := []struct {
		name     string
		x, y     int
		maxCells int
	}{
		{"zero rows", 0, 10, 0},
		{"negative cols", 5, -1, 0},
		{"overflow", math.MaxInt / 2, 3, 0},
		{"over limit", 100, 100, 9999},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewGridLimit(tc.x, tc.y, tc.maxCells)
			if !errors.Is(err, ErrAllocation) {
				t.Fatalf("err = %v, want ErrAllocation", err)
			}
			if g != nil {
				t.Fatal("failed allocation must not return a grid")
			}
		})
	}
}

func TestGridRowMajorLayout(t *testing.T) {
	g, err := NewGrid(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Cells()) != 12 {
		t.Fatalf("len(cells) = %d, want 12", len(g.Cells()))
	}
	g.At(1, 2).Avg = 7
	if got := g.Cells()[g.Index(1, 2)].Avg; got != 7 {
		t.Fatalf("cell (1,2) via index = %v, want 7", got)
	}
	if g.Index(1, 2) != 6 {
		t.Fatalf("Index(1,2) = %d, want 6", g.Index(1, 2))
	}
	row := g.Row(1)
	if len(row) != 4 || row[2].Avg != 7 {
		t.Fatalf("Row(1) = %+v, want width 4 with avg 7 at column 2", row)
	}
	row[0].Sum = 3
	if g.At(1, 0).Sum != 3 {
		t.Fatal("Row must alias grid storage")
	}

	visited := 0
	g.Rows(func(x int, r []Cell) bool {
		visited++
		return x < 1
	})
	if visited != 2 {
		t.Fatalf("Rows visited %d rows, want 2 before stopping", visited)
	}
}

func TestGridCloneIsIndependent(t *testing.T) {
	g, _ := NewGrid(2, 2)
	g.At(0, 0).PDE = 1
	c := g.Clone()
	c.At(0, 0).PDE = 2
	if g.At(0, 0).PDE != 1 {
		t.Fatal("mutating the clone changed the original")
	}
	if err := g.CopyFrom(c); err != nil {
		t.Fatal(err)
	}
	if g.At(0, 0).PDE != 2 {
		t.Fatal("CopyFrom did not copy values")
	}
	other, _ := NewGrid(3, 2)
	if err := g.CopyFrom(other); err == nil {
		t.Fatal("CopyFrom accepted mismatched sizes")
	}
}

func TestFieldAccessors(t *testing.T) {
	var c Cell
	for i, f := range Fields() {
		c.Set(f, float64(i+1))
	}
	want := Cell{Avg: 1, Sum: 2, PDE: 3, Dep: 4, Total: 5}
	if c != want {
		t.Fatalf("cell = %+v, want %+v", c, want)
	}
	for _, f := range Fields() {
		parsed, ok := ParseField(f.String())
		if !ok || parsed != f {
			t.Fatalf("ParseField(%q) = %v, %v", f.String(), parsed, ok)
		}
	}
	if _, ok := ParseField("heat"); ok {
		t.Fatal("ParseField accepted an unknown name")
	}
}
