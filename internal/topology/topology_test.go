package topology

import (
	"errors"
	"slices"
	"testing"
)

func TestNeighborsAlwaysFixedLengthAndInRange(t *testing.T) {
	for _, name := range Names() {
		topo, err := Parse(name)
		if err != nil {
			t.Fatal(err)
		}
		for _, dims := range [][2]int{{1, 1}, {1, 4}, {3, 1}, {5, 10}} {
			xs, ys := dims[0], dims[1]
			for x := 0; x < xs; x++ {
				for y := 0; y < ys; y++ {
					nbrs := topo.Neighbors(xs, ys, x, y, nil)
					if len(nbrs) != topo.Size() {
						t.Fatalf("%s %dx%d (%d,%d): %d neighbors, want %d", name, xs, ys, x, y, len(nbrs), topo.Size())
					}
					for _, nb := range nbrs {
						if nb.X < 0 || nb.X >= xs || nb.Y < 0 || nb.Y >= ys {
							t.Fatalf("%s (%d,%d): neighbor %+v out of range", name, x, y, nb)
						}
						if dx := nb.X - x; dx < -1 || dx > 1 {
							t.Fatalf("%s (%d,%d): neighbor %+v beyond reach", name, x, y, nb)
						}
					}
				}
			}
		}
	}
}

func TestMoore9InteriorOrder(t *testing.T) {
	got := NewMoore9().Neighbors(5, 10, 2, 5, nil)
	want := []Coord{
		{1, 4}, {1, 5}, {1, 6},
		{2, 4}, {2, 5}, {2, 6},
		{3, 4}, {3, 5}, {3, 6},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("neighbors = %v, want %v", got, want)
	}
}

func TestMoore9CornerClampsToCenter(t *testing.T) {
	got := NewMoore9().Neighbors(5, 10, 0, 0, nil)
	want := []Coord{
		{0, 0}, {0, 0}, {0, 1},
		{0, 0}, {0, 0}, {0, 1},
		{1, 0}, {1, 0}, {1, 1},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("neighbors = %v, want %v", got, want)
	}
}

func TestMoore9FarEdgeClamp(t *testing.T) {
	got := NewMoore9().Neighbors(5, 10, 4, 9, nil)
	want := []Coord{
		{3, 8}, {3, 9}, {3, 9},
		{4, 8}, {4, 9}, {4, 9},
		{4, 8}, {4, 9}, {4, 9},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("neighbors = %v, want %v", got, want)
	}
}

func TestCross5OrderAndClamp(t *testing.T) {
	c := NewCross5()
	if got, want := c.Neighbors(5, 10, 2, 5, nil), []Coord{{1, 5}, {2, 5}, {3, 5}, {2, 4}, {2, 6}}; !slices.Equal(got, want) {
		t.Fatalf("interior = %v, want %v", got, want)
	}
	if got, want := c.Neighbors(5, 10, 0, 9, nil), []Coord{{0, 9}, {0, 9}, {1, 9}, {0, 8}, {0, 9}}; !slices.Equal(got, want) {
		t.Fatalf("edge = %v, want %v", got, want)
	}
}

func TestNeighborsAppendsToBuffer(t *testing.T) {
	buf := make([]Coord, 0, 9)
	buf = NewMoore9().Neighbors(3, 3, 1, 1, buf)
	buf = NewMoore9().Neighbors(3, 3, 1, 1, buf[:0])
	if len(buf) != 9 {
		t.Fatalf("len = %d after reuse, want 9", len(buf))
	}
}

func TestParse(t *testing.T) {
	cases := map[string]struct {
		size, window int
	}{
		"moore9":  {9, 2},
		"moore9w": {9, 3},
		"cross5":  {5, 2},
	}
	for name, want := range cases {
		topo, err := Parse(name)
		if err != nil {
			t.Fatalf("Parse(%q): %v", name, err)
		}
		if topo.Name() != name || topo.Size() != want.size || topo.WindowDepth() != want.window {
			t.Fatalf("%s: name=%s size=%d window=%d", name, topo.Name(), topo.Size(), topo.WindowDepth())
		}
	}
	if _, err := Parse("hex7"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("Parse(hex7) err = %v, want ErrUnknown", err)
	}
}

func TestDistSq(t *testing.T) {
	if d := DistSq(Coord{1, 1}, Coord{2, 2}); d != 2 {
		t.Fatalf("diagonal distance = %d, want 2", d)
	}
	if d := DistSq(Coord{0, 0}, Coord{0, 0}); d != 0 {
		t.Fatalf("self distance = %d, want 0", d)
	}
}
