package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"meshstep/internal/core"
)

func sample() *core.Grid {
	g, _ := core.NewGrid(2, 2)
	*g.At(0, 0) = core.Cell{Avg: 1, Sum: 10}
	*g.At(0, 1) = core.Cell{Avg: 2, Sum: 20}
	*g.At(1, 0) = core.Cell{Avg: 3.5, Sum: -4}
	*g.At(1, 1) = core.Cell{Avg: 100, Sum: 0}
	return g
}

const sampleDump = "row 0: avg sum\n" +
	"      1.00      2.00\n" +
	"     10.00     20.00\n" +
	"\n" +
	"row 1: avg sum\n" +
	"      3.50    100.00\n" +
	"     -4.00      0.00\n" +
	"\n"

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sample(), []core.Field{core.FieldAvg, core.FieldSum}, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if buf.String() != sampleDump {
		t.Fatalf("dump mismatch:\n%s\nwant:\n%s", buf.String(), sampleDump)
	}
}

func TestWritePrecision(t *testing.T) {
	var buf bytes.Buffer
	g, _ := core.NewGrid(1, 1)
	g.At(0, 0).PDE = 1.0 / 3
	if err := Write(&buf, g, []core.Field{core.FieldPDE}, Options{Width: 6, Precision: 4}); err != nil {
		t.Fatal(err)
	}
	if want := "row 0: pde\n0.3333\n\n"; buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snaps")
	path, err := WriteFile(dir, "run", 12, sample(), []core.Field{core.FieldAvg, core.FieldSum}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "run-step000012.txt" {
		t.Fatalf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleDump {
		t.Fatalf("file contents differ:\n%s", data)
	}
}
