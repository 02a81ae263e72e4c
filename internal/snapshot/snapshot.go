// Package snapshot writes text dumps of grid state.
//
// A dump lists, for each row, a header naming the row and its fields, then
// one line of fixed-width values per field, then a blank line:
//
//	row 0: avg sum
//	    100.00    100.00
//	   1000.00   2000.00
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"meshstep/internal/core"
)

// Options controls value formatting.
type Options struct {
	Width     int
	Precision int
}

// DefaultOptions matches the "%10.2f" layout.
func DefaultOptions() Options { return Options{Width: 10, Precision: 2} }

// Write dumps fields of g to w.
func Write(w io.Writer, g *core.Grid, fields []core.Field, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = 10
	}
	if opts.Precision < 0 {
		opts.Precision = 2
	}
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.String()
	}
	header := strings.Join(labels, " ")

	bw := bufio.NewWriter(w)
	num := make([]byte, 0, 32)
	for x := 0; x < g.XSize; x++ {
		fmt.Fprintf(bw, "row %d: %s\n", x, header)
		row := g.Row(x)
		for _, f := range fields {
			for y := range row {
				num = strconv.AppendFloat(num[:0], row[y].Get(f), 'f', opts.Precision, 64)
				for pad := opts.Width - len(num); pad > 0; pad-- {
					bw.WriteByte(' ')
				}
				bw.Write(num)
			}
			bw.WriteByte('\n')
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// FileName returns the dump name for a run at the given step.
func FileName(runID string, step int) string {
	return fmt.Sprintf("%s-step%06d.txt", runID, step)
}

// WriteFile dumps g into dir under FileName(runID, step) and returns the path.
func WriteFile(dir, runID string, step int, g *core.Grid, fields []core.Field, opts Options) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, FileName(runID, step))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	if err := Write(f, g, fields, opts); err != nil {
		f.Close()
		return "", fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close snapshot %s: %w", path, err)
	}
	return path, nil
}
