// Package diag summarizes field values and detects numerical blow-up.
package diag

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"meshstep/internal/core"
)

// ErrNonFinite reports a NaN or infinite field value.
var ErrNonFinite = errors.New("non-finite field value")

// FieldStats summarizes one field over the whole grid.
type FieldStats struct {
	Field core.Field
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Summarize computes statistics for each field in fields.
func Summarize(g *core.Grid, fields []core.Field) []FieldStats {
	out := make([]FieldStats, 0, len(fields))
	var buf []float64
	for _, f := range fields {
		buf = g.Values(f, buf)
		st := FieldStats{Field: f}
		if len(buf) > 0 {
			st.Sum = floats.Sum(buf)
			st.Min = floats.Min(buf)
			st.Max = floats.Max(buf)
			st.Mean = st.Sum / float64(len(buf))
		}
		out = append(out, st)
	}
	return out
}

// Total returns the sum of field f over the grid.
func Total(g *core.Grid, f core.Field) float64 {
	return floats.Sum(g.Values(f, nil))
}

// CheckFinite returns an error wrapping ErrNonFinite naming the first cell
// whose value for one of fields is NaN or infinite.
func CheckFinite(g *core.Grid, fields []core.Field) error {
	var buf []float64
	for _, f := range fields {
		buf = g.Values(f, buf)
		for i, v := range buf {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s at (%d,%d) = %v", ErrNonFinite, f, i/g.YSize, i%g.YSize, v)
			}
		}
	}
	return nil
}
