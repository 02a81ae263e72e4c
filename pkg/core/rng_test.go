package core

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a, b := NewRNG(9), NewRNG(9)
	for i := 0; i < 100; i++ {
		va, vb := a.Range(-5, 5), b.Range(-5, 5)
		if va != vb {
			t.Fatalf("draw %d differs: %v vs %v", i, va, vb)
		}
		if va < -5 || va >= 5 {
			t.Fatalf("draw %d = %v outside [-5, 5)", i, va)
		}
	}
	if got := a.Range(3, 3); got != 3 {
		t.Fatalf("empty range = %v, want lo", got)
	}
}
