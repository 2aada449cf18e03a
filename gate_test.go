package peps

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestEvolutionGateZeroTau(t *testing.T) {
	t.Parallel()
	h := mat.NewSymDense(4, []float64{
		1, 0.5, 0, 0,
		0.5, -1, 0, 0.25,
		0, 0, 2, 0,
		0, 0.25, 0, -2,
	})
	g := EvolutionGate(h, 0, 2, 2)
	for a := range 2 {
		for b := range 2 {
			for c := range 2 {
				for d := range 2 {
					want := 0.0
					if a == c && b == d {
						want = 1
					}
					got := float64(real(g.At(a, b, c, d)))
					if !near(got, want, 1e-6) {
						t.Fatalf("%d%d%d%d: got %f, want %f", a, b, c, d, got, want)
					}
				}
			}
		}
	}
}

func TestEvolutionGateDiagonal(t *testing.T) {
	t.Parallel()
	vals := []float64{0, 1, 2, 3}
	h := mat.NewSymDense(4, nil)
	for i, v := range vals {
		h.SetSym(i, i, v)
	}
	tau := 0.5

	g := EvolutionGate(h, tau, 2, 2)
	for a := range 2 {
		for b := range 2 {
			want := math.Exp(-tau * vals[a*2+b])
			if got := float64(real(g.At(a, b, a, b))); !near(got, want, 1e-6) {
				t.Fatalf("%d%d: got %f, want %f", a, b, got, want)
			}
			if got := float64(real(g.At(a, b, b, a))); a != b && !near(got, 0, 1e-6) {
				t.Fatalf("%d%d: %f", a, b, got)
			}
		}
	}
}

func TestTwoSiteOperator(t *testing.T) {
	t.Parallel()
	op := TwoSiteOperator(Identity(6), 2, 3)
	sh := op.Shape()
	if sh[0] != 2 || sh[1] != 3 || sh[2] != 2 || sh[3] != 3 {
		t.Fatalf("%#v", sh)
	}
	if got := op.At(1, 2, 1, 2); got != 1 {
		t.Fatalf("%f", real(got))
	}
	if got := op.At(1, 2, 0, 2); got != 0 {
		t.Fatalf("%f", real(got))
	}
}
