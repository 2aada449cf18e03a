package peps

import (
	"math"
	"testing"

	"github.com/fumin/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// tnMagnetization is the sz expectation of a bond dimension one site tensor.
func tnMagnetization(s *State, i int) float64 {
	sp := []complex64{s.Tn[i].At(0, 0, 0, 0, 0), s.Tn[i].At(0, 0, 0, 0, 1)}
	return magnetization(sp)
}

// isingGate is a small Ising evolution gate for tests.
func isingGate(tau float64) *tensor.Dense {
	h := mat.NewSymDense(4, nil)
	sz := [2]float64{1, -1}
	for a := range 2 {
		for b := range 2 {
			h.SetSym(a*2+b, a*2+b, -sz[a]*sz[b])
		}
	}
	return EvolutionGate(h, tau, 2, 2)
}

func TestSimpleUpdateIdentity(t *testing.T) {
	t.Parallel()
	spinors := [][]complex64{
		{1, 0},
		{0.6, 0.8},
		{0.8, complex(0, 0.6)},
		{0.96, 0.28},
	}
	lat := NewUniformLattice(2, 2, 0, 2, 1, 0)
	s := newState(lat, 2)
	for i := range lat.NUnit() {
		for p := range 2 {
			s.Tn[i].SetAt([]int{0, 0, 0, 0, p}, spinors[i][p])
		}
	}

	// The identity gate must leave every local state unchanged, up to
	// normalization and phase, on any bond orientation.
	prm := NewParameters()
	gate := TwoSiteOperator(Identity(4), 2, 2)
	for i := range lat.NUnit() {
		for leg := range nleg {
			simpleUpdateStep(s, prm, NNOperator{SourceSite: i, SourceLeg: leg, Op: gate})
		}
	}

	for i, sp := range spinors {
		want := magnetization(sp)
		if got := tnMagnetization(s, i); !near(got, want, 1e-5) {
			t.Fatalf("site %d: got %f, want %f", i, got, want)
		}
	}
	for i := range lat.NUnit() {
		for d := range nleg {
			if got := s.Lambda[i][d]; len(got) != 1 || !near(got[0], 1, 1e-6) {
				t.Fatalf("site %d leg %d: %v", i, d, got)
			}
		}
	}
}

func TestSimpleUpdateLambda(t *testing.T) {
	t.Parallel()
	lat := NewUniformLattice(2, 2, 0, 2, 3, 0.1)
	s := newState(lat, 2)
	randomInit(s, 5)

	gate := isingGate(0.1)
	prm := NewParameters()
	for range 10 {
		for i := range lat.NUnit() {
			for _, leg := range []int{legTop, legRight} {
				simpleUpdateStep(s, prm, NNOperator{SourceSite: i, SourceLeg: leg, Op: gate})
			}
		}
	}

	for i := range lat.NUnit() {
		for d := range nleg {
			lam := s.Lambda[i][d]
			if len(lam) != 3 {
				t.Fatalf("site %d leg %d: %d", i, d, len(lam))
			}
			if got := floats.Norm(lam, 2); math.Abs(got-1) > 1e-6 {
				t.Fatalf("site %d leg %d: %v", i, d, lam)
			}
			// Bond endpoints share the same mean field.
			other := s.Lambda[lat.Neighbor(i, d)][(d+2)%nleg]
			if &lam[0] != &other[0] {
				t.Fatalf("site %d leg %d: endpoints disagree", i, d)
			}
		}
	}

	// The site tensors must stay finite.
	for i := range lat.NUnit() {
		for ijk, v := range s.Tn[i].All() {
			if math.IsNaN(float64(real(v))) || math.IsNaN(float64(imag(v))) {
				t.Fatalf("site %d %v", i, ijk)
			}
		}
	}
}
