package peps

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/fumin/tensor"
)

// productState builds a bond dimension one state whose site i carries the
// spinor spinors[i], together with its converged environment. Expectation
// values of such a state factorize over sites, which pins down every
// contraction exactly.
func productState(t *testing.T, lx, ly, chi int, spinors [][]complex64) (*State, *ctm) {
	pdim := len(spinors[0])
	lat := NewUniformLattice(lx, ly, 0, pdim, 1, 0)
	s := newState(lat, chi)
	for i := range lat.NUnit() {
		for p := range pdim {
			s.Tn[i].SetAt([]int{0, 0, 0, 0, p}, spinors[i][p])
		}
	}

	prm := NewParameters()
	prm.CHI = chi
	prm.PrintLevel = 0
	e := newCTM(s, prm, rand.New(rand.NewPCG(1, 2)))
	e.init()
	if err := e.run(); err != nil {
		t.Fatalf("%+v", err)
	}
	return s, e
}

// magnetization is the sz expectation of a spin half spinor.
func magnetization(sp []complex64) float64 {
	up := float64(real(sp[0])*real(sp[0]) + imag(sp[0])*imag(sp[0]))
	dn := float64(real(sp[1])*real(sp[1]) + imag(sp[1])*imag(sp[1]))
	return (up - dn) / (up + dn)
}

// zzOperator is sz otimes sz with axes {bra1, bra2, ket1, ket2}.
func zzOperator() *tensor.Dense {
	sz := [2]float32{1, -1}
	op := tensor.Zeros(2, 2, 2, 2)
	for a := range 2 {
		for b := range 2 {
			op.SetAt([]int{a, b, a, b}, complex(sz[a]*sz[b], 0))
		}
	}
	return op
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
