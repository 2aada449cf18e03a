package peps

import (
	"fmt"
	"math"
	"testing"
)

func TestCTMOnesiteProduct(t *testing.T) {
	t.Parallel()
	spinors := [][]complex64{
		{1, 0},
		{0.6, 0.8},
		{0.8, complex(0, 0.6)},
		{1, 1},
	}
	_, e := productState(t, 2, 2, 4, spinors)

	var ops []Operator
	for i := range 4 {
		ops = append(ops,
			Operator{Group: 0, SourceSite: i, Op: Identity(2)},
			Operator{Group: 1, SourceSite: i, Op: PauliZ()})
	}
	res := measureOnesite(e, ops)

	for i, sp := range spinors {
		if got := float64(real(res[0][i])); !near(got, 1, 1e-5) {
			t.Fatalf("site %d: %f", i, got)
		}
		if got := float64(imag(res[1][i])); !near(got, 0, 1e-5) {
			t.Fatalf("site %d: %f", i, got)
		}
		want := magnetization(sp)
		if got := float64(real(res[1][i])); !near(got, want, 2e-4) {
			t.Fatalf("site %d: got %f, want %f", i, got, want)
		}
	}
}

func TestCTMOnesiteUnconfigured(t *testing.T) {
	t.Parallel()
	spinors := [][]complex64{{1, 0}, {0, 1}}
	_, e := productState(t, 2, 1, 2, spinors)

	ops := []Operator{{Group: 0, SourceSite: 0, Op: PauliZ()}}
	res := measureOnesite(e, ops)
	if got := float64(real(res[0][0])); !near(got, 1, 2e-4) {
		t.Fatalf("%f", got)
	}
	// Site 1 has no operator and must read as NaN.
	if v := res[0][1]; real(v) == real(v) {
		t.Fatalf("%f", real(v))
	}
}

func TestCTMBoundedAfterUpdates(t *testing.T) {
	t.Parallel()
	lat := NewUniformLattice(2, 2, 0, 2, 2, 0.01)
	s := newState(lat, 4)
	randomInit(s, 11)

	// Evolve toward the ordered state, where the double layer tensors carry
	// large weights and the environment magnitude compounds per sweep.
	prm := NewParameters()
	prm.PrintLevel = 0
	gate := isingGate(0.1)
	for range 50 {
		for i := range lat.NUnit() {
			for _, leg := range []int{legTop, legRight} {
				simpleUpdateStep(s, prm, NNOperator{SourceSite: i, SourceLeg: leg, Op: gate})
			}
		}
	}

	e := newCTM(s, prm, nil)
	e.init()
	if err := e.run(); err != nil {
		t.Fatalf("%+v", err)
	}

	for j := range nleg {
		for i := range lat.NUnit() {
			mc := maxAbs(s.C[j][i])
			if math.IsNaN(mc) || math.IsInf(mc, 0) || mc > 1+1e-3 || mc == 0 {
				t.Fatalf("corner %d %d: %f", j, i, mc)
			}
			me := maxAbs(s.ET[j][i])
			if math.IsNaN(me) || math.IsInf(me, 0) || me > 1+1e-3 || me == 0 {
				t.Fatalf("edge %d %d: %f", j, i, me)
			}
		}
	}
}

func TestCTMInitShapes(t *testing.T) {
	t.Parallel()
	lat := NewUniformLattice(2, 2, 0, 2, 2, 0.01)
	s := newState(lat, 5)
	randomInit(s, 3)

	prm := NewParameters()
	prm.CHI = 5
	e := newCTM(s, prm, nil)
	e.init()

	for i := range lat.NUnit() {
		for j := range nleg {
			if got := s.C[j][i].Shape(); got[0] != 5 || got[1] != 5 {
				t.Fatalf("corner %d %d: %#v", j, i, got)
			}
			got := s.ET[j][i].Shape()
			if fmt.Sprint(got) != "[5 5 2 2]" {
				t.Fatalf("edge %d %d: %#v", j, i, got)
			}
		}
	}
}
