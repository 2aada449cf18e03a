package peps

import (
	"testing"
)

func TestMeasureTwositeAdjacent(t *testing.T) {
	t.Parallel()
	spinors := [][]complex64{
		{1, 0},
		{0.6, 0.8},
		{0.8, complex(0, 0.6)},
		{0.96, 0.28},
	}
	_, e := productState(t, 2, 2, 4, spinors)
	lat := e.s.Lattice

	zz := zzOperator()
	twosite := []Operator{
		{Group: 0, SourceSite: 0, Dx: 1, Dy: 0, Op: zz},
		{Group: 0, SourceSite: 0, Dx: 0, Dy: 1, Op: zz},
		{Group: 0, SourceSite: 2, Dx: 0, Dy: -1, Op: zz},
		{Group: 0, SourceSite: 1, Dx: -1, Dy: 0, Op: zz},
	}
	res := measureTwosite(e, twosite, nil)

	m := make([]float64, 4)
	for i, sp := range spinors {
		m[i] = magnetization(sp)
	}
	tests := []struct {
		bond Bond
		want float64
	}{
		{bond: Bond{0, 1, 0}, want: m[0] * m[1]},
		{bond: Bond{0, 0, 1}, want: m[0] * m[lat.Other(0, 0, 1)]},
		{bond: Bond{2, 0, -1}, want: m[2] * m[lat.Other(2, 0, -1)]},
		{bond: Bond{1, -1, 0}, want: m[1] * m[0]},
	}
	for _, test := range tests {
		v, ok := res[0][test.bond]
		if !ok {
			t.Fatalf("missing %v", test.bond)
		}
		if got := float64(real(v)); !near(got, test.want, 2e-4) {
			t.Fatalf("%v: got %f, want %f", test.bond, got, test.want)
		}
	}
}

func TestMeasureTwositeOpsIndices(t *testing.T) {
	t.Parallel()
	spinors := [][]complex64{
		{1, 0},
		{0.6, 0.8},
		{0.8, complex(0, 0.6)},
		{0.96, 0.28},
	}
	_, e := productState(t, 2, 2, 4, spinors)

	var onesite []Operator
	for i := range 4 {
		onesite = append(onesite, Operator{Group: 0, SourceSite: i, Op: PauliZ()})
	}
	twosite := []Operator{
		{Group: 0, SourceSite: 0, Dx: 1, Dy: 0, OpsIndices: []int{0, 0}},
	}
	res := measureTwosite(e, twosite, onesite)

	want := magnetization(spinors[0]) * magnetization(spinors[1])
	v := res[0][Bond{0, 1, 0}]
	if got := float64(real(v)); !near(got, want, 2e-4) {
		t.Fatalf("got %f, want %f", got, want)
	}
}

func TestMeasureTwositeLongRange(t *testing.T) {
	t.Parallel()
	spinors := [][]complex64{
		{1, 0}, {0.6, 0.8}, {0.8, complex(0, 0.6)},
		{0.96, 0.28}, {0.28, 0.96}, {1, 1},
	}
	_, e := productState(t, 3, 2, 4, spinors)

	zz := zzOperator()
	twosite := []Operator{
		// Spans a 1x3 window, which splits the operator over the two ends.
		{Group: 0, SourceSite: 0, Dx: 2, Dy: 0, Op: zz},
		// Spans more than the window limit and must be skipped.
		{Group: 1, SourceSite: 0, Dx: 4, Dy: 0, Op: zz},
	}
	res := measureTwosite(e, twosite, nil)

	want := magnetization(spinors[0]) * magnetization(spinors[2])
	v := res[0][Bond{0, 2, 0}]
	if got := float64(real(v)); !near(got, want, 2e-4) {
		t.Fatalf("got %f, want %f", got, want)
	}
	if _, ok := res[1]; ok {
		t.Fatalf("%#v", res[1])
	}
}

func TestMeasureTwositeDuplicateBond(t *testing.T) {
	t.Parallel()
	spinors := [][]complex64{
		{1, 0},
		{0.6, 0.8},
		{0.8, complex(0, 0.6)},
		{0.96, 0.28},
	}
	_, e := productState(t, 2, 2, 4, spinors)

	// Operators sharing a group and bond overwrite, the last one wins.
	twosite := []Operator{
		{Group: 0, SourceSite: 0, Dx: 1, Dy: 0, Op: zzOperator()},
		{Group: 0, SourceSite: 0, Dx: 1, Dy: 0, Op: TwoSiteOperator(Identity(4), 2, 2)},
	}
	res := measureTwosite(e, twosite, nil)
	v := res[0][Bond{0, 1, 0}]
	if got := float64(real(v)); !near(got, 1, 2e-4) {
		t.Fatalf("got %f, want 1", got)
	}
}

func TestSplitOperator(t *testing.T) {
	t.Parallel()
	terms := splitOperator(zzOperator())
	if len(terms) != 1 {
		t.Fatalf("%d", len(terms))
	}
	// The product of the split factors recovers sz otimes sz up to sign.
	tm := terms[0]
	got := tm.weight * float64(real(tm.left.At(0, 0))*real(tm.right.At(0, 0)))
	if !near(got, 1, 1e-5) {
		t.Fatalf("%f", got)
	}
	got = tm.weight * float64(real(tm.left.At(0, 0))*real(tm.right.At(1, 1)))
	if !near(got, -1, 1e-5) {
		t.Fatalf("%f", got)
	}
}
