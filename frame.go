package peps

import (
	"github.com/fumin/tensor"
)

// frame presents the state rotated by k clockwise quarter turns, so that code
// written against the left column of the frame serves all four directions.
//
// Frame leg d of a site maps to store leg (d+k)%4, and likewise for corners
// and edges. Since the chi legs of corners and edges run clockwise in the
// store, and clockwise is preserved under rotation, their axes need no
// transposition; only site tensors are viewed through a leg permutation.
type frame struct {
	s *State
	k int
}

func newFrame(s *State, k int) frame { return frame{s: s, k: k} }

// lx is the number of frame columns.
func (f frame) lx() int {
	if f.k%2 == 0 {
		return f.s.Lattice.LX
	}
	return f.s.Lattice.LY
}

// ly is the number of frame rows.
func (f frame) ly() int {
	if f.k%2 == 0 {
		return f.s.Lattice.LY
	}
	return f.s.Lattice.LX
}

// site is the store site at frame coordinate (x, y), anchored at store
// site 0.
func (f frame) site(x, y int) int {
	xv := legVec[(legRight+f.k)%nleg]
	yv := legVec[(legTop+f.k)%nleg]
	return f.s.Lattice.Other(0, x*xv[0]+y*yv[0], x*xv[1]+y*yv[1])
}

// shift is the store site displaced from site i by (dx, dy) frame steps.
func (f frame) shift(i, dx, dy int) int {
	xv := legVec[(legRight+f.k)%nleg]
	yv := legVec[(legTop+f.k)%nleg]
	return f.s.Lattice.Other(i, dx*xv[0]+dy*yv[0], dx*xv[1]+dy*yv[1])
}

// col is the frame column containing store site i. A frame column spans a
// whole store column or row, depending on the orientation.
func (f frame) col(i int) int {
	lat := f.s.Lattice
	xv := legVec[(legRight+f.k)%nleg]
	if xv[0] != 0 {
		return ((xv[0] * lat.X(i) % lat.LX) + lat.LX) % lat.LX
	}
	return ((xv[1] * lat.Y(i) % lat.LY) + lat.LY) % lat.LY
}

// tn is the site tensor of store site i viewed in frame leg order.
func (f frame) tn(i int) *tensor.Dense {
	k := f.k
	return f.s.Tn[i].Transpose(k%nleg, (1+k)%nleg, (2+k)%nleg, (3+k)%nleg, nleg)
}

// setTn writes a tensor in frame leg order back to store site i.
func (f frame) setTn(i int, t *tensor.Dense) {
	perm := make([]int, nleg+1)
	for s := range nleg {
		perm[s] = (s - f.k + nleg) % nleg
	}
	perm[nleg] = nleg
	f.s.Tn[i] = permute(t, perm...)
}

// virtualDim is the bond dimension across frame leg d of store site i.
func (f frame) virtualDim(i, d int) int {
	return f.s.Lattice.VirtualDims[i][(d+f.k)%nleg]
}

func (f frame) lambda(i, d int) []float64 {
	return f.s.Lambda[i][(d+f.k)%nleg]
}

// setLambda installs lam on the bond across frame leg d of store site i,
// keeping both endpoints on the shared slice.
func (f frame) setLambda(i, d int, lam []float64) {
	sd := (d + f.k) % nleg
	f.s.Lambda[i][sd] = lam
	f.s.Lambda[f.s.Lattice.Neighbor(i, sd)][(sd+2)%nleg] = lam
}

// c is frame corner j of store site i, with j running clockwise from the
// frame's top left.
func (f frame) c(j, i int) *tensor.Dense { return f.s.C[(j+f.k)%nleg][i] }

func (f frame) setC(j, i int, t *tensor.Dense) { f.s.C[(j+f.k)%nleg][i] = t }

// et is the frame edge across frame direction d of store site i.
func (f frame) et(d, i int) *tensor.Dense { return f.s.ET[(d+f.k)%nleg][i] }

func (f frame) setET(d, i int, t *tensor.Dense) { f.s.ET[(d+f.k)%nleg][i] = t }
