package peps

import (
	"log"
	"math"

	"github.com/fumin/tensor"

	"github.com/fumin/peps/linalg"
)

// maxWindow is the largest environment window contracted exactly for a two
// site observable. Observables spanning more are skipped with a diagnostic.
const maxWindow = 4

// onesiteAt is the matrix of the one site operator of the given group acting
// on site, or nil if none is configured.
func onesiteAt(ops []Operator, group, site int) *tensor.Dense {
	for _, op := range ops {
		if op.Group == group && op.SourceSite == site && op.Dx == 0 && op.Dy == 0 {
			return op.Op
		}
	}
	return nil
}

func numGroups(ops []Operator) int {
	n := 0
	for _, op := range ops {
		if op.Group+1 > n {
			n = op.Group + 1
		}
	}
	return n
}

// siteWindow is the environment of a nrow by ncol window of sites whose top
// left is at store site tl.
func siteWindow(e *ctm, tl, nrow, ncol int) (c [4]*tensor.Dense, et, eb, el, er []*tensor.Dense, idx [][]int) {
	s, lat := e.s, e.s.Lattice
	idx = make([][]int, nrow)
	for row := range nrow {
		idx[row] = make([]int, ncol)
		for col := range ncol {
			idx[row][col] = lat.Other(tl, col, -row)
		}
	}
	c[0] = s.C[0][idx[0][0]]
	c[1] = s.C[1][idx[0][ncol-1]]
	c[2] = s.C[2][idx[nrow-1][ncol-1]]
	c[3] = s.C[3][idx[nrow-1][0]]
	for col := range ncol {
		et = append(et, fused(s.ET[legTop][idx[0][col]]))
		eb = append(eb, fused(s.ET[legBottom][idx[nrow-1][col]]))
	}
	for row := range nrow {
		el = append(el, fused(s.ET[legLeft][idx[row][0]]))
		er = append(er, fused(s.ET[legRight][idx[row][ncol-1]]))
	}
	return c, et, eb, el, er, idx
}

// measureOnesite evaluates every one site observable on its site, normalized
// by the norm of the state. Entries of unconfigured group and site pairs are
// NaN.
func measureOnesite(e *ctm, ops []Operator) [][]complex64 {
	s, lat := e.s, e.s.Lattice
	n := lat.NUnit()
	nan := complex(float32(math.NaN()), float32(math.NaN()))

	res := make([][]complex64, numGroups(ops))
	for g := range res {
		res[g] = make([]complex64, n)
		for i := range n {
			res[g][i] = nan
		}
	}

	norms := make([]complex64, n)
	for i := range n {
		c, et, eb, el, er, _ := siteWindow(e, i, 1, 1)
		norms[i] = contractPatch(c, et, eb, el, er, [][]*tensor.Dense{{e.doubles[i]}})
	}

	for _, op := range ops {
		i := op.SourceSite
		c, et, eb, el, er, _ := siteWindow(e, i, 1, 1)
		d := [][]*tensor.Dense{{double(s.Tn[i], op.Op)}}
		res[op.Group][i] = contractPatch(c, et, eb, el, er, d) / norms[i]
	}
	return res
}

// measureTwosite evaluates every two site observable, normalized by the norm
// of its environment window. When operators share a group and bond, the last
// configured one wins.
func measureTwosite(e *ctm, twosite, onesite []Operator) map[int]map[Bond]complex64 {
	s, lat := e.s, e.s.Lattice
	norms := map[[3]int]complex64{}
	res := map[int]map[Bond]complex64{}

	for _, op := range twosite {
		ncol, nrow := abs(op.Dx)+1, abs(op.Dy)+1
		if ncol > maxWindow || nrow > maxWindow {
			log.Printf("operator group %d at site %d spans %dx%d, more than %dx%d, skipping", op.Group, op.SourceSite, ncol, nrow, maxWindow, maxWindow)
			continue
		}
		sourceCol, sourceRow := 0, nrow-1
		if op.Dx < 0 {
			sourceCol = ncol - 1
		}
		if op.Dy < 0 {
			sourceRow = 0
		}
		targetCol, targetRow := sourceCol+op.Dx, sourceRow-op.Dy
		tl := lat.Other(op.SourceSite, -sourceCol, sourceRow)
		c, et, eb, el, er, idx := siteWindow(e, tl, nrow, ncol)
		source, target := op.SourceSite, idx[targetRow][targetCol]

		key := [3]int{tl, nrow, ncol}
		norm, ok := norms[key]
		if !ok {
			d := make([][]*tensor.Dense, nrow)
			for row := range nrow {
				for col := range ncol {
					d[row] = append(d[row], e.doubles[idx[row][col]])
				}
			}
			norm = contractPatch(c, et, eb, el, er, d)
			norms[key] = norm
		}

		window := func(o1, o2 *tensor.Dense) complex64 {
			d := make([][]*tensor.Dense, nrow)
			for row := range nrow {
				for col := range ncol {
					d[row] = append(d[row], e.doubles[idx[row][col]])
				}
			}
			d[sourceRow][sourceCol] = double(s.Tn[source], o1)
			d[targetRow][targetCol] = double(s.Tn[target], o2)
			return contractPatch(c, et, eb, el, er, d)
		}

		var val complex64
		switch {
		case len(op.OpsIndices) == 2:
			o1 := onesiteAt(onesite, op.OpsIndices[0], source)
			o2 := onesiteAt(onesite, op.OpsIndices[1], target)
			if o1 == nil || o2 == nil {
				log.Printf("operator group %d at site %d refers to missing one site operators %v", op.Group, op.SourceSite, op.OpsIndices)
				continue
			}
			val = window(o1, o2)
		case nrow*ncol == 2:
			val = adjacentValue(e, op, idx)
		default:
			// Split the dense operator into sums of one site pairs.
			for _, t := range splitOperator(op.Op) {
				val += complex(float32(t.weight), 0) * window(t.left, t.right)
			}
		}

		if res[op.Group] == nil {
			res[op.Group] = map[Bond]complex64{}
		}
		res[op.Group][Bond{op.SourceSite, op.Dx, op.Dy}] = val / norm
	}
	return res
}

// adjacentValue contracts a nearest neighbor dense operator jointly over the
// bond, without splitting it. Vertical bonds reuse the horizontal contraction
// in the frame rotated so that the lower site comes first.
func adjacentValue(e *ctm, op Operator, idx [][]int) complex64 {
	var f frame
	var li, ri int
	swap := false
	if len(idx[0]) == 2 {
		f = newFrame(e.s, 0)
		li, ri = idx[0][0], idx[0][1]
		swap = op.Dx < 0
	} else {
		f = newFrame(e.s, 3)
		li, ri = idx[1][0], idx[0][0]
		swap = op.Dy < 0
	}
	o := op.Op
	if swap {
		o = permute(o, 1, 0, 3, 2)
	}
	return contractAdjacent(e, f, li, ri, o)
}

// contractAdjacent contracts the operator o over the horizontal frame bond
// from site li to site ri together with the environment of the pair.
func contractAdjacent(e *ctm, f frame, li, ri int, o *tensor.Dense) complex64 {
	t1 := clone(f.tn(li))
	t2 := clone(f.tn(ri))

	k := prod(t1, t2, [][2]int{{2, 0}})
	// k is of shape {l1, t1, b1, p1, t2, r2, b2, p2}.
	ko := prod(k, o, [][2]int{{3, 2}, {7, 3}})
	// ko is of shape {l1, t1, b1, t2, r2, b2, p1', p2'}.
	j := prod(ko, clone(k.Conj()), [][2]int{{6, 3}, {7, 7}})
	// j is of shape {l1, t1, b1, t2, r2, b2, l1', t1', b1', t2', r2', b2'}.
	j = permute(j, 0, 6, 1, 7, 3, 9, 4, 10, 2, 8, 5, 11)
	sj := j.Shape()
	j = j.Reshape(sj[0]*sj[1], sj[2]*sj[3], sj[4]*sj[5], sj[6]*sj[7], sj[8]*sj[9], sj[10]*sj[11])
	// j is of fused shape {l, t1, t2, r, b1, b2}.

	a := prod(fused(f.et(legLeft, li)), f.c(0, li), [][2]int{{1, 0}})
	// a is of shape {el in, ml, c1 out}.
	a = prod(a, fused(f.et(legTop, li)), [][2]int{{2, 0}})
	// a is of shape {el in, ml, et out, mt1}.
	a = prod(a, j, [][2]int{{1, 0}, {3, 1}})
	// a is of shape {el in, et out, t2, r, b1, b2}.
	a = prod(a, fused(f.et(legTop, ri)), [][2]int{{1, 0}, {2, 2}})
	// a is of shape {el in, r, b1, b2, et out}.
	a = prod(a, f.c(3, li), [][2]int{{0, 1}})
	// a is of shape {r, b1, b2, et out, c4 in}.
	a = prod(a, fused(f.et(legBottom, li)), [][2]int{{4, 1}, {1, 2}})
	// a is of shape {r, b2, et out, eb in}.
	a = prod(a, fused(f.et(legBottom, ri)), [][2]int{{3, 1}, {1, 2}})
	// a is of shape {r, et out, eb in}.

	b := prod(f.c(1, ri), fused(f.et(legRight, ri)), [][2]int{{1, 0}})
	// b is of shape {c2 in, er out, mr}.
	b = prod(b, f.c(2, ri), [][2]int{{1, 0}})
	// b is of shape {c2 in, mr, c3 out}.

	return trace(prod(a, b, [][2]int{{1, 0}, {0, 1}}))
}

type splitTerm struct {
	weight float64
	left   *tensor.Dense
	right  *tensor.Dense
}

// splitOperator decomposes a dense two site operator into a weighted sum of
// one site operator pairs by a singular value decomposition over the two
// sites.
func splitOperator(op *tensor.Dense) []splitTerm {
	sh := op.Shape()
	d1, d2 := sh[0], sh[1]
	m := permute(op, 0, 2, 1, 3).Reshape(d1*d1, d2*d2)
	u, sv, vh := linalg.SVD(m)

	var terms []splitTerm
	for k, s := range sv {
		if s == 0 || s < 1e-12*sv[0] {
			continue
		}
		left := clone(u.Slice([][2]int{{0, d1 * d1}, {k, k + 1}})).Reshape(d1, d1)
		right := clone(vh.Slice([][2]int{{k, k + 1}, {0, d2 * d2}})).Reshape(d2, d2)
		terms = append(terms, splitTerm{weight: s, left: left, right: right})
	}
	return terms
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
