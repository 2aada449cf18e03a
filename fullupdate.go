package peps

import (
	"github.com/fumin/tensor"

	"github.com/fumin/peps/linalg"
)

// fullUpdateStep applies one imaginary time evolution gate on a bond using
// the full corner transfer matrix environment.
//
// The endpoint tensors are first split by QR into isometries and reduced
// tensors carrying the physical and bond legs. The evolved reduced pair is
// then truncated back to the bond dimension by alternating least squares in
// the metric of the bond environment.
//
// References:
//   - Phien, Bengua, Tuyen, Corboz and Orus, The iPEPS algorithm, improved:
//     fast full update and gauge fixing.
func fullUpdateStep(e *ctm, p Parameters, g NNOperator) {
	s := e.s
	// Rotate so that the bond points from frame left to frame right.
	f := newFrame(s, (g.SourceLeg+2)%nleg)
	i := g.SourceSite
	j := s.Lattice.Neighbor(i, g.SourceLeg)

	t1 := clone(f.tn(i))
	t2 := clone(f.tn(j))
	sh1, sh2 := t1.Shape(), t2.Shape()

	// Reduced QR split. q1 keeps the left, top and bottom legs of the
	// source, r1 its physical and bond legs.
	m1 := permute(t1, 0, 1, 3, 4, 2).Reshape(sh1[0]*sh1[1]*sh1[3], sh1[4]*sh1[2])
	q1m := tensor.Zeros(1)
	bufs := [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)}
	r1 := tensor.QR(q1m, m1, bufs)
	nq1 := q1m.Shape()[1]
	q1 := q1m.Reshape(sh1[0], sh1[1], sh1[3], nq1)
	r1 = clone(r1).Reshape(nq1, sh1[4], sh1[2])

	m2 := permute(t2, 1, 2, 3, 4, 0).Reshape(sh2[1]*sh2[2]*sh2[3], sh2[4]*sh2[0])
	q2m := tensor.Zeros(1)
	r2 := tensor.QR(q2m, m2, bufs)
	nq2 := q2m.Shape()[1]
	q2 := q2m.Reshape(sh2[1], sh2[2], sh2[3], nq2)
	r2 = clone(r2).Reshape(nq2, sh2[4], sh2[0])

	// Bond environment in the ket and bra q legs.
	n4 := bondEnvironment(e, f, i, j, q1m, q2m, q1, q2)

	// Evolve the reduced pair.
	theta := prod(r1, r2, [][2]int{{2, 2}})
	// theta is of shape {q1, p1, q2, p2}.
	theta = prod(theta, g.Op, [][2]int{{1, 2}, {3, 3}})
	// theta is of shape {q1, q2, p1, p2}.

	// Initialize the truncated pair from the bare SVD of theta.
	dim := f.virtualDim(i, legRight)
	thm := permute(theta, 0, 2, 3, 1).Reshape(nq1*sh1[4], sh2[4]*nq2)
	u, sv, vh := linalg.TruncatedSVD(thm, dim)
	if len(sv) < dim {
		u = padTo(u, u.Shape()[0], dim)
		vh = padTo(vh, dim, vh.Shape()[1])
		sv = append(sv, make([]float64, dim-len(sv))...)
	}
	scaleAxis(u, 1, sqrtWeights(sv))
	scaleAxis(vh, 0, sqrtWeights(sv))
	r1p := clone(u.Reshape(nq1, sh1[4], dim))
	r2p := clone(vh.Reshape(dim, sh2[4], nq2))

	// thN is the constant part of the least squares right hand side.
	thN := prod(n4, theta, [][2]int{{2, 0}, {3, 1}})
	// thN is of shape {q1 bra, q2 bra, p1, p2}.

	for range p.FullMaxIteration {
		prev1, prev2 := r1p, r2p

		// Solve for r1p with r2p fixed.
		ma := prod(n4, r2p, [][2]int{{3, 2}})
		// ma is of shape {q1 bra, q2 bra, q1 ket, dim ket, p2 ket}.
		ma = prod(ma, r2p.Conj(), [][2]int{{1, 2}, {4, 1}})
		// ma is of shape {q1 bra, q1 ket, dim ket, dim bra}.
		mm := permute(ma, 0, 3, 1, 2).Reshape(nq1*dim, nq1*dim)
		bt := prod(thN, r2p.Conj(), [][2]int{{1, 2}, {3, 1}})
		// bt is of shape {q1 bra, p1, dim bra}.
		bm := permute(bt, 0, 2, 1).Reshape(nq1*dim, sh1[4])
		x := linalg.PInvSolve(mm, bm, p.FullInverseCut)
		r1p = permute(x.Reshape(nq1, dim, sh1[4]), 0, 2, 1)

		// Solve for r2p with r1p fixed.
		ma = prod(n4, r1p, [][2]int{{2, 0}})
		// ma is of shape {q1 bra, q2 bra, q2 ket, p1 ket, dim ket}.
		ma = prod(ma, r1p.Conj(), [][2]int{{0, 0}, {3, 1}})
		// ma is of shape {q2 bra, q2 ket, dim ket, dim bra}.
		mm = permute(ma, 0, 3, 1, 2).Reshape(nq2*dim, nq2*dim)
		bt = prod(thN, r1p.Conj(), [][2]int{{0, 0}, {2, 1}})
		// bt is of shape {q2 bra, p2, dim bra}.
		bm = permute(bt, 0, 2, 1).Reshape(nq2*dim, sh2[4])
		x = linalg.PInvSolve(mm, bm, p.FullInverseCut)
		r2p = permute(x.Reshape(nq2, dim, sh2[4]), 1, 2, 0)

		if relDiff(r1p, prev1)+relDiff(r2p, prev2) < p.FullEpsilon {
			break
		}
	}

	// Recombine with the isometries.
	t1n := prod(q1, r1p, [][2]int{{3, 0}})
	// t1n is of shape {l, t, b, p, r}.
	t1n = permute(t1n, 0, 1, 4, 2, 3)
	t2n := prod(q2, r2p, [][2]int{{3, 2}})
	// t2n is of shape {t, r, b, l, p}.
	t2n = permute(t2n, 3, 0, 1, 2, 4)
	if m := maxAbs(t1n); m > 0 {
		scale(t1n, 1/m)
	}
	if m := maxAbs(t2n); m > 0 {
		scale(t2n, 1/m)
	}

	f.setTn(i, t1n)
	f.setTn(j, t2n)
	e.doubles[i] = double(s.Tn[i], nil)
	e.doubles[j] = double(s.Tn[j], nil)
}

// bondEnvironment contracts the environment of the bond from i to j with the
// ket and bra isometries, leaving the four q legs
// {q1 ket, q1 bra, q2 ket, q2 bra}, hermitized over the ket bra exchange.
func bondEnvironment(e *ctm, f frame, i, j int, q1m, q2m, q1, q2 *tensor.Dense) *tensor.Dense {
	// Left half around the source site.
	a := prod(f.et(legLeft, i), f.c(0, i), [][2]int{{1, 0}})
	// a is of shape {el in, kl, bl, c1 out}.
	a = prod(a, f.et(legTop, i), [][2]int{{3, 0}})
	// a is of shape {el in, kl, bl, et out, kt, bt}.
	a = prod(a, q1, [][2]int{{1, 0}, {4, 1}})
	// a is of shape {el in, bl, et out, bt, kb, kq}.
	a = prod(a, f.c(3, i), [][2]int{{0, 1}})
	// a is of shape {bl, et out, bt, kb, kq, c4 in}.
	a = prod(a, f.et(legBottom, i), [][2]int{{5, 1}, {3, 2}})
	// a is of shape {bl, et out, bt, kq, eb in, bb}.
	a = permute(a, 0, 2, 5, 1, 3, 4)
	sa := a.Shape()
	a = a.Reshape(sa[0]*sa[1]*sa[2], sa[3], sa[4], sa[5])
	lh := prod(clone(q1m.Conj()), a, [][2]int{{0, 0}})
	// lh is of shape {bq, et out, kq, eb in}.
	lh = permute(lh, 1, 2, 0, 3)

	// Right half around the target site.
	b := prod(f.et(legTop, j), f.c(1, j), [][2]int{{1, 0}})
	// b is of shape {et in, kt, bt, c2 out}.
	b = prod(b, f.et(legRight, j), [][2]int{{3, 0}})
	// b is of shape {et in, kt, bt, er out, kr, br}.
	b = prod(b, q2, [][2]int{{1, 0}, {4, 1}})
	// b is of shape {et in, bt, er out, br, kb, kq}.
	b = prod(b, f.c(2, j), [][2]int{{2, 0}})
	// b is of shape {et in, bt, br, kb, kq, c3 out}.
	b = prod(b, f.et(legBottom, j), [][2]int{{5, 0}, {3, 2}})
	// b is of shape {et in, bt, br, kq, eb out, bb}.
	b = permute(b, 1, 2, 5, 0, 3, 4)
	sb := b.Shape()
	b = b.Reshape(sb[0]*sb[1]*sb[2], sb[3], sb[4], sb[5])
	rh := prod(clone(q2m.Conj()), b, [][2]int{{0, 0}})
	// rh is of shape {bq, et in, kq, eb out}.
	rh = permute(rh, 1, 2, 0, 3)

	n := prod(lh, rh, [][2]int{{0, 0}, {3, 3}})
	// n is of shape {q1 ket, q1 bra, q2 ket, q2 bra}.

	// Hermitize over the ket bra exchange.
	sn := n.Shape()
	nm := permute(n, 1, 3, 0, 2).Reshape(sn[0]*sn[2], sn[0]*sn[2])
	nh := clone(nm.H())
	for ijk, v := range nm.All() {
		nm.SetAt(ijk, (v+nh.At(ijk...))*complex(0.5, 0))
	}
	return nm.Reshape(sn[0], sn[2], sn[0], sn[2])
}
