package peps

import (
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/peps/linalg"
)

// simpleUpdateStep applies one imaginary time evolution gate on a bond,
// approximating the environment of the bond by the mean fields on the
// surrounding legs.
//
// Both endpoint tensors absorb the square root of the mean field of every
// leg, so that the shared bond carries its full weight. After the gate, the
// pair is split back by a truncated SVD, whose spectrum becomes the new mean
// field of the bond, and the outer legs shed their absorbed weights again.
func simpleUpdateStep(s *State, p Parameters, g NNOperator) {
	// Rotate so that the bond points from frame left to frame right.
	f := newFrame(s, (g.SourceLeg+2)%nleg)
	i := g.SourceSite
	j := s.Lattice.Neighbor(i, g.SourceLeg)

	t1 := clone(f.tn(i))
	t2 := clone(f.tn(j))
	for _, d := range []int{legLeft, legTop, legRight, legBottom} {
		scaleAxis(t1, d, sqrtWeights(f.lambda(i, d)))
	}
	for _, d := range []int{legLeft, legTop, legRight, legBottom} {
		scaleAxis(t2, d, sqrtWeights(f.lambda(j, d)))
	}

	theta := prod(t1, t2, [][2]int{{2, 0}})
	// theta is of shape {l1, t1, b1, p1, t2, r2, b2, p2}.
	theta = prod(theta, g.Op, [][2]int{{3, 2}, {7, 3}})
	// theta is of shape {l1, t1, b1, t2, r2, b2, p1, p2}.
	theta = permute(theta, 0, 1, 2, 6, 3, 4, 5, 7)
	sh := theta.Shape()
	m := theta.Reshape(sh[0]*sh[1]*sh[2]*sh[3], sh[4]*sh[5]*sh[6]*sh[7])

	dim := f.virtualDim(i, legRight)
	u, lam, vh := linalg.TruncatedSVD(m, dim)
	if len(lam) < dim {
		u = padTo(u, u.Shape()[0], dim)
		vh = padTo(vh, dim, vh.Shape()[1])
		lam = append(lam, make([]float64, dim-len(lam))...)
	}
	if nrm := floats.Norm(lam, 2); nrm > 0 {
		floats.Scale(1/nrm, lam)
	}

	t1n := permute(u.Reshape(sh[0], sh[1], sh[2], sh[3], dim), 0, 1, 4, 2, 3)
	t2n := clone(vh.Reshape(dim, sh[4], sh[5], sh[6], sh[7]))
	for _, d := range []int{legLeft, legTop, legBottom} {
		scaleAxis(t1n, d, invSqrtWeights(f.lambda(i, d), p.InverseLambdaCut))
	}
	for _, d := range []int{legTop, legRight, legBottom} {
		scaleAxis(t2n, d, invSqrtWeights(f.lambda(j, d), p.InverseLambdaCut))
	}

	f.setTn(i, t1n)
	f.setTn(j, t2n)
	f.setLambda(i, legRight, lam)
}
