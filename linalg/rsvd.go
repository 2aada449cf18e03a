package linalg

import (
	"math/rand/v2"

	"github.com/fumin/tensor"
)

// RSVD computes a randomized truncated singular value decomposition keeping
// the k largest triplets, probing the range of a with k*oversample random
// vectors.
//
// References:
//   - Finding Structure with Randomness, Halko, Martinsson and Tropp.
func RSVD(rng *rand.Rand, a *tensor.Dense, k, oversample int) (*tensor.Dense, []float64, *tensor.Dense) {
	shape := a.Shape()
	m, n := shape[0], shape[1]
	l := min(n, m, k*oversample)
	if l < 1 {
		l = 1
	}

	// omega is a random Gaussian test matrix.
	omega := tensor.Zeros(n, l)
	for ijk := range omega.All() {
		v := complex(float32(rng.NormFloat64()), float32(rng.NormFloat64()))
		omega.SetAt(ijk, v)
	}

	// Orthonormalize y = a @ omega.
	y := tensor.Contract(tensor.Zeros(1), a, omega, [][2]int{{1, 0}})
	q := tensor.Zeros(1)
	bufs := [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)}
	tensor.QR(q, y, bufs)

	// b = q.H @ a is small, and has approximately the same spectrum as a.
	b := tensor.Contract(tensor.Zeros(1), clone(q.H()), a, [][2]int{{1, 0}})
	ub, s, vh := SVD(b)

	u := tensor.Contract(tensor.Zeros(1), q, ub, [][2]int{{1, 0}})
	if k >= len(s) {
		return u, s, vh
	}
	uk := clone(u.Slice([][2]int{{0, m}, {0, k}}))
	vhk := clone(vh.Slice([][2]int{{0, k}, {0, n}}))
	return uk, s[:k], vhk
}
