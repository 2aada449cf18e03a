// Package linalg implements dense matrix decompositions for complex tensors.
//
// The underlying tensor kernel provides QR and Arnoldi but no singular value
// decomposition, and gonum's SVD is real-only, so the SVD here is a one-sided
// Jacobi on the columns. Accumulation is done in complex128 and results are
// written back as complex64.
//
// References:
//   - Matrix Computations, Golub and Van Loan, section 8.6.3 Jacobi SVD.
package linalg

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/fumin/tensor"
)

const (
	// jacobiTol is the relative off-diagonal tolerance deciding convergence.
	jacobiTol = 1e-14
	// jacobiMaxSweeps bounds the number of full Jacobi sweeps.
	jacobiMaxSweeps = 64
)

// SVD computes the economy singular value decomposition a = u @ diag(s) @ vh.
// For an m by n matrix with m >= n, u is m by n and vh is n by n.
// Singular values are sorted in descending order; equal values keep their
// pre-sort column order.
func SVD(a *tensor.Dense) (*tensor.Dense, []float64, *tensor.Dense) {
	shape := a.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("%#v", shape))
	}
	m, n := shape[0], shape[1]

	if m < n {
		// a.H = v @ diag(s) @ u.H.
		v, s, uh := SVD(clone(a.H()))
		return clone(uh.H()), s, clone(v.H())
	}

	// cols[j] is the j-th column of a.
	cols := make([][]complex128, n)
	for j := range n {
		cols[j] = make([]complex128, m)
		for i := range m {
			cols[j][i] = complex128(a.At(i, j))
		}
	}
	// v accumulates the right rotations, starting from the identity.
	v := make([][]complex128, n)
	for j := range n {
		v[j] = make([]complex128, n)
		v[j][j] = 1
	}

	jacobi(cols, v, m, n)

	// Singular values are the column norms.
	s := make([]float64, n)
	for j := range n {
		s[j] = norm2(cols[j])
	}
	perm := make([]int, n)
	for j := range perm {
		perm[j] = j
	}
	sort.SliceStable(perm, func(x, y int) bool { return s[perm[x]] > s[perm[y]] })

	u := tensor.Zeros(m, n)
	vh := tensor.Zeros(n, n)
	sorted := make([]float64, n)
	for j, pj := range perm {
		sorted[j] = s[pj]
		if sorted[j] > 0 {
			inv := complex(1/sorted[j], 0)
			for i := range m {
				u.SetAt([]int{i, j}, complex64(cols[pj][i]*inv))
			}
		}
		for i := range n {
			vh.SetAt([]int{j, i}, complex64(cmplx.Conj(v[pj][i])))
		}
	}
	return u, sorted, vh
}

// TruncatedSVD keeps the k largest singular triplets.
func TruncatedSVD(a *tensor.Dense, k int) (*tensor.Dense, []float64, *tensor.Dense) {
	u, s, vh := SVD(a)
	n := len(s)
	if k >= n {
		return u, s, vh
	}
	m := u.Shape()[0]
	nv := vh.Shape()[1]
	uk := clone(u.Slice([][2]int{{0, m}, {0, k}}))
	vhk := clone(vh.Slice([][2]int{{0, k}, {0, nv}}))
	return uk, s[:k], vhk
}

// jacobi orthogonalizes the columns of cols by one-sided rotations,
// accumulating the same rotations into v.
func jacobi(cols, v [][]complex128, m, n int) {
	for range jacobiMaxSweeps {
		rotated := false
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				var alpha, beta float64
				var g complex128
				for i := range m {
					alpha += real(cols[p][i])*real(cols[p][i]) + imag(cols[p][i])*imag(cols[p][i])
					beta += real(cols[q][i])*real(cols[q][i]) + imag(cols[q][i])*imag(cols[q][i])
					g += cmplx.Conj(cols[p][i]) * cols[q][i]
				}
				ag := cmplx.Abs(g)
				if ag <= jacobiTol*math.Sqrt(alpha*beta) || alpha == 0 || beta == 0 {
					continue
				}
				rotated = true

				// Rotate the phase of column q so that g becomes real.
				phase := cmplx.Conj(g / complex(ag, 0))
				for i := range m {
					cols[q][i] *= phase
				}
				for i := range n {
					v[q][i] *= phase
				}

				zeta := (beta - alpha) / (2 * ag)
				t := math.Copysign(1, zeta) / (math.Abs(zeta) + math.Sqrt(1+zeta*zeta))
				c := 1 / math.Sqrt(1+t*t)
				s := c * t
				for i := range m {
					bp, bq := cols[p][i], cols[q][i]
					cols[p][i] = complex(c, 0)*bp - complex(s, 0)*bq
					cols[q][i] = complex(s, 0)*bp + complex(c, 0)*bq
				}
				for i := range n {
					vp, vq := v[p][i], v[q][i]
					v[p][i] = complex(c, 0)*vp - complex(s, 0)*vq
					v[q][i] = complex(s, 0)*vp + complex(c, 0)*vq
				}
			}
		}
		if !rotated {
			break
		}
	}
}

// PInvSolve returns x = pinv(a) @ b, where singular values below
// cut times the largest are treated as zero.
func PInvSolve(a, b *tensor.Dense, cut float64) *tensor.Dense {
	u, s, vh := SVD(a)

	// c = u.H @ b.
	c := tensor.Contract(tensor.Zeros(1), clone(u.H()), b, [][2]int{{1, 0}})
	cs := c.Shape()
	for i := range cs[0] {
		var inv complex64
		if s[i] > cut*s[0] && s[i] > 0 {
			inv = complex(float32(1/s[i]), 0)
		}
		for j := range cs[1] {
			c.SetAt([]int{i, j}, inv*c.At(i, j))
		}
	}

	return tensor.Contract(tensor.Zeros(1), clone(vh.H()), c, [][2]int{{1, 0}})
}

func norm2(x []complex128) float64 {
	var sum float64
	for _, v := range x {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(sum)
}

func clone(src *tensor.Dense) *tensor.Dense {
	dst := tensor.Zeros(1)
	shape := src.Shape()
	dst.Reset(shape...).Set(make([]int, len(shape)), src)
	return dst
}
