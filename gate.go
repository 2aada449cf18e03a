package peps

import (
	"math"

	"github.com/fumin/tensor"
	"gonum.org/v1/gonum/mat"
)

// PauliX is the Pauli X matrix.
func PauliX() *tensor.Dense {
	return tensor.T2([][]complex64{{0, 1}, {1, 0}})
}

// PauliY is the Pauli Y matrix.
func PauliY() *tensor.Dense {
	return tensor.T2([][]complex64{{0, -1i}, {1i, 0}})
}

// PauliZ is the Pauli Z matrix.
func PauliZ() *tensor.Dense {
	return tensor.T2([][]complex64{{1, 0}, {0, -1}})
}

// Identity is the d dimensional identity matrix.
func Identity(d int) *tensor.Dense {
	t := tensor.Zeros(d, d)
	for i := range d {
		t.SetAt([]int{i, i}, 1)
	}
	return t
}

// TwoSiteOperator reshapes a d1*d2 square matrix into a two site operator of
// axes {bra1, bra2, ket1, ket2}.
func TwoSiteOperator(m *tensor.Dense, d1, d2 int) *tensor.Dense {
	return clone(m).Reshape(d1, d2, d1, d2)
}

// EvolutionGate is the imaginary time evolution gate exp(-tau*h) of a
// symmetric two site Hamiltonian term h over local dimensions d1 and d2,
// as a two site operator of axes {bra1, bra2, ket1, ket2}.
func EvolutionGate(h *mat.SymDense, tau float64, d1, d2 int) *tensor.Dense {
	n := d1 * d2

	var eig mat.EigenSym
	if ok := eig.Factorize(h, true); !ok {
		panic("eigendecomposition failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	g := tensor.Zeros(n, n)
	for i := range n {
		for j := range n {
			var sum float64
			for k := range n {
				sum += vecs.At(i, k) * math.Exp(-tau*vals[k]) * vecs.At(j, k)
			}
			g.SetAt([]int{i, j}, complex(float32(sum), 0))
		}
	}
	return g.Reshape(d1, d2, d1, d2)
}
