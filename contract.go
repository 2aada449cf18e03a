package peps

import (
	"math"

	"github.com/fumin/tensor"
)

// prod contracts a and b over axes into a fresh tensor.
func prod(a, b *tensor.Dense, axes [][2]int) *tensor.Dense {
	return tensor.Contract(tensor.Zeros(1), a, b, axes)
}

func clone(src *tensor.Dense) *tensor.Dense {
	dst := tensor.Zeros(1)
	shape := src.Shape()
	dst.Reset(shape...).Set(make([]int, len(shape)), src)
	return dst
}

// permute materializes a transposed copy of a.
func permute(a *tensor.Dense, perm ...int) *tensor.Dense {
	return clone(a.Transpose(perm...))
}

// trace is the matrix trace of a square rank 2 tensor.
func trace(m *tensor.Dense) complex64 {
	var sum complex64
	for i := range m.Shape()[0] {
		sum += m.At(i, i)
	}
	return sum
}

func maxAbs(t *tensor.Dense) float64 {
	var m float64
	for _, v := range t.All() {
		a := math.Hypot(float64(real(v)), float64(imag(v)))
		if a > m {
			m = a
		}
	}
	return m
}

// scale multiplies t in place by s.
func scale(t *tensor.Dense, s float64) {
	for ijk, v := range t.All() {
		t.SetAt(ijk, v*complex(float32(s), 0))
	}
}

// scaleAxis multiplies t in place by the weights w along the given axis.
func scaleAxis(t *tensor.Dense, axis int, w []float64) {
	for ijk, v := range t.All() {
		t.SetAt(ijk, v*complex(float32(w[ijk[axis]]), 0))
	}
}

// relDiff is the norm of a minus b relative to the norm of b.
func relDiff(a, b *tensor.Dense) float64 {
	var diff, norm float64
	for ijk, av := range a.All() {
		bv := b.At(ijk...)
		d := av - bv
		diff += float64(real(d)*real(d) + imag(d)*imag(d))
		norm += float64(real(bv)*real(bv) + imag(bv)*imag(bv))
	}
	if norm == 0 {
		return math.Sqrt(diff)
	}
	return math.Sqrt(diff / norm)
}

// sqrtWeights is the element wise square root of lambda.
func sqrtWeights(lambda []float64) []float64 {
	w := make([]float64, len(lambda))
	for i, v := range lambda {
		w[i] = math.Sqrt(v)
	}
	return w
}

// invSqrtWeights is the element wise inverse square root of lambda, treating
// values not above cut as zero.
func invSqrtWeights(lambda []float64, cut float64) []float64 {
	w := make([]float64, len(lambda))
	for i, v := range lambda {
		if v > cut {
			w[i] = 1 / math.Sqrt(v)
		}
	}
	return w
}

// double builds the ket bra double layer tensor of tn, with the physical
// legs contracted through the optional operator op of axes {bra, ket}.
// The result has the four fused axes {left, top, right, bottom}, each
// combining ket and bra ket major.
func double(tn, op *tensor.Dense) *tensor.Dense {
	var t *tensor.Dense
	if op == nil {
		t = prod(clone(tn.Conj()), tn, [][2]int{{4, 4}})
	} else {
		// Contract the operator's bra index with the conjugate layer.
		t = prod(prod(clone(tn.Conj()), op, [][2]int{{4, 0}}), tn, [][2]int{{4, 4}})
	}
	// t is of shape {bl, bt, br, bb, kl, kt, kr, kb}.
	t = permute(t, 4, 0, 5, 1, 6, 2, 7, 3)
	sh := t.Shape()
	return t.Reshape(sh[0]*sh[1], sh[2]*sh[3], sh[4]*sh[5], sh[6]*sh[7])
}

// fused is the edge e with its ket and bra legs combined.
func fused(e *tensor.Dense) *tensor.Dense {
	sh := e.Shape()
	return e.Reshape(sh[0], sh[1], sh[2]*sh[3])
}

// deltaVec is the vector tracing a fused ket bra leg of dimension v*v.
func deltaVec(v int) *tensor.Dense {
	d := tensor.Zeros(v * v)
	for k := range v {
		d.SetAt([]int{k*v + k}, 1)
	}
	return d
}

// padTo embeds t into a zero tensor of the given shape, cropping axes that
// are larger than the target.
func padTo(t *tensor.Dense, shape ...int) *tensor.Dense {
	out := tensor.Zeros(shape...)
	ts := t.Shape()
	lim := make([][2]int, len(shape))
	for i := range lim {
		lim[i] = [2]int{0, min(ts[i], shape[i])}
	}
	out.Set(make([]int, len(shape)), clone(t.Slice(lim)))
	return out
}

// contractPatch contracts a nrow by ncol window of double layer tensors d
// with its surrounding environment. The corners c run clockwise from the top
// left. The edges et, eb are indexed by column, and el, er by row, with row 0
// at the top. All edges are fused.
//
// The contraction sweeps a boundary from the top down. After absorbing each
// row, the boundary has shape {chi left, m column 0, ..., m column ncol-1,
// chi right} with the m legs pointing down.
func contractPatch(c [4]*tensor.Dense, et, eb, el, er []*tensor.Dense, d [][]*tensor.Dense) complex64 {
	nrow, ncol := len(el), len(et)

	// Top boundary c1, et[0], ..., et[ncol-1], c2.
	b := c[0]
	for col := range ncol {
		b = prod(b, et[col], [][2]int{{max(col, 1), 0}})
	}
	b = prod(b, c[1], [][2]int{{ncol, 0}})

	for row := range nrow {
		// b is of shape {el in, m running, m cols, ..., chi right}.
		b = prod(el[row], b, [][2]int{{1, 0}})
		for col := range ncol {
			run := 1
			if col > 0 {
				run = len(b.Shape()) - 2
			}
			top := 2
			if col > 0 {
				top = 1
			}
			b = prod(b, d[row][col], [][2]int{{run, 0}, {top, 1}})
		}
		rank := len(b.Shape())
		b = prod(b, er[row], [][2]int{{1, 0}, {rank - 2, 2}})
	}

	// Close with the bottom boundary c3, eb[ncol-1], ..., eb[0], c4.
	b = prod(b, c[2], [][2]int{{ncol + 1, 0}})
	for col := ncol - 1; col >= 0; col-- {
		b = prod(b, eb[col], [][2]int{{col + 2, 0}, {col + 1, 2}})
	}
	return trace(prod(b, c[3], [][2]int{{1, 0}}))
}
