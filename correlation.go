package peps

import (
	"slices"

	"github.com/fumin/tensor"
)

// measureCorrelation evaluates long range correlations along the +x and +y
// axes up to distance RMax, by sweeping a boundary tensor across the lattice.
// The boundary of the norm is swept in parallel with the identity instead of
// the left operator, so that value and norm always close over the same
// window.
func measureCorrelation(e *ctm, onesite []Operator, prm CorrelationParameter) []Correlation {
	if prm.RMax <= 0 {
		return nil
	}
	lat := e.s.Lattice

	// rightOps[g] are the partner groups measured against left group g,
	// so that all partners share one boundary sweep.
	rightOps := map[int][]int{}
	var leftGroups []int
	for _, pair := range prm.Operators {
		if _, ok := rightOps[pair[0]]; !ok {
			leftGroups = append(leftGroups, pair[0])
		}
		if !slices.Contains(rightOps[pair[0]], pair[1]) {
			rightOps[pair[0]] = append(rightOps[pair[0]], pair[1])
		}
	}

	var out []Correlation
	for _, vertical := range []bool{false, true} {
		k := 0
		if vertical {
			// View the lattice rotated so that the +y axis becomes the
			// horizontal sweep direction.
			k = 3
		}
		f := newFrame(e.s, k)
		for left := range lat.NUnit() {
			for _, lg := range leftGroups {
				lop := onesiteAt(onesite, lg, left)
				if lop == nil {
					continue
				}
				bop := startCorrelation(e, f, left, lop)
				bnorm := startCorrelation(e, f, left, nil)

				for r := range prm.RMax {
					d := r + 1
					var right, offsetX, offsetY int
					if vertical {
						right = lat.Index(lat.X(left), (lat.Y(left)+d)%lat.LY)
						offsetY = (lat.Y(left) + d) / lat.LY
					} else {
						right = lat.Index((lat.X(left)+d)%lat.LX, lat.Y(left))
						offsetX = (lat.X(left) + d) / lat.LX
					}

					nrm := finishCorrelation(e, f, bnorm, right, nil)
					for _, rg := range rightOps[lg] {
						rop := onesiteAt(onesite, rg, right)
						if rop == nil {
							continue
						}
						v := finishCorrelation(e, f, bop, right, rop) / nrm
						out = append(out, Correlation{
							LeftIndex:  left,
							RightIndex: right,
							OffsetX:    offsetX,
							OffsetY:    offsetY,
							LeftOp:     lg,
							RightOp:    rg,
							Real:       float64(real(v)),
							Imag:       float64(imag(v)),
						})
					}

					bop = transferCorrelation(e, f, bop, right)
					bnorm = transferCorrelation(e, f, bnorm, right)
				}
			}
		}
	}
	return out
}

// startCorrelation closes the left environment of site i around its double
// layer tensor, carrying op. The boundary has axes
// {chi top, chi bottom, m}, with m the fused bond toward the next site.
func startCorrelation(e *ctm, f frame, i int, op *tensor.Dense) *tensor.Dense {
	d := e.frameDouble(f, i)
	if op != nil {
		d = double(clone(f.tn(i)), op)
	}

	a := prod(fused(f.et(legLeft, i)), f.c(0, i), [][2]int{{1, 0}})
	// a is of shape {el in, ml, c1 out}.
	a = prod(a, fused(f.et(legTop, i)), [][2]int{{2, 0}})
	// a is of shape {el in, ml, et out, mt}.
	a = prod(a, d, [][2]int{{1, 0}, {3, 1}})
	// a is of shape {el in, et out, dr, db}.
	a = prod(a, f.c(3, i), [][2]int{{0, 1}})
	// a is of shape {et out, dr, db, c4 in}.
	a = prod(a, fused(f.et(legBottom, i)), [][2]int{{3, 1}, {2, 2}})
	// a is of shape {et out, dr, eb in}.
	return permute(a, 0, 2, 1)
}

// transferCorrelation absorbs the column of site i into the boundary.
func transferCorrelation(e *ctm, f frame, b *tensor.Dense, i int) *tensor.Dense {
	t := prod(b, fused(f.et(legTop, i)), [][2]int{{0, 0}})
	// t is of shape {chi bottom, m, et out, mt}.
	t = prod(t, e.frameDouble(f, i), [][2]int{{1, 0}, {3, 1}})
	// t is of shape {chi bottom, et out, dr, db}.
	t = prod(t, fused(f.et(legBottom, i)), [][2]int{{0, 1}, {3, 2}})
	// t is of shape {et out, dr, eb in}.
	return permute(t, 0, 2, 1)
}

// finishCorrelation closes the boundary with the right environment of site i,
// carrying op.
func finishCorrelation(e *ctm, f frame, b *tensor.Dense, i int, op *tensor.Dense) complex64 {
	d := e.frameDouble(f, i)
	if op != nil {
		d = double(clone(f.tn(i)), op)
	}

	t := prod(b, fused(f.et(legTop, i)), [][2]int{{0, 0}})
	// t is of shape {chi bottom, m, et out, mt}.
	t = prod(t, d, [][2]int{{1, 0}, {3, 1}})
	// t is of shape {chi bottom, et out, dr, db}.
	t = prod(t, f.c(1, i), [][2]int{{1, 0}})
	// t is of shape {chi bottom, dr, db, c2 out}.
	t = prod(t, fused(f.et(legRight, i)), [][2]int{{3, 0}, {1, 2}})
	// t is of shape {chi bottom, db, er out}.
	t = prod(t, f.c(2, i), [][2]int{{2, 0}})
	// t is of shape {chi bottom, db, c3 out}.
	t = prod(t, fused(f.et(legBottom, i)), [][2]int{{2, 0}, {1, 2}})
	// t is of shape {chi bottom, eb out}.
	return trace(t)
}
