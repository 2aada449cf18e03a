package peps

import (
	"log"
	"math"
	"math/rand/v2"

	"github.com/fumin/tensor"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/peps/linalg"
)

// ctm computes the corner transfer matrix environment of a state.
//
// The environment is renormalized by the corner method: for every cut between
// two rows, the two extended corners enclosing the cut are multiplied, and
// the singular vectors of the product define a pair of oblique projectors
// that truncate the cut back to CHI.
//
// References:
//   - Corboz, Rice and Troyer, Competing states in the t-J model: uniform
//     d-wave state versus stripe state.
type ctm struct {
	s   *State
	p   Parameters
	rng *rand.Rand

	// doubles[i] is the identity double layer tensor of site i.
	doubles []*tensor.Dense
}

func newCTM(s *State, p Parameters, rng *rand.Rand) *ctm {
	e := &ctm{s: s, p: p, rng: rng}
	e.doubles = make([]*tensor.Dense, s.Lattice.NUnit())
	for i := range e.doubles {
		e.doubles[i] = double(s.Tn[i], nil)
	}
	return e
}

// frameDouble is the double layer tensor of store site i in frame leg order.
func (e *ctm) frameDouble(f frame, i int) *tensor.Dense {
	k := f.k
	return permute(e.doubles[i], k%nleg, (1+k)%nleg, (2+k)%nleg, (3+k)%nleg)
}

// init seeds the environment from the double layer tensors of the
// diagonally adjacent sites, with the outward legs traced and the remaining
// legs zero padded to CHI.
func (e *ctm) init() {
	s, lat := e.s, e.s.Lattice
	chi := s.CHI
	for i := range lat.NUnit() {
		vd := func(j int) [nleg]int { return lat.VirtualDims[j] }

		// Corners, clockwise from the top left.
		j := lat.Other(i, -1, 1)
		c1 := traceLegs(e.doubles[j], [][2]int{{legLeft, vd(j)[legLeft]}, {legTop, vd(j)[legTop]}})
		s.C[0][i] = padTo(permute(c1, 1, 0), chi, chi)

		j = lat.Other(i, 1, 1)
		c2 := traceLegs(e.doubles[j], [][2]int{{legTop, vd(j)[legTop]}, {legRight, vd(j)[legRight]}})
		s.C[1][i] = padTo(c2, chi, chi)

		j = lat.Other(i, 1, -1)
		c3 := traceLegs(e.doubles[j], [][2]int{{legRight, vd(j)[legRight]}, {legBottom, vd(j)[legBottom]}})
		s.C[2][i] = padTo(permute(c3, 1, 0), chi, chi)

		j = lat.Other(i, -1, -1)
		c4 := traceLegs(e.doubles[j], [][2]int{{legLeft, vd(j)[legLeft]}, {legBottom, vd(j)[legBottom]}})
		s.C[3][i] = padTo(permute(c4, 1, 0), chi, chi)

		// Edges. The traced double of the neighbor across leg d is
		// rearranged to {chi in, chi out, m} with the chi legs clockwise.
		j = lat.Other(i, 0, 1)
		et := traceLegs(e.doubles[j], [][2]int{{legTop, vd(j)[legTop]}})
		v := vd(j)[legBottom]
		s.ET[legTop][i] = padTo(et, chi, chi, v*v).Reshape(chi, chi, v, v)

		j = lat.Other(i, 1, 0)
		er := permute(traceLegs(e.doubles[j], [][2]int{{legRight, vd(j)[legRight]}}), 1, 2, 0)
		v = vd(j)[legLeft]
		s.ET[legRight][i] = padTo(er, chi, chi, v*v).Reshape(chi, chi, v, v)

		j = lat.Other(i, 0, -1)
		eb := permute(traceLegs(e.doubles[j], [][2]int{{legBottom, vd(j)[legBottom]}}), 2, 0, 1)
		v = vd(j)[legTop]
		s.ET[legBottom][i] = padTo(eb, chi, chi, v*v).Reshape(chi, chi, v, v)

		j = lat.Other(i, -1, 0)
		el := permute(traceLegs(e.doubles[j], [][2]int{{legLeft, vd(j)[legLeft]}}), 2, 0, 1)
		v = vd(j)[legRight]
		s.ET[legLeft][i] = padTo(el, chi, chi, v*v).Reshape(chi, chi, v, v)
	}
}

// traceLegs traces the listed fused legs of a double layer tensor.
// Legs are given in ascending axis order together with their unfused
// dimension.
func traceLegs(d *tensor.Dense, legs [][2]int) *tensor.Dense {
	t := d
	for k, leg := range legs {
		// Every previous trace removed one axis before this one.
		t = prod(t, deltaVec(leg[1]), [][2]int{{leg[0] - k, 0}})
	}
	return t
}

// run iterates directional moves until the corner spectra stop moving.
func (e *ctm) run() error {
	var prev []float64
	for iter := range e.p.MaxCTMIteration {
		for _, k := range []int{0, 2, 1, 3} {
			f := newFrame(e.s, k)
			for x := range f.lx() {
				e.leftMove(f, x)
			}
		}

		spec := e.cornerSpectra()
		if prev != nil {
			d := floats.Distance(spec, prev, 1) / float64(len(spec))
			if e.p.PrintLevel >= 2 {
				log.Printf("environment iteration %d, residual %g", iter, d)
			}
			if d < e.p.CTMEpsilon {
				return nil
			}
		}
		prev = spec
	}
	if e.p.PrintLevel >= 1 {
		log.Printf("environment loop hit the iteration limit %d", e.p.MaxCTMIteration)
	}
	return nil
}

// cornerSpectra is the concatenated normalized singular value spectrum of
// every corner tensor.
func (e *ctm) cornerSpectra() []float64 {
	var spec []float64
	for j := range nleg {
		for i := range e.s.Lattice.NUnit() {
			_, sv, _ := linalg.SVD(e.s.C[j][i])
			if nrm := floats.Norm(sv, 2); nrm > 0 {
				floats.Scale(1/nrm, sv)
			}
			spec = append(spec, sv...)
		}
	}
	return spec
}

// leftMove absorbs frame column x into the environment of column x+1.
func (e *ctm) leftMove(f frame, x int) {
	s := e.s
	chi := s.CHI
	ly := f.ly()

	// Projectors for the cut between rows y and y+1.
	p1s := make([]*tensor.Dense, ly)
	p2s := make([]*tensor.Dense, ly)
	for y := range ly {
		p1s[y], p2s[y] = e.projectors(f, f.site(x, y+1), f.site(x, y))
	}

	type staged struct {
		c1, el, c4 *tensor.Dense
	}
	news := make([]staged, ly)
	for y := range ly {
		i := f.site(x, y)
		ym1 := (y - 1 + ly) % ly
		vt := f.virtualDim(i, legTop)
		vb := f.virtualDim(i, legBottom)
		vr := f.virtualDim(i, legRight)

		// New top left corner: absorb the top edge, then project the cut.
		n1 := prod(f.c(0, i), fused(f.et(legTop, i)), [][2]int{{1, 0}})
		// n1 is of shape {c1 in, et out, mt}.
		n1 = permute(n1, 0, 2, 1).Reshape(chi*vt*vt, chi)
		c1 := permute(prod(n1, p2s[y], [][2]int{{0, 0}}), 1, 0)

		// New left edge: absorb the double layer, then project both cuts.
		el := prod(fused(f.et(legLeft, i)), e.frameDouble(f, i), [][2]int{{2, 0}})
		// el is of shape {el in, el out, dt, dr, db}.
		el = permute(el, 1, 2, 0, 4, 3).Reshape(chi*vt*vt, chi, vb*vb, vr*vr)
		el = prod(p1s[y], el, [][2]int{{1, 0}})
		// el is of shape {chi up, el in, db, dr}.
		el = permute(el, 1, 2, 0, 3).Reshape(chi*vb*vb, chi, vr*vr)
		el = prod(el, p2s[ym1], [][2]int{{0, 0}})
		// el is of shape {chi up, dr, chi down}.
		el = permute(el, 2, 0, 1).Reshape(chi, chi, vr, vr)

		// New bottom left corner.
		n4 := prod(fused(f.et(legBottom, i)), f.c(3, i), [][2]int{{1, 0}})
		// n4 is of shape {eb in, mb, c4 out}.
		n4 = permute(n4, 2, 1, 0).Reshape(chi*vb*vb, chi)
		c4 := permute(prod(p1s[ym1], n4, [][2]int{{1, 0}}), 1, 0)

		// Normalize, since the magnitude of the environment compounds
		// with every absorbed column.
		for _, t := range []*tensor.Dense{c1, el, c4} {
			if m := maxAbs(t); m > 0 {
				scale(t, 1/m)
			}
		}

		news[y] = staged{c1: c1, el: el, c4: c4}
	}

	// Commit after the whole column is computed, since every new tensor
	// reads the environment of the old column.
	for y := range ly {
		ip := f.site(x+1, y)
		f.setC(0, ip, news[y].c1)
		f.setET(legLeft, ip, news[y].el)
		f.setC(3, ip, news[y].c4)
	}
}

// projectors builds the truncation pair for the cut between site iU, just
// above the cut, and site iD just below. The pair multiplies to the identity
// on the kept CHI dimensional subspace.
func (e *ctm) projectors(f frame, iU, iD int) (*tensor.Dense, *tensor.Dense) {
	chi := e.s.CHI

	// Extended top left corner of iU, as a matrix from the cut below it.
	t := prod(fused(f.et(legLeft, iU)), f.c(0, iU), [][2]int{{1, 0}})
	// t is of shape {el in, ml, c1 out}.
	t = prod(t, fused(f.et(legTop, iU)), [][2]int{{2, 0}})
	// t is of shape {el in, ml, et out, mt}.
	t = prod(t, e.frameDouble(f, iU), [][2]int{{1, 0}, {3, 1}})
	// t is of shape {el in, et out, dr, db}.
	vrU := f.virtualDim(iU, legRight)
	vbU := f.virtualDim(iU, legBottom)
	mu := permute(t, 1, 2, 0, 3).Reshape(chi*vrU*vrU, chi*vbU*vbU)

	// Extended bottom left corner of iD, as a matrix into the cut above it.
	b := prod(fused(f.et(legBottom, iD)), f.c(3, iD), [][2]int{{1, 0}})
	// b is of shape {eb in, mb, c4 out}.
	b = prod(b, fused(f.et(legLeft, iD)), [][2]int{{2, 0}})
	// b is of shape {eb in, mb, el out, ml}.
	b = prod(b, e.frameDouble(f, iD), [][2]int{{1, 3}, {3, 0}})
	// b is of shape {eb in, el out, dt, dr}.
	vtD := f.virtualDim(iD, legTop)
	vrD := f.virtualDim(iD, legRight)
	ml := permute(b, 1, 2, 0, 3).Reshape(chi*vtD*vtD, chi*vrD*vrD)

	m := prod(mu, ml, [][2]int{{1, 0}})
	var u, vh *tensor.Dense
	var sv []float64
	if e.p.UseRSVD {
		u, sv, vh = linalg.RSVD(e.rng, m, chi, e.p.RSVDOversampling)
	} else {
		u, sv, vh = linalg.TruncatedSVD(m, chi)
	}

	w := make([]float64, len(sv))
	for i, v := range sv {
		if v > e.p.InverseProjectorCut*sv[0] && v > 0 {
			w[i] = 1 / math.Sqrt(v)
		}
	}

	p1 := prod(clone(u.H()), mu, [][2]int{{1, 0}})
	scaleAxis(p1, 0, w)
	p2 := prod(ml, clone(vh.H()), [][2]int{{1, 0}})
	scaleAxis(p2, 1, w)
	return p1, p2
}
