package peps

import (
	"github.com/fumin/tensor"
)

// Operator is an observable evaluated by Simulator.Measure.
//
// A one site operator acts on SourceSite with Dx = Dy = 0, and Op is a matrix
// over the site's physical index with axes {bra, ket}.
//
// A two site operator acts on SourceSite and the site displaced by (Dx, Dy).
// It either carries a dense Op of axes {bra1, bra2, ket1, ket2}, or, when Op
// is nil, refers through OpsIndices to two one site operators whose product it
// measures.
type Operator struct {
	// Group identifies the observable. When two site operators share a group
	// and bond placement, the last configured one wins.
	Group      int
	SourceSite int
	Dx         int
	Dy         int
	Op         *tensor.Dense
	OpsIndices []int
}

// NNOperator is a nearest neighbor two site operator used by the imaginary
// time evolution engines. Op has axes {bra1, bra2, ket1, ket2}, where slot 1
// is SourceSite and slot 2 the site across SourceLeg.
type NNOperator struct {
	SourceSite int
	SourceLeg  int
	Op         *tensor.Dense
}

// CorrelationParameter configures the long range correlation engine.
// Correlations are measured along the +x and +y axes up to distance RMax,
// for every {left, right} pair in Operators, which index into the one site
// operator list.
type CorrelationParameter struct {
	RMax      int
	Operators [][2]int
}

// Correlation is one measured long range correlation
// <A(left) B(right)>, with right = left + offset*size + (dx, dy).
type Correlation struct {
	LeftIndex  int
	RightIndex int
	OffsetX    int
	OffsetY    int
	LeftOp     int
	RightOp    int
	Real       float64
	Imag       float64
}

// Bond identifies a two site observable placement by its source site and
// displacement.
type Bond struct {
	SourceSite int
	Dx         int
	Dy         int
}
