// Command run finds the ground state of the transverse field Ising model
// on the square lattice, and measures its magnetization, energy and
// correlations.
//
// The Hamiltonian is
//
//	H = -sum_ij sz_i sz_j - hx sum_i sx_i,
//
// where ij runs over nearest neighbor pairs. The field term is distributed
// evenly over the four bonds touching each site.
package main

import (
	"flag"
	"log"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/peps"
)

var (
	lx     = flag.Int("lx", 2, "unit cell width")
	ly     = flag.Int("ly", 2, "unit cell height")
	vdim   = flag.Int("D", 2, "virtual bond dimension")
	chi    = flag.Int("chi", 8, "environment bond dimension")
	hx     = flag.Float64("hx", 0.8, "transverse field")
	tau    = flag.Float64("tau", 0.01, "imaginary time step")
	simple = flag.Int("simple", 1000, "number of simple update steps")
	full   = flag.Int("full", 0, "number of full update steps")
	rmax   = flag.Int("rmax", 5, "maximum correlation distance")
	seed   = flag.Uint64("seed", 11, "random seed")
	outDir = flag.String("d", "output", "output directory")
	saveD  = flag.String("save", "", "tensor save directory")
	loadD  = flag.String("load", "", "tensor load directory")
)

// bondHamiltonian is the transverse field Ising term on one bond.
func bondHamiltonian(hx float64) *mat.SymDense {
	sz := [2][2]float64{{1, 0}, {0, -1}}
	sx := [2][2]float64{{0, 1}, {1, 0}}
	id := [2][2]float64{{1, 0}, {0, 1}}

	h := mat.NewSymDense(4, nil)
	for a := range 2 {
		for b := range 2 {
			for c := range 2 {
				for d := range 2 {
					v := -sz[a][c]*sz[b][d] - hx/4*(sx[a][c]*id[b][d]+id[a][c]*sx[b][d])
					h.SetSym(a*2+b, c*2+d, v)
				}
			}
		}
	}
	return h
}

func tensorFromSym(h *mat.SymDense) *tensor.Dense {
	n := h.SymmetricDim()
	t := tensor.Zeros(n, n)
	for i := range n {
		for j := range n {
			t.SetAt([]int{i, j}, complex(float32(h.At(i, j)), 0))
		}
	}
	return t
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	lat := peps.NewUniformLattice(*lx, *ly, 0, 2, *vdim, 0.01)

	p := peps.NewParameters()
	p.CHI = *chi
	p.Seed = *seed
	p.NumSimpleStep = *simple
	p.NumFullStep = *full
	p.OutDir = *outDir
	p.TensorSaveDir = *saveD
	p.TensorLoadDir = *loadD

	hbond := bondHamiltonian(*hx)
	gate := peps.EvolutionGate(hbond, *tau, 2, 2)
	hop := peps.TwoSiteOperator(tensorFromSym(hbond), 2, 2)

	var gates []peps.NNOperator
	var onesite, twosite []peps.Operator
	for i := range lat.NUnit() {
		// Legs 1 and 2 point to +y and +x. Together they cover every
		// bond of the lattice exactly once.
		for _, leg := range []int{1, 2} {
			gates = append(gates, peps.NNOperator{SourceSite: i, SourceLeg: leg, Op: gate})
		}

		onesite = append(onesite,
			peps.Operator{Group: 0, SourceSite: i, Op: peps.PauliZ()},
			peps.Operator{Group: 1, SourceSite: i, Op: peps.PauliX()})
		twosite = append(twosite,
			peps.Operator{Group: 0, SourceSite: i, Dx: 1, Dy: 0, Op: hop},
			peps.Operator{Group: 0, SourceSite: i, Dx: 0, Dy: 1, Op: hop})
	}

	opt := peps.NewSimulatorOptions().
		SimpleUpdates(gates).
		FullUpdates(gates).
		OnesiteOperators(onesite).
		TwositeOperators(twosite).
		Correlations(peps.CorrelationParameter{RMax: *rmax, Operators: [][2]int{{0, 0}, {1, 1}}})

	sim, err := peps.NewSimulator(p, lat, opt)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := sim.Optimize(); err != nil {
		return errors.Wrap(err, "")
	}
	if err := sim.SaveTensors(); err != nil {
		return errors.Wrap(err, "")
	}
	if err := sim.Measure(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
