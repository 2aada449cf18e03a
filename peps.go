// Package peps simulates two dimensional quantum lattice models with
// projected entangled pair states.
//
// The wavefunction is a network of site tensors on a periodically tiled
// unit cell, one rank five tensor per site with four virtual legs and one
// physical leg. Ground states are found by imaginary time evolution, either
// with the mean field environment (simple update) or with the corner
// transfer matrix environment (full update). Expectation values of one site,
// two site and long range observables are contracted against the converged
// corner transfer matrix environment.
//
// References:
//   - Orus and Vidal, Simulation of two-dimensional quantum systems on an
//     infinite lattice revisited: Corner transfer matrix for tensor
//     contraction.
//   - Jiang, Weng and Xiang, Accurate determination of tensor network state
//     of quantum lattice models in two dimensions.
package peps

import (
	"context"
	"log"
	"math/cmplx"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/peps/obsdb"
)

// Simulator optimizes a projected entangled pair state and measures its
// observables.
type Simulator struct {
	params  Parameters
	lattice Lattice
	workers *Group
	state   *State
	rng     *rand.Rand

	simpleUpdates []NNOperator
	fullUpdates   []NNOperator
	onesiteOps    []Operator
	twositeOps    []Operator
	corParam      CorrelationParameter

	env      *ctm
	envReady bool
	stats    RunStats
}

// SimulatorOptions is optional arguments to NewSimulator.
type SimulatorOptions struct {
	simple  []NNOperator
	full    []NNOperator
	onesite []Operator
	twosite []Operator
	cor     CorrelationParameter
	workers *Group
}

// NewSimulatorOptions returns the default options for NewSimulator.
func NewSimulatorOptions() *SimulatorOptions {
	return &SimulatorOptions{workers: Single()}
}

// SimpleUpdates sets the gates applied by the simple update.
func (o *SimulatorOptions) SimpleUpdates(gates []NNOperator) *SimulatorOptions {
	o.simple = gates
	return o
}

// FullUpdates sets the gates applied by the full update.
func (o *SimulatorOptions) FullUpdates(gates []NNOperator) *SimulatorOptions {
	o.full = gates
	return o
}

// OnesiteOperators sets the one site observables.
func (o *SimulatorOptions) OnesiteOperators(ops []Operator) *SimulatorOptions {
	o.onesite = ops
	return o
}

// TwositeOperators sets the two site observables.
// Group 0 is taken as the Hamiltonian terms when computing the energy.
func (o *SimulatorOptions) TwositeOperators(ops []Operator) *SimulatorOptions {
	o.twosite = ops
	return o
}

// Correlations sets the long range correlation parameters.
func (o *SimulatorOptions) Correlations(cor CorrelationParameter) *SimulatorOptions {
	o.cor = cor
	return o
}

// Workers sets the worker group sharing this simulation.
func (o *SimulatorOptions) Workers(g *Group) *SimulatorOptions {
	o.workers = g
	return o
}

// NewSimulator creates a simulator, restoring tensors from
// Parameters.TensorLoadDir if set, and otherwise initializing them randomly.
func NewSimulator(p Parameters, lat Lattice, opt *SimulatorOptions) (*Simulator, error) {
	if opt == nil {
		opt = NewSimulatorOptions()
	}
	sim := &Simulator{
		params:        p,
		lattice:       lat,
		workers:       opt.workers,
		simpleUpdates: opt.simple,
		fullUpdates:   opt.full,
		onesiteOps:    opt.onesite,
		twositeOps:    opt.twosite,
		corParam:      opt.cor,
	}
	seed := p.Seed + uint64(sim.workers.Rank())
	sim.rng = rand.New(rand.NewPCG(seed, seed))

	sim.state = newState(lat, p.CHI)
	if p.TensorLoadDir != "" {
		if err := sim.state.Load(p.TensorLoadDir); err != nil {
			return nil, errors.Wrap(err, "")
		}
		sim.envReady = true
	} else {
		randomInit(sim.state, seed)
	}
	return sim, nil
}

// Stats is the accumulated wall clock statistics of the simulation.
func (sim *Simulator) Stats() RunStats { return sim.stats }

// Optimize runs the configured simple and full update sweeps.
func (sim *Simulator) Optimize() error {
	if sim.params.NumSimpleStep > 0 && len(sim.simpleUpdates) > 0 {
		sim.simpleUpdate()
	}
	if sim.params.NumFullStep > 0 && len(sim.fullUpdates) > 0 {
		if err := sim.fullUpdate(); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

func (sim *Simulator) simpleUpdate() {
	start := time.Now()
	n := sim.params.NumSimpleStep
	for step := range n {
		for _, g := range sim.simpleUpdates {
			simpleUpdateStep(sim.state, sim.params, g)
		}
		sim.logProgress("simple update", step+1, n)
	}
	sim.stats.SimpleUpdate += time.Since(start).Seconds()
	sim.envReady = false
}

func (sim *Simulator) fullUpdate() error {
	if err := sim.ensureEnv(); err != nil {
		return errors.Wrap(err, "")
	}

	start := time.Now()
	var envSec float64
	n := sim.params.NumFullStep
	for step := range n {
		for _, g := range sim.fullUpdates {
			fullUpdateStep(sim.env, sim.params, g)

			t0 := time.Now()
			if sim.params.FastFullUpdate {
				fastRefresh(sim.env, g)
			} else {
				if err := sim.env.run(); err != nil {
					return errors.Wrap(err, "")
				}
			}
			envSec += time.Since(t0).Seconds()
		}
		sim.logProgress("full update", step+1, n)
	}
	sim.stats.FullUpdate += time.Since(start).Seconds() - envSec
	sim.stats.Environment += envSec
	return nil
}

// fastRefresh renormalizes only the rows or columns whose environment the
// bond of g has invalidated, one directional move from each side.
func fastRefresh(e *ctm, g NNOperator) {
	k := (g.SourceLeg + 2) % nleg
	i := g.SourceSite
	j := e.s.Lattice.Neighbor(i, g.SourceLeg)

	f := newFrame(e.s, k)
	e.leftMove(f, f.col(i))
	fo := newFrame(e.s, (k+2)%nleg)
	e.leftMove(fo, fo.col(j))
}

// ensureEnv converges the corner transfer matrix environment of the current
// tensors.
func (sim *Simulator) ensureEnv() error {
	t0 := time.Now()
	sim.env = newCTM(sim.state, sim.params, sim.rng)
	if !sim.envReady {
		sim.env.init()
	}
	err := sim.env.run()
	sim.envReady = true
	sim.stats.Environment += time.Since(t0).Seconds()
	return err
}

// SaveTensors saves the optimized tensors into Parameters.TensorSaveDir.
func (sim *Simulator) SaveTensors() error {
	if sim.params.TensorSaveDir == "" || !sim.workers.Primary() {
		return nil
	}
	return sim.state.Save(sim.params.TensorSaveDir)
}

// Measure evaluates all configured observables and writes the reports into
// Parameters.OutDir. The energy is the sum of the two site observables of
// group 0 per site.
func (sim *Simulator) Measure() error {
	if err := sim.ensureEnv(); err != nil {
		return errors.Wrap(err, "")
	}

	t0 := time.Now()
	onesite := measureOnesite(sim.env, sim.onesiteOps)
	twosite := measureTwosite(sim.env, sim.twositeOps, sim.onesiteOps)
	cors := measureCorrelation(sim.env, sim.onesiteOps, sim.corParam)

	var energy float64
	for _, v := range twosite[0] {
		energy += float64(real(v))
	}
	energy /= float64(sim.lattice.NUnit())
	energy = sim.workers.SumFloat64(energy) / float64(sim.workers.Size())

	// Per group one site observable densities, with unconfigured sites
	// left out of the sum.
	densities := make([]complex128, len(onesite))
	for g, sites := range onesite {
		for _, v := range sites {
			if cmplx.IsNaN(complex128(v)) {
				continue
			}
			densities[g] += complex128(v)
		}
		densities[g] /= complex(float64(sim.lattice.NUnit()), 0)
	}
	sim.stats.Observable += time.Since(t0).Seconds()

	if sim.params.PrintLevel >= 1 {
		log.Printf("energy = %.10g", energy)
	}
	if !sim.workers.Primary() {
		return nil
	}

	outDir := sim.params.OutDir
	if err := os.MkdirAll(outDir, 0775); err != nil {
		return errors.Wrap(err, "")
	}
	if err := saveOnesite(filepath.Join(outDir, "onesite_obs.dat"), onesite); err != nil {
		return errors.Wrap(err, "")
	}
	if err := saveTwosite(filepath.Join(outDir, "twosite_obs.dat"), twosite); err != nil {
		return errors.Wrap(err, "")
	}
	if err := saveCorrelation(filepath.Join(outDir, "correlation.dat"), cors); err != nil {
		return errors.Wrap(err, "")
	}
	if err := saveEnergy(filepath.Join(outDir, "energy.dat"), energy, densities); err != nil {
		return errors.Wrap(err, "")
	}
	if err := saveTime(filepath.Join(outDir, "time.dat"), sim.stats); err != nil {
		return errors.Wrap(err, "")
	}

	if sim.params.ObservableDB != "" {
		if err := sim.saveObservableDB(onesite, twosite, cors); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

func (sim *Simulator) saveObservableDB(onesite [][]complex64, twosite map[int]map[Bond]complex64, cors []Correlation) error {
	db, err := obsdb.Open(sim.params.ObservableDB)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	ctx := context.Background()
	for g, sites := range onesite {
		for i, v := range sites {
			if cmplx.IsNaN(complex128(v)) {
				continue
			}
			if err := db.Set(ctx, obsdb.KindOnesite, g, i, 0, 0, float64(real(v)), float64(imag(v))); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}
	for g, bonds := range twosite {
		for b, v := range bonds {
			if err := db.Set(ctx, obsdb.KindTwosite, g, b.SourceSite, b.Dx, b.Dy, float64(real(v)), float64(imag(v))); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}
	for _, c := range cors {
		dx := sim.lattice.X(c.RightIndex) + c.OffsetX*sim.lattice.LX - sim.lattice.X(c.LeftIndex)
		dy := sim.lattice.Y(c.RightIndex) + c.OffsetY*sim.lattice.LY - sim.lattice.Y(c.LeftIndex)
		g := c.LeftOp*numGroups(sim.onesiteOps) + c.RightOp
		if err := db.Set(ctx, obsdb.KindCorrelation, g, c.LeftIndex, dx, dy, c.Real, c.Imag); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

func (sim *Simulator) logProgress(stage string, done, total int) {
	if sim.params.PrintLevel < 1 {
		return
	}
	interval := max(total/10, 1)
	if done%interval == 0 || done == total {
		log.Printf("%s %d/%d", stage, done, total)
	}
}
