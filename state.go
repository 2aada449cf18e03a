package peps

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// State holds the wavefunction and its renormalized environment.
//
// Site tensors have axes {left, top, right, bottom, physical}.
// Corners C[0] to C[3] run clockwise from the top left, each of axes
// {chi in, chi out} following the clockwise ring
// C[0], top edge, C[1], right edge, C[2], bottom edge, C[3], left edge.
// Edges ET[d] sit across leg direction d of their site and have axes
// {chi in, chi out, ket, bra} with the chi legs also running clockwise.
type State struct {
	Lattice Lattice
	CHI     int

	Tn []*tensor.Dense
	C  [nleg][]*tensor.Dense
	ET [nleg][]*tensor.Dense

	// Lambda[i][d] are the mean field singular values on the bond across
	// leg d of site i. The two endpoints of a bond share the same slice.
	Lambda [][nleg][]float64
}

func newState(lat Lattice, chi int) *State {
	n := lat.NUnit()
	s := &State{Lattice: lat, CHI: chi}
	s.Tn = make([]*tensor.Dense, n)
	for i := range n {
		vd := lat.VirtualDims[i]
		s.Tn[i] = tensor.Zeros(vd[0], vd[1], vd[2], vd[3], lat.PhysicalDims[i])
	}
	for j := range nleg {
		s.C[j] = make([]*tensor.Dense, n)
		s.ET[j] = make([]*tensor.Dense, n)
		for i := range n {
			s.C[j][i] = tensor.Zeros(chi, chi)
			v := lat.VirtualDims[i][j]
			s.ET[j][i] = tensor.Zeros(chi, chi, v, v)
		}
	}

	s.Lambda = make([][nleg][]float64, n)
	for i := range n {
		for d := range nleg {
			if s.Lambda[i][d] != nil {
				continue
			}
			lam := make([]float64, lat.VirtualDims[i][d])
			for k := range lam {
				lam[k] = 1
			}
			// The neighbor across leg d sees this bond through the
			// opposite leg. Share the slice so that updates from
			// either side agree.
			s.Lambda[i][d] = lam
			s.Lambda[lat.Neighbor(i, d)][(d+2)%nleg] = lam
		}
	}
	return s
}

// randomInit fills the site tensors with the configured initial directions
// plus noise. The imaginary parts draw from a second stream so that runs with
// and without complex noise share the real parts.
func randomInit(s *State, seed uint64) {
	gen := rand.New(rand.NewPCG(seed, seed))
	genIm := rand.New(rand.NewPCG(seed*11+137, seed*11+137))

	lat := s.Lattice
	for i := range lat.NUnit() {
		pdim := lat.PhysicalDims[i]
		dir := make([]float64, pdim)
		dirIm := make([]float64, pdim)
		copy(dir, lat.InitialDirs[i])
		zero := true
		for _, v := range dir {
			if v != 0 {
				zero = false
			}
		}
		if zero {
			for p := range pdim {
				dir[p] = gen.Float64()*2 - 1
				dirIm[p] = genIm.Float64()*2 - 1
			}
		}

		tn := s.Tn[i]
		shape := tn.Shape()
		ndim := 1
		for _, d := range shape {
			ndim *= d
		}
		ranRe := make([]float64, ndim)
		ranIm := make([]float64, ndim)
		for j := range ndim {
			ranRe[j] = gen.Float64()*2 - 1
			ranIm[j] = genIm.Float64()*2 - 1
		}

		noise := lat.Noises[i]
		for ijk := range tn.All() {
			if ijk[0] == 0 && ijk[1] == 0 && ijk[2] == 0 && ijk[3] == 0 {
				p := ijk[4]
				tn.SetAt(ijk, complex(float32(dir[p]), float32(dirIm[p])))
				continue
			}
			j := 0
			for a := len(ijk) - 1; a >= 0; a-- {
				j = j*shape[a] + ijk[a]
			}
			tn.SetAt(ijk, complex(float32(noise*ranRe[j]), float32(noise*ranIm[j])))
		}
	}
}

var cornerNames = [nleg]string{"C1", "C2", "C3", "C4"}
var edgeNames = [nleg]string{"El", "Et", "Er", "Eb"}

// Save writes all tensors of the state into dir.
func (s *State) Save(dir string) error {
	if err := os.MkdirAll(dir, 0775); err != nil {
		return errors.Wrap(err, "")
	}
	for i := range s.Lattice.NUnit() {
		if err := saveTensor(filepath.Join(dir, fmt.Sprintf("T_%d.dat", i)), s.Tn[i]); err != nil {
			return errors.Wrap(err, "")
		}
		for j := range nleg {
			fc := filepath.Join(dir, fmt.Sprintf("%s_%d.dat", cornerNames[j], i))
			if err := saveTensor(fc, s.C[j][i]); err != nil {
				return errors.Wrap(err, "")
			}
			fe := filepath.Join(dir, fmt.Sprintf("%s_%d.dat", edgeNames[j], i))
			if err := saveTensor(fe, s.ET[j][i]); err != nil {
				return errors.Wrap(err, "")
			}
		}
		if err := saveLambda(filepath.Join(dir, fmt.Sprintf("lambda_%d.dat", i)), s.Lambda[i]); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

// Load restores all tensors of the state from dir.
func (s *State) Load(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return errors.Wrap(err, "")
	}
	for i := range s.Lattice.NUnit() {
		t, err := loadTensor(filepath.Join(dir, fmt.Sprintf("T_%d.dat", i)))
		if err != nil {
			return errors.Wrap(err, "")
		}
		s.Tn[i] = t
		for j := range nleg {
			c, err := loadTensor(filepath.Join(dir, fmt.Sprintf("%s_%d.dat", cornerNames[j], i)))
			if err != nil {
				return errors.Wrap(err, "")
			}
			s.C[j][i] = c
			e, err := loadTensor(filepath.Join(dir, fmt.Sprintf("%s_%d.dat", edgeNames[j], i)))
			if err != nil {
				return errors.Wrap(err, "")
			}
			s.ET[j][i] = e
		}
		lam, err := loadLambda(filepath.Join(dir, fmt.Sprintf("lambda_%d.dat", i)))
		if err != nil {
			return errors.Wrap(err, "")
		}
		for d := range nleg {
			s.Lambda[i][d] = lam[d]
			s.Lambda[s.Lattice.Neighbor(i, d)][(d+2)%nleg] = lam[d]
		}
	}
	return nil
}

func saveTensor(fpath string, t *tensor.Dense) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	shape := t.Shape()
	if err := binary.Write(w, binary.LittleEndian, int64(len(shape))); err != nil {
		return errors.Wrap(err, "")
	}
	for _, d := range shape {
		if err := binary.Write(w, binary.LittleEndian, int64(d)); err != nil {
			return errors.Wrap(err, "")
		}
	}
	for _, v := range t.All() {
		if err := binary.Write(w, binary.LittleEndian, [2]float32{real(v), imag(v)}); err != nil {
			return errors.Wrap(err, "")
		}
	}

	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func loadTensor(fpath string) (*tensor.Dense, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var rank int64
	if err := binary.Read(r, binary.LittleEndian, &rank); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if rank < 1 || rank > 8 {
		return nil, errors.Errorf("rank %d", rank)
	}
	shape := make([]int, rank)
	for i := range shape {
		var d int64
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return nil, errors.Wrap(err, "")
		}
		shape[i] = int(d)
	}
	t := tensor.Zeros(shape...)
	for ijk := range t.All() {
		var v [2]float32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, errors.Wrap(err, "")
		}
		t.SetAt(ijk, complex(v[0], v[1]))
	}
	return t, nil
}

func saveLambda(fpath string, lambda [nleg][]float64) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	for d := range nleg {
		fmt.Fprintf(w, "%d\n", len(lambda[d]))
		for _, v := range lambda[d] {
			fmt.Fprintf(w, "%.17g\n", v)
		}
	}

	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func loadLambda(fpath string) ([nleg][]float64, error) {
	var lambda [nleg][]float64
	b, err := os.ReadFile(fpath)
	if err != nil {
		return lambda, errors.Wrap(err, "")
	}
	lines := strings.Fields(string(b))
	k := 0
	next := func() (float64, error) {
		if k >= len(lines) {
			return 0, errors.Errorf("truncated %s", fpath)
		}
		v, err := strconv.ParseFloat(lines[k], 64)
		if err != nil {
			return 0, errors.Wrap(err, "")
		}
		k++
		return v, nil
	}
	for d := range nleg {
		n, err := next()
		if err != nil {
			return lambda, err
		}
		lambda[d] = make([]float64, int(n))
		for i := range lambda[d] {
			v, err := next()
			if err != nil {
				return lambda, err
			}
			lambda[d][i] = v
		}
	}
	return lambda, nil
}
