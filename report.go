package peps

import (
	"bufio"
	"fmt"
	"math/cmplx"
	"os"
	"slices"

	"github.com/pkg/errors"
)

// saveOnesite writes the one site observables, one row per group and site.
func saveOnesite(fpath string, res [][]complex64) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "# The meaning of each column is the following:\n")
	fmt.Fprintf(w, "# $1: op_group\n")
	fmt.Fprintf(w, "# $2: site_index\n")
	fmt.Fprintf(w, "# $3: real\n")
	fmt.Fprintf(w, "# $4: imag\n")
	for g, sites := range res {
		for i, v := range sites {
			if cmplx.IsNaN(complex128(v)) {
				continue
			}
			fmt.Fprintf(w, "%d %d %.17g %.17g\n", g, i, real(v), imag(v))
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

// saveTwosite writes the two site observables, one row per group and bond.
func saveTwosite(fpath string, res map[int]map[Bond]complex64) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "# The meaning of each column is the following:\n")
	fmt.Fprintf(w, "# $1: op_group\n")
	fmt.Fprintf(w, "# $2: source_site\n")
	fmt.Fprintf(w, "# $3: dx\n")
	fmt.Fprintf(w, "# $4: dy\n")
	fmt.Fprintf(w, "# $5: real\n")
	fmt.Fprintf(w, "# $6: imag\n")

	type row struct {
		group int
		bond  Bond
		v     complex64
	}
	var rows []row
	for g, bonds := range res {
		for b, v := range bonds {
			rows = append(rows, row{group: g, bond: b, v: v})
		}
	}
	slices.SortFunc(rows, func(a, b row) int {
		for _, d := range [4]int{a.group - b.group, a.bond.SourceSite - b.bond.SourceSite, a.bond.Dx - b.bond.Dx, a.bond.Dy - b.bond.Dy} {
			if d != 0 {
				return d
			}
		}
		return 0
	})
	for _, r := range rows {
		fmt.Fprintf(w, "%d %d %d %d %.17g %.17g\n", r.group, r.bond.SourceSite, r.bond.Dx, r.bond.Dy, real(r.v), imag(r.v))
	}

	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// saveCorrelation writes the long range correlations, one row per record.
func saveCorrelation(fpath string, cors []Correlation) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "# The meaning of each column is the following:\n")
	fmt.Fprintf(w, "# $1: left_op\n")
	fmt.Fprintf(w, "# $2: left_site\n")
	fmt.Fprintf(w, "# $3: right_op\n")
	fmt.Fprintf(w, "# $4: right_site\n")
	fmt.Fprintf(w, "# $5: offset_x\n")
	fmt.Fprintf(w, "# $6: offset_y\n")
	fmt.Fprintf(w, "# $7: real\n")
	fmt.Fprintf(w, "# $8: imag\n")
	for _, c := range cors {
		fmt.Fprintf(w, "%d %d %d %d %d %d %.17g %.17g\n", c.LeftOp, c.LeftIndex, c.RightOp, c.RightIndex, c.OffsetX, c.OffsetY, c.Real, c.Imag)
	}

	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// saveEnergy writes the energy density followed by the per group one site
// observable densities.
func saveEnergy(fpath string, energy float64, densities []complex128) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()
	fmt.Fprintf(f, "energy = %.17g\n", energy)
	for g, v := range densities {
		fmt.Fprintf(f, "onesite_obs[%d] = %.17g +i %.17g\n", g, real(v), imag(v))
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func saveTime(fpath string, st RunStats) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()
	fmt.Fprintf(f, "time simple update = %g\n", st.SimpleUpdate)
	fmt.Fprintf(f, "time full update   = %g\n", st.FullUpdate)
	fmt.Fprintf(f, "time environment   = %g\n", st.Environment)
	fmt.Fprintf(f, "time observable    = %g\n", st.Observable)
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
