package peps

import (
	"math"
	"testing"

	"github.com/fumin/tensor"
)

func TestDouble(t *testing.T) {
	t.Parallel()
	tn := tensor.Zeros(1, 1, 1, 1, 2)
	tn.SetAt([]int{0, 0, 0, 0, 0}, 0.6)
	tn.SetAt([]int{0, 0, 0, 0, 1}, complex(0, 0.8))

	d := double(tn, nil)
	if got := d.Shape(); len(got) != 4 || got[0] != 1 || got[3] != 1 {
		t.Fatalf("%#v", got)
	}
	if got := float64(real(d.At(0, 0, 0, 0))); math.Abs(got-1) > 1e-6 {
		t.Fatalf("%f", got)
	}

	dz := double(tn, PauliZ())
	if got := float64(real(dz.At(0, 0, 0, 0))); math.Abs(got-(0.36-0.64)) > 1e-6 {
		t.Fatalf("%f", got)
	}

	dx := double(tn, PauliX())
	// <sx> of the spinor {0.6, 0.8i} is zero.
	if got := dx.At(0, 0, 0, 0); math.Abs(float64(real(got))) > 1e-6 {
		t.Fatalf("%f", real(got))
	}
}

func TestContractPatch(t *testing.T) {
	t.Parallel()
	one := func() *tensor.Dense {
		c := tensor.Zeros(1, 1)
		c.SetAt([]int{0, 0}, 1)
		return c
	}
	edge := func() *tensor.Dense {
		e := tensor.Zeros(1, 1, 1)
		e.SetAt([]int{0, 0, 0}, 1)
		return e
	}
	site := func(v complex64) *tensor.Dense {
		d := tensor.Zeros(1, 1, 1, 1)
		d.SetAt([]int{0, 0, 0, 0}, v)
		return d
	}

	c := [4]*tensor.Dense{one(), one(), one(), one()}

	// A single site window.
	got := contractPatch(c, []*tensor.Dense{edge()}, []*tensor.Dense{edge()},
		[]*tensor.Dense{edge()}, []*tensor.Dense{edge()},
		[][]*tensor.Dense{{site(3)}})
	if got != 3 {
		t.Fatalf("%f", real(got))
	}

	// A 2x3 window multiplies all site weights.
	et := []*tensor.Dense{edge(), edge(), edge()}
	eb := []*tensor.Dense{edge(), edge(), edge()}
	el := []*tensor.Dense{edge(), edge()}
	er := []*tensor.Dense{edge(), edge()}
	d := [][]*tensor.Dense{
		{site(2), site(3), site(5)},
		{site(7), site(11), site(13)},
	}
	got = contractPatch(c, et, eb, el, er, d)
	if want := complex64(2 * 3 * 5 * 7 * 11 * 13); got != want {
		t.Fatalf("got %f, want %f", real(got), real(want))
	}
}

func TestPadTo(t *testing.T) {
	t.Parallel()
	a := tensor.Zeros(2, 3)
	a.SetAt([]int{1, 2}, 5)
	a.SetAt([]int{0, 0}, 1)

	b := padTo(a, 4, 2)
	if got := b.Shape(); got[0] != 4 || got[1] != 2 {
		t.Fatalf("%#v", got)
	}
	if got := b.At(0, 0); got != 1 {
		t.Fatalf("%f", real(got))
	}
	// Cropped and padded regions.
	if got := b.At(3, 1); got != 0 {
		t.Fatalf("%f", real(got))
	}
}
