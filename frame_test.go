package peps

import (
	"fmt"
	"testing"
)

func TestFrameTn(t *testing.T) {
	t.Parallel()
	lat := NewUniformLattice(2, 2, 0, 2, 3, 0)
	s := newState(lat, 2)
	s.Tn[0].SetAt([]int{1, 2, 0, 1, 1}, 7)

	for k := range nleg {
		t.Run(fmt.Sprintf("%d", k), func(t *testing.T) {
			t.Parallel()
			f := newFrame(s, k)

			// Frame leg d is store leg (d+k)%4.
			store := []int{1, 2, 0, 1}
			ijk := make([]int, nleg+1)
			for d := range nleg {
				ijk[d] = store[(d+k)%nleg]
			}
			ijk[nleg] = 1
			if got := f.tn(0).At(ijk...); got != 7 {
				t.Fatalf("frame %d: %f", k, real(got))
			}

			// Writing a frame view back must leave the tensor unchanged.
			f.setTn(0, clone(f.tn(0)))
			if got := s.Tn[0].At(1, 2, 0, 1, 1); got != 7 {
				t.Fatalf("frame %d: %f", k, real(got))
			}
		})
	}
}

func TestFrameSite(t *testing.T) {
	t.Parallel()
	lat := NewUniformLattice(3, 2, 0, 2, 1, 0)
	s := newState(lat, 2)

	tests := []struct {
		k    int
		x    int
		y    int
		want int
	}{
		{k: 0, x: 1, y: 0, want: 1},
		{k: 0, x: 0, y: 1, want: 3},
		// In frame 1, the frame x axis points down the store.
		{k: 1, x: 1, y: 0, want: 3},
		{k: 1, x: 0, y: 1, want: 1},
		// In frame 2, both axes are reversed.
		{k: 2, x: 1, y: 0, want: 2},
		{k: 2, x: 0, y: 1, want: 3},
		// In frame 3, the frame x axis points up the store.
		{k: 3, x: 1, y: 0, want: 3},
		{k: 3, x: 0, y: 1, want: 2},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d_%d_%d", test.k, test.x, test.y), func(t *testing.T) {
			t.Parallel()
			f := newFrame(s, test.k)
			if got := f.site(test.x, test.y); got != test.want {
				t.Fatalf("got %d, want %d", got, test.want)
			}
		})
	}
}

func TestFrameCol(t *testing.T) {
	t.Parallel()
	lat := NewUniformLattice(3, 2, 0, 2, 1, 0)
	s := newState(lat, 2)

	// A site must lie in the column that its frame coordinates say.
	for k := range nleg {
		f := newFrame(s, k)
		for x := range f.lx() {
			for y := range f.ly() {
				i := f.site(x, y)
				if got := f.col(i); got != x {
					t.Fatalf("frame %d site %d: got %d, want %d", k, i, got, x)
				}
			}
		}
	}
}
