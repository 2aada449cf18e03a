package peps

// Leg directions of a site tensor.
// Leg 0 points to -x, leg 1 to +y, leg 2 to +x, and leg 3 to -y.
const (
	legLeft = iota
	legTop
	legRight
	legBottom

	nleg = 4
)

// legVec is the lattice displacement of each leg direction.
var legVec = [nleg][2]int{{-1, 0}, {0, 1}, {1, 0}, {0, -1}}

// Lattice is the periodically tiled unit cell of the model.
//
// Coordinates follow
//
//	y
//	^
//	|
//	0--> x
//
// and the unit cell wraps around toroidally, shifting by Skew columns on
// every vertical wrap.
type Lattice struct {
	LX   int
	LY   int
	Skew int

	// PhysicalDims[i] is the local Hilbert space dimension of site i.
	PhysicalDims []int
	// VirtualDims[i] are the four bond dimensions of site i, in leg order.
	VirtualDims [][nleg]int
	// InitialDirs[i] is the initial local state of site i.
	// An all-zero vector requests a random initial direction.
	InitialDirs [][]float64
	// Noises[i] is the amplitude of the random noise added on top of the
	// initial direction.
	Noises []float64
}

// NewUniformLattice creates a lattice whose sites all share the same
// physical and virtual dimensions.
func NewUniformLattice(lx, ly, skew, pdim, vdim int, noise float64) Lattice {
	n := lx * ly
	lat := Lattice{LX: lx, LY: ly, Skew: skew}
	for range n {
		lat.PhysicalDims = append(lat.PhysicalDims, pdim)
		lat.VirtualDims = append(lat.VirtualDims, [nleg]int{vdim, vdim, vdim, vdim})
		lat.InitialDirs = append(lat.InitialDirs, make([]float64, pdim))
		lat.Noises = append(lat.Noises, noise)
	}
	return lat
}

// NUnit is the number of sites in the unit cell.
func (lat Lattice) NUnit() int { return lat.LX * lat.LY }

// Index is the site at coordinate (x, y).
func (lat Lattice) Index(x, y int) int { return x + y*lat.LX }

// X is the x coordinate of site i.
func (lat Lattice) X(i int) int { return i % lat.LX }

// Y is the y coordinate of site i.
func (lat Lattice) Y(i int) int { return i / lat.LX }

// Other is the site displaced from site i by (dx, dy), wrapping around the
// torus and applying the skew shift on vertical wraps.
func (lat Lattice) Other(i, dx, dy int) int {
	x := lat.X(i) + dx
	y := lat.Y(i) + dy
	for y >= lat.LY {
		y -= lat.LY
		x += lat.Skew
	}
	for y < 0 {
		y += lat.LY
		x -= lat.Skew
	}
	x = ((x % lat.LX) + lat.LX) % lat.LX
	return lat.Index(x, y)
}

// Neighbor is the site adjacent to site i across the given leg.
func (lat Lattice) Neighbor(i, leg int) int {
	v := legVec[leg]
	return lat.Other(i, v[0], v[1])
}
