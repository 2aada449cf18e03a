package peps

// Group is a collective of workers sharing a simulation.
// Reports are written by the primary worker only, and random streams are
// decorrelated by rank. A single process run uses Single, in which the
// collective operations below are the identity.
type Group struct {
	size int
	rank int
}

// Single is the group of one local worker.
func Single() *Group { return &Group{size: 1, rank: 0} }

// Size is the number of workers in the group.
func (g *Group) Size() int { return g.size }

// Rank is the index of this worker within the group.
func (g *Group) Rank() int { return g.rank }

// Primary reports whether this worker writes the output files.
func (g *Group) Primary() bool { return g.rank == 0 }

// SumFloat64 sums x across the group.
func (g *Group) SumFloat64(x float64) float64 { return x }

// MaxFloat64 takes the maximum of x across the group.
func (g *Group) MaxFloat64(x float64) float64 { return x }
