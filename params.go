package peps

// Parameters controls the accuracy and cost of a simulation.
type Parameters struct {
	// CHI is the environment bond dimension.
	CHI int
	// Seed of the pseudo random number generator.
	// Worker w draws from Seed plus its rank.
	Seed uint64

	// MaxCTMIteration bounds the corner transfer matrix fixed point loop.
	MaxCTMIteration int
	// CTMEpsilon stops the loop once the corner spectra move less than this.
	CTMEpsilon float64
	// InverseProjectorCut zeroes projector weights whose singular value is
	// below this fraction of the largest one.
	InverseProjectorCut float64
	// UseRSVD switches projector computation to randomized SVD.
	UseRSVD bool
	// RSVDOversampling is the ratio of random probes to kept triplets.
	RSVDOversampling int

	// NumSimpleStep is the number of simple update sweeps.
	NumSimpleStep int
	// InverseLambdaCut zeroes inverse mean field weights below this.
	InverseLambdaCut float64

	// NumFullStep is the number of full update sweeps.
	NumFullStep int
	// FullInverseCut is the pseudo inverse cutoff of the ALS solver.
	FullInverseCut float64
	// FullEpsilon stops the ALS iteration once the truncated pair moves
	// less than this.
	FullEpsilon float64
	// FullMaxIteration bounds the ALS iteration.
	FullMaxIteration int
	// FastFullUpdate refreshes only the rows or columns touched by a full
	// update step instead of reconverging the whole environment.
	FastFullUpdate bool

	// TensorSaveDir saves optimized tensors when non-empty.
	TensorSaveDir string
	// TensorLoadDir restores tensors from a previous run when non-empty.
	TensorLoadDir string
	// OutDir receives the measurement reports.
	OutDir string
	// ObservableDB additionally mirrors measurements into a SQLite file
	// at this path when non-empty.
	ObservableDB string

	// PrintLevel controls logging verbosity. Zero is silent.
	PrintLevel int
}

// NewParameters returns the default simulation parameters.
func NewParameters() Parameters {
	return Parameters{
		CHI:                 4,
		Seed:                11,
		MaxCTMIteration:     100,
		CTMEpsilon:          1e-6,
		InverseProjectorCut: 1e-12,
		UseRSVD:             false,
		RSVDOversampling:    2,
		NumSimpleStep:       0,
		InverseLambdaCut:    1e-12,
		NumFullStep:         0,
		FullInverseCut:      1e-12,
		FullEpsilon:         1e-6,
		FullMaxIteration:    100,
		FastFullUpdate:      true,
		OutDir:              "output",
		PrintLevel:          1,
	}
}
