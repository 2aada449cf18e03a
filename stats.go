package peps

// RunStats accumulates wall clock time spent in each stage, in seconds.
type RunStats struct {
	SimpleUpdate float64
	FullUpdate   float64
	Environment  float64
	Observable   float64
}
