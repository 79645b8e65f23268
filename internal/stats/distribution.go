package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution summarizes per-image instance counts.
type Distribution struct {
	Images int     `json:"images"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Describe computes a Distribution over counts. The zero Distribution is
// returned for an empty input. StdDev is the sample standard deviation and
// is 0 for a single value.
func Describe(counts []int) Distribution {
	if len(counts) == 0 {
		return Distribution{}
	}
	x := make([]float64, len(counts))
	for i, c := range counts {
		x[i] = float64(c)
	}

	d := Distribution{
		Images: len(x),
		Min:    floats.Min(x),
		Max:    floats.Max(x),
	}
	if len(x) == 1 {
		d.Mean = x[0]
		d.Median = x[0]
		return d
	}
	d.Mean, d.StdDev = stat.MeanStdDev(x, nil)

	sorted := make([]float64, len(x))
	copy(sorted, x)
	floats.Argsort(sorted, make([]int, len(sorted)))
	d.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return d
}
