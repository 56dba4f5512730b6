package window

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FeatureResult summarises the samples of one window.
type FeatureResult struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"` // unbiased; 0 for a 1x1 window
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Features computes summary statistics over all samples of w.
func Features(w *Window) FeatureResult {
	samples := w.Samples()

	mean, variance := stat.MeanVariance(samples, nil)
	if len(samples) < 2 {
		variance = 0
	}

	return FeatureResult{
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Min:      floats.Min(samples),
		Max:      floats.Max(samples),
	}
}
