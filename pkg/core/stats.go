package core

import "sort"

// Median returns the median of the given samples. The median, not the mean,
// is the pipeline's aggregation statistic: a single outlier judgment from a
// noisy oracle must not skew the result. Returns 0 for an empty slice.
func Median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Clamp01 bounds a score to the closed interval [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
