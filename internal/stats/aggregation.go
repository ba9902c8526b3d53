package stats

import (
	"math"
	"sort"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance calculates the sample variance (n-1 denominator).
// ok is false when fewer than two values are available.
func Variance(values []float64) (variance float64, ok bool) {
	if len(values) < 2 {
		return 0, false
	}

	mean := Mean(values)
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return sumSquaredDiff / float64(len(values)-1), true
}

// StdDev calculates the sample standard deviation
func StdDev(values []float64) (float64, bool) {
	variance, ok := Variance(values)
	if !ok {
		return 0, false
	}
	return math.Sqrt(variance), true
}

// NullableStdDev returns nil instead of zero when the sample is too small
// to have a standard deviation.
func NullableStdDev(values []float64) *float64 {
	sd, ok := StdDev(values)
	if !ok {
		return nil
	}
	return &sd
}

// Median calculates the median value
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := sortedCopy(values)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// NullableMean returns nil for an empty slice
func NullableMean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := Mean(values)
	return &m
}

// NullableMedian returns nil for an empty slice
func NullableMedian(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := Median(values)
	return &m
}

// Sum returns the sum of all values
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Quantile calculates the q-th quantile (0 <= q <= 1) using linear
// interpolation between the closest ranks.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return quantileSorted(sortedCopy(values), q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	n := float64(len(sorted))
	index := q * (n - 1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
