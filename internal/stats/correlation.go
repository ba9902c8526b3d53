package stats

import (
	"math"
	"sort"
)

// PearsonCorrelation calculates the Pearson correlation coefficient of two
// paired samples. ok is false for fewer than two pairs, mismatched lengths
// or a constant sample.
func PearsonCorrelation(x, y []float64) (r float64, ok bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var sumXY, sumX2, sumY2 float64
	for i := 0; i < len(x); i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumX2 += dx * dx
		sumY2 += dy * dy
	}

	if sumX2 == 0 || sumY2 == 0 {
		return 0, false
	}

	return sumXY / math.Sqrt(sumX2*sumY2), true
}

// SpearmanCorrelation calculates the Spearman rank correlation coefficient
func SpearmanCorrelation(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	return PearsonCorrelation(rank(x), rank(y))
}

// NullablePearson returns nil where PearsonCorrelation is undefined
func NullablePearson(x, y []float64) *float64 {
	if r, ok := PearsonCorrelation(x, y); ok {
		return &r
	}
	return nil
}

// NullableSpearman returns nil where SpearmanCorrelation is undefined
func NullableSpearman(x, y []float64) *float64 {
	if r, ok := SpearmanCorrelation(x, y); ok {
		return &r
	}
	return nil
}

// rank converts values to 1-based ranks, ties get their average rank
func rank(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}

	type pair struct {
		index int
		value float64
	}
	pairs := make([]pair, n)
	for i, v := range values {
		pairs[i] = pair{i, v}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}

		avgRank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}

		i = j
	}

	return ranks
}
