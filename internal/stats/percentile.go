package stats

// Percentile calculates the p-th percentile (0-100)
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return Quantile(values, p/100.0)
}

// Quartiles returns the three quartiles (Q1, Q2/median, Q3)
func Quartiles(values []float64) (q1, q2, q3 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sorted := sortedCopy(values)
	q1 = quantileSorted(sorted, 0.25)
	q2 = quantileSorted(sorted, 0.5)
	q3 = quantileSorted(sorted, 0.75)

	return
}

// Bounds is a closed interval [Lower, Upper] used for outlier trimming
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether v lies inside the closed interval
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// IQRBounds calculates [Q1 - k*IQR, Q3 + k*IQR]
func IQRBounds(values []float64, k float64) Bounds {
	q1, _, q3 := Quartiles(values)
	iqr := q3 - q1
	return Bounds{Lower: q1 - k*iqr, Upper: q3 + k*iqr}
}

// PercentileBounds calculates [P(lower), P(upper)] with lower and upper in 0-100
func PercentileBounds(values []float64, lower, upper float64) Bounds {
	return Bounds{
		Lower: Percentile(values, lower),
		Upper: Percentile(values, upper),
	}
}

// Trim removes values outside the given bounds
func Trim(values []float64, b Bounds) []float64 {
	if len(values) == 0 {
		return nil
	}

	result := []float64{}
	for _, v := range values {
		if b.Contains(v) {
			result = append(result, v)
		}
	}

	return result
}
