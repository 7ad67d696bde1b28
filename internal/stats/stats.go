// Package stats implements the small set of descriptive statistics the
// delivery summary needs. All functions treat an empty input as "no data"
// and report ok=false rather than returning NaN, so callers can map the
// result onto a nullable column.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), true
}

// Median returns the middle value of xs (average of the two middle values
// for even lengths). The input slice is not modified.
func Median(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// Min returns the smallest value of xs.
func Min(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m, true
}

// Max returns the largest value of xs.
func Max(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m, true
}

// StdDevPop returns the population standard deviation of xs.
func StdDevPop(xs []float64) (float64, bool) {
	mean, ok := Mean(xs)
	if !ok {
		return 0, false
	}
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs))), true
}
