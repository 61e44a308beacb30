// Package formulas provides shared numeric helpers used by the scoring
// and prediction code.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Round rounds a float64 to n decimal places
func Round(val float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(val*multiplier) / multiplier
}

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Min returns the smaller of two float64 values
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
