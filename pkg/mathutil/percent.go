// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/forecast-dashboard/pkg/constants"
)

// Round rounds a value to two decimals, the precision percentages are shown in.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// Percentage calculates what percentage count is of total, rounded to two
// decimals. A non-positive total yields 0.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round(float64(count) / float64(total) * constants.PercentageMultiplier)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}
