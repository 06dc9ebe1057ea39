package utils

import "math"

// CompareFloat is a total order over float64 for size and ratio sorts.
// NaN sorts below every other value (including -Inf) and compares equal
// to itself, so sorts never depend on how a call site treats NaN.
// It returns -1, 0 or +1.
func CompareFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
