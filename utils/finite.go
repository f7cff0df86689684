package utils

import (
	"math"
)

// Finite は NaN と ±Inf を 0 に置き換えます。
func Finite(f float64) float64 {
	if !IsFinite(f) {
		return 0
	}
	return f
}

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Clamp は v を [lo, hi] に収めます。
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
