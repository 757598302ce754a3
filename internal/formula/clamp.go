package formula

import "golang.org/x/exp/constraints"

// Clamp pins v to the closed interval [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 pins v to the unit interval.
func Clamp01(v float64) float64 {
	return Clamp(v, 0.0, 1.0)
}
