package collector

import (
	"golang.org/x/exp/constraints"
)

type Float interface {
	constraints.Float
}

func clamp[T Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CToF converts Celsius to Fahrenheit.
func CToF(c float64) float64 {
	return c*9.0/5.0 + 32.0
}
