// Package mathx holds small generic numeric helpers shared by the pipeline.
package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp constrains v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs returns the absolute value of v.
func Abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Mod returns v modulo m in [0, m) for a positive m.
func Mod[T constraints.Integer](v, m T) T {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}

// NormalizeDegrees maps an angle to [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// AngleDiff returns the absolute difference between two angles in degrees,
// in [0, 180].
func AngleDiff(a, b float64) float64 {
	d := NormalizeDegrees(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// UnitDiff returns the circular distance between two direction units out of
// total.
func UnitDiff(a, b, total int) int {
	d := Mod(a-b, total)
	if d > total/2 {
		d = total - d
	}
	return d
}
