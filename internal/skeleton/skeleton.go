// Package skeleton thins the binary ridge raster to one-pixel-wide ridges and
// provides the neighbourhood topology used by minutia detection and filtering.
//
// Neighbours are visited clockwise starting north: N, NE, E, SE, S, SW, W, NW.
package skeleton

import (
	"image"

	"github.com/high-horse/fingerprint/internal/raster"
)

// ring lists the 8-neighbourhood offsets clockwise from north.
var ring = [8]image.Point{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// Neighbours returns the 8-neighbourhood of (x, y) clockwise from north.
func Neighbours(b *raster.Binary, x, y int) [8]bool {
	var n [8]bool
	for i, o := range ring {
		n[i] = b.At(x+o.X, y+o.Y)
	}
	return n
}

// CrossingNumber counts the valley-to-ridge transitions around (x, y). On a
// thinned ridge it is 1 at a ridge ending, 2 along a ridge and 3 or more at a
// bifurcation.
func CrossingNumber(b *raster.Binary, x, y int) int {
	n := Neighbours(b, x, y)
	return transitions(n)
}

func transitions(n [8]bool) int {
	count := 0
	for i := 0; i < 8; i++ {
		if !n[i] && n[(i+1)%8] {
			count++
		}
	}
	return count
}

func count(n [8]bool) int {
	c := 0
	for _, v := range n {
		if v {
			c++
		}
	}
	return c
}

// Thin reduces ridges to one pixel width with the Zhang-Suen algorithm and
// returns a new raster; b is left untouched.
func Thin(b *raster.Binary) *raster.Binary {
	out := b.Clone()
	var marks []int
	for {
		changed := false
		for step := 0; step < 2; step++ {
			marks = marks[:0]
			for y := 0; y < out.Height; y++ {
				for x := 0; x < out.Width; x++ {
					if out.At(x, y) && deletable(Neighbours(out, x, y), step) {
						marks = append(marks, y*out.Width+x)
					}
				}
			}
			for _, i := range marks {
				out.Pix[i] = false
			}
			changed = changed || len(marks) > 0
		}
		if !changed {
			return out
		}
	}
}

// deletable applies the Zhang-Suen conditions. With n indexed clockwise from
// north, P2=n[0], P4=n[2], P6=n[4] and P8=n[6].
func deletable(n [8]bool, step int) bool {
	c := count(n)
	if c < 2 || c > 6 || transitions(n) != 1 {
		return false
	}
	if step == 0 {
		return !(n[0] && n[2] && n[4]) && !(n[2] && n[4] && n[6])
	}
	return !(n[0] && n[2] && n[6]) && !(n[0] && n[4] && n[6])
}
