// Package binarize turns the gray raster into a ridge/valley raster guided by
// the direction map.
package binarize

import (
	"image"
	"math"

	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/direction"
	"github.com/high-horse/fingerprint/internal/mathx"
	"github.com/high-horse/fingerprint/internal/raster"
)

// Kernel holds, per orientation, the offsets of a short line along the ridge
// flow and of the rotated grid of parallel lines around it. Immutable once
// built.
type Kernel struct {
	units int
	line  [][]image.Point
	grid  [][]image.Point
}

// NewKernel builds a kernel whose line is lineLength pixels long and whose
// grid stacks gridRows such lines across the flow.
func NewKernel(units, lineLength, gridRows int) *Kernel {
	k := &Kernel{
		units: units,
		line:  make([][]image.Point, units),
		grid:  make([][]image.Point, units),
	}
	half := lineLength / 2
	rows := gridRows / 2
	for i := 0; i < units; i++ {
		sin, cos := math.Sincos(direction.Angle(i, units))
		for r := -rows; r <= rows; r++ {
			for s := -half; s <= half; s++ {
				// along the flow (sin, -cos), across it (cos, sin)
				p := image.Pt(
					int(math.Round(float64(s)*sin+float64(r)*cos)),
					int(math.Round(-float64(s)*cos+float64(r)*sin)),
				)
				k.grid[i] = append(k.grid[i], p)
				if r == 0 {
					k.line[i] = append(k.line[i], p)
				}
			}
		}
	}
	return k
}

// Binarize classifies every pixel of g. In a reliable foreground tile a pixel
// is ridge when the mean along the ridge line through it is darker than the
// mean of the rotated grid, which compares it against the profile taken across
// the flow. Foreground tiles without a reliable direction fall back to a local
// mean threshold over a window x window square. Background pixels are valley.
func Binarize(g *raster.Gray, m *blockmap.Map, k *Kernel, window int) *raster.Binary {
	out := raster.NewBinary(g.Width, g.Height)
	var integral []float64

	for row := 0; row < m.Rows; row++ {
		for col := 0; col < m.Cols; col++ {
			b := m.At(col, row)
			if !b.Foreground {
				continue
			}
			r := m.Bounds(col, row)
			if b.Reliable && b.Direction != blockmap.NoDirection {
				for y := r.Min.Y; y < r.Max.Y; y++ {
					for x := r.Min.X; x < r.Max.X; x++ {
						line := mean(g, x, y, k.line[b.Direction])
						grid := mean(g, x, y, k.grid[b.Direction])
						out.Set(x, y, line < grid)
					}
				}
				continue
			}

			if integral == nil {
				integral = integralImage(g)
			}
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					out.Set(x, y, float64(g.At(x, y)) < localMean(integral, g.Width, g.Height, x, y, window))
				}
			}
		}
	}
	return out
}

func mean(g *raster.Gray, x, y int, offsets []image.Point) float64 {
	var sum float64
	var n int
	for _, o := range offsets {
		px, py := x+o.X, y+o.Y
		if !g.In(px, py) {
			continue
		}
		sum += float64(g.At(px, py))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// integralImage returns a (w+1) x (h+1) summed-area table.
func integralImage(g *raster.Gray) []float64 {
	w, h := g.Width, g.Height
	integ := make([]float64, (w+1)*(h+1))
	for y := 1; y <= h; y++ {
		var sum float64
		for x := 1; x <= w; x++ {
			sum += float64(g.At(x-1, y-1))
			integ[y*(w+1)+x] = integ[(y-1)*(w+1)+x] + sum
		}
	}
	return integ
}

func localMean(integ []float64, w, h, x, y, window int) float64 {
	half := window / 2
	x0, x1 := mathx.Clamp(x-half, 0, w-1), mathx.Clamp(x+half, 0, w-1)
	y0, y1 := mathx.Clamp(y-half, 0, h-1), mathx.Clamp(y+half, 0, h-1)
	area := float64((x1 - x0 + 1) * (y1 - y0 + 1))
	s := integ[(y1+1)*(w+1)+x1+1] - integ[y0*(w+1)+x1+1] - integ[(y1+1)*(w+1)+x0] + integ[y0*(w+1)+x0]
	return s / area
}
