package filter

import (
	"image"
	"math"

	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/mathx"
	"github.com/high-horse/fingerprint/internal/minutia"
	"github.com/high-horse/fingerprint/internal/raster"
	"golang.org/x/exp/slices"
)

// endSkip is the number of pixels ignored next to each minutia when counting
// crossed ridges, so the ridges the minutiae sit on are not counted.
const endSkip = 2

// RidgeCount checks pairs of nearby, similarly oriented minutiae: the number
// of ridges crossed on the segment between them must agree with the count
// expected from the median ridge spacing. The less reliable minutia of an
// inconsistent pair is dropped.
type RidgeCount struct {
	Radius    float64
	Tolerance float64
	// Angle is the largest direction difference, in minutia units, of an
	// eligible pair.
	Angle int
	// Window is the half-length of the sampling line used to measure ridge
	// spacing in each tile.
	Window int
}

func (RidgeCount) Name() string { return "ridge-count" }

func (r RidgeCount) Apply(ms []minutia.Minutia, ctx *Context) []minutia.Minutia {
	spacing := Spacing(ctx.Skeleton, ctx.Blocks, ctx.Units, r.Window)
	if spacing <= 0 {
		return ms
	}
	total := 2 * ctx.Units
	return greedy(ms, func(a, b minutia.Minutia) bool {
		if distance(a, b) > r.Radius || mathx.UnitDiff(a.Direction, b.Direction, total) > r.Angle {
			return false
		}
		expected, ok := r.expected(a, b, ctx, spacing)
		if !ok {
			return false
		}
		got := float64(Crossings(ctx.Skeleton, image.Pt(a.X, a.Y), image.Pt(b.X, b.Y)))
		return math.Abs(got-expected) > r.Tolerance
	})
}

// expected estimates the ridges strictly between a and b from the flow at
// their midpoint. Pairs without a reliable flow there are not judged.
func (r RidgeCount) expected(a, b minutia.Minutia, ctx *Context, spacing float64) (float64, bool) {
	blk := ctx.Blocks.ForPixel((a.X+b.X)/2, (a.Y+b.Y)/2)
	if blk == nil || !blk.Reliable {
		return 0, false
	}
	d := distance(a, b)
	if d == 0 {
		return 0, false
	}
	theta := float64(blk.Direction) * math.Pi / float64(ctx.Units)
	fx, fy := math.Sin(theta), -math.Cos(theta)
	sx, sy := float64(b.X-a.X)/d, float64(b.Y-a.Y)/d
	across := math.Abs(fx*sy - fy*sx)
	return math.Max(0, d*across/spacing-1), true
}

// Spacing returns the median ridge period over reliable tiles, measured along
// a line across the flow through each tile centre. It returns 0 when no tile
// yields a measurement.
func Spacing(skel *raster.Binary, m *blockmap.Map, units, window int) float64 {
	var samples []float64
	for row := 0; row < m.Rows; row++ {
		for col := 0; col < m.Cols; col++ {
			blk := m.At(col, row)
			if !blk.Reliable {
				continue
			}
			bounds := m.Bounds(col, row)
			cx := float64(bounds.Min.X+bounds.Max.X) / 2
			cy := float64(bounds.Min.Y+bounds.Max.Y) / 2
			theta := float64(blk.Direction) * math.Pi / float64(units)
			ax, ay := math.Cos(theta), math.Sin(theta)

			valid, runs, prev := 0, 0, false
			for t := -window; t <= window; t++ {
				x := int(math.Round(cx + float64(t)*ax))
				y := int(math.Round(cy + float64(t)*ay))
				if !skel.In(x, y) {
					continue
				}
				valid++
				v := skel.At(x, y)
				if v && !prev {
					runs++
				}
				prev = v
			}
			if runs > 0 {
				samples = append(samples, float64(valid)/float64(runs))
			}
		}
	}
	if len(samples) == 0 {
		return 0
	}
	slices.Sort(samples)
	n := len(samples)
	if n%2 == 1 {
		return samples[n/2]
	}
	return (samples[n/2-1] + samples[n/2]) / 2
}

// Crossings counts ridge runs on the Bresenham line from a to b, ignoring
// endSkip pixels next to either end.
func Crossings(skel *raster.Binary, a, b image.Point) int {
	pts := bresenham(a, b)
	runs, prev := 0, false
	for i := endSkip + 1; i < len(pts)-endSkip-1; i++ {
		v := skel.At(pts[i].X, pts[i].Y)
		if v && !prev {
			runs++
		}
		prev = v
	}
	return runs
}

func bresenham(a, b image.Point) []image.Point {
	dx := mathx.Abs(b.X - a.X)
	dy := -mathx.Abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	pts := make([]image.Point, 0, max(dx, -dy)+1)
	p := a
	for {
		pts = append(pts, p)
		if p == b {
			return pts
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
	}
}
