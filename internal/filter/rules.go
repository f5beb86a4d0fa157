package filter

import (
	"image"
	"math"

	"github.com/high-horse/fingerprint/internal/mathx"
	"github.com/high-horse/fingerprint/internal/minutia"
	"github.com/high-horse/fingerprint/internal/skeleton"
)

// Border drops minutiae closer than Margin pixels to any image edge.
type Border struct {
	Margin int
}

func (Border) Name() string { return "border" }

func (r Border) Apply(ms []minutia.Minutia, ctx *Context) []minutia.Minutia {
	return keepIf(ms, func(m minutia.Minutia) bool {
		return m.X >= r.Margin && m.Y >= r.Margin &&
			m.X < ctx.Width-r.Margin && m.Y < ctx.Height-r.Margin
	})
}

// LowConfidence drops minutiae whose tile has no reliable direction.
type LowConfidence struct{}

func (LowConfidence) Name() string { return "low-confidence" }

func (LowConfidence) Apply(ms []minutia.Minutia, ctx *Context) []minutia.Minutia {
	return keepIf(ms, func(m minutia.Minutia) bool {
		b := ctx.Blocks.ForPixel(m.X, m.Y)
		return b != nil && b.Foreground && b.Reliable
	})
}

// Islands drops minutiae that belong to ridge fragments, spurs or small loops
// shorter than Length pixels.
type Islands struct {
	Length int
}

func (Islands) Name() string { return "islands" }

func (r Islands) Apply(ms []minutia.Minutia, ctx *Context) []minutia.Minutia {
	if r.Length <= 0 {
		return ms
	}
	return keepIf(ms, func(m minutia.Minutia) bool {
		return !r.island(m, ctx)
	})
}

func (r Islands) island(m minutia.Minutia, ctx *Context) bool {
	p := image.Pt(m.X, m.Y)
	if skeleton.ComponentSize(ctx.Skeleton, p, r.Length) < r.Length {
		return true
	}
	var junctions []image.Point
	for _, br := range skeleton.Branches(ctx.Skeleton, p) {
		path := skeleton.Follow(ctx.Skeleton, p, br, r.Length)
		switch path.Stop {
		case skeleton.DeadEnd:
			return true
		case skeleton.Junction:
			if m.Type == minutia.Ending {
				return true
			}
			// two branches meeting again close the loop
			for _, j := range junctions {
				if chebyshev(j, path.End) <= 2 {
					return true
				}
			}
			junctions = append(junctions, path.End)
		}
	}
	return false
}

// Duplicates keeps only the most reliable of same-type minutiae lying within
// Radius pixels of each other.
type Duplicates struct {
	Radius float64
}

func (Duplicates) Name() string { return "duplicates" }

func (r Duplicates) Apply(ms []minutia.Minutia, _ *Context) []minutia.Minutia {
	if r.Radius <= 0 {
		return ms
	}
	return greedy(ms, func(a, b minutia.Minutia) bool {
		return a.Type == b.Type && distance(a, b) <= r.Radius
	})
}

func distance(a, b minutia.Minutia) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func chebyshev(a, b image.Point) int {
	return max(mathx.Abs(a.X-b.X), mathx.Abs(a.Y-b.Y))
}
