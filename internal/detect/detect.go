// Package detect scans a thinned ridge raster for ridge endings and
// bifurcations. It over-generates on purpose; false minutiae are removed by
// the filter package.
package detect

import (
	"image"
	"math"

	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/mathx"
	"github.com/high-horse/fingerprint/internal/minutia"
	"github.com/high-horse/fingerprint/internal/raster"
	"github.com/high-horse/fingerprint/internal/skeleton"
)

// unreliablePenalty scales the reliability of minutiae found in tiles without
// a reliable direction.
const unreliablePenalty = 0.5

// Detect returns every skeleton pixel whose crossing number marks an ending
// (1) or a bifurcation (3) inside a foreground tile. Pixels on the image edge
// are skipped because their neighbourhood is incomplete.
//
// A minutia points into the feature: an ending towards the ridge it
// terminates, a bifurcation between its two branches. The raw direction comes
// from following the ridges traceLength pixels and is snapped to the tile
// orientation, which fixes the axis while the trace picks the sense.
func Detect(skel *raster.Binary, m *blockmap.Map, units, traceLength int) []minutia.Minutia {
	var out []minutia.Minutia
	for y := 1; y < skel.Height-1; y++ {
		for x := 1; x < skel.Width-1; x++ {
			if !skel.At(x, y) {
				continue
			}
			b := m.ForPixel(x, y)
			if b == nil || !b.Foreground {
				continue
			}

			var typ minutia.Type
			switch skeleton.CrossingNumber(skel, x, y) {
			case 1:
				typ = minutia.Ending
			case 3:
				typ = minutia.Bifurcation
			default:
				continue
			}

			p := image.Pt(x, y)
			vx, vy := featureVector(skel, p, traceLength)
			out = append(out, minutia.Minutia{
				X:           x,
				Y:           y,
				Direction:   snap(vx, vy, b.Direction, units),
				Type:        typ,
				Reliability: reliability(b),
			})
		}
	}
	return out
}

// featureVector sums the unit vectors from p to the end of each traced ridge.
func featureVector(skel *raster.Binary, p image.Point, traceLength int) (float64, float64) {
	var vx, vy float64
	for _, br := range skeleton.Branches(skel, p) {
		path := skeleton.Follow(skel, p, br, traceLength)
		dx := float64(path.End.X - p.X)
		dy := float64(path.End.Y - p.Y)
		if l := math.Hypot(dx, dy); l > 0 {
			vx += dx / l
			vy += dy / l
		}
	}
	return vx, vy
}

// snap converts an image-space vector to a direction in [0, 2*units). With a
// tile orientation the result is that orientation or its opposite, whichever
// lies closer to the vector.
func snap(vx, vy float64, orientation, units int) int {
	total := 2 * units
	step := 180 / float64(units)
	if math.Hypot(vx, vy) < 1e-9 {
		if orientation == blockmap.NoDirection {
			return 0
		}
		return orientation
	}
	// clockwise from north with y pointing down
	deg := mathx.NormalizeDegrees(math.Atan2(vx, -vy) * 180 / math.Pi)
	raw := mathx.Mod(int(math.Round(deg/step)), total)
	if orientation == blockmap.NoDirection {
		return raw
	}
	if mathx.UnitDiff(raw, orientation, total) <= mathx.UnitDiff(raw, orientation+units, total) {
		return orientation
	}
	return orientation + units
}

func reliability(b *blockmap.Block) float64 {
	if b.Confidence <= 1 {
		return 0
	}
	r := 1 - 1/b.Confidence
	if !b.Reliable {
		r *= unreliablePenalty
	}
	return mathx.Clamp(r, 0, 1)
}
