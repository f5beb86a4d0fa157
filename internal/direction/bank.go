package direction

import "math"

type tap struct {
	dx, dy int
	bin    int
}

// Bank is the precomputed set of rotated line templates. Entry i groups the
// pixels of a circular window into rows that run along orientation i; the
// row a pixel falls in is its rounded distance across the flow.
//
// A Bank is immutable after NewBank returns and may be shared by any number of
// concurrent extractions.
type Bank struct {
	units  int
	radius int
	taps   [][]tap
}

// NewBank builds the bank for units orientations over 180° and a window of the
// given radius. Orientation i points i*180/units degrees clockwise from north.
func NewBank(units, radius int) *Bank {
	b := &Bank{units: units, radius: radius, taps: make([][]tap, units)}
	for i := 0; i < units; i++ {
		sin, cos := math.Sincos(Angle(i, units))
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if dx*dx+dy*dy > radius*radius {
					continue
				}
				// across-flow unit vector is (cos, sin) in image coordinates
				across := float64(dx)*cos + float64(dy)*sin
				b.taps[i] = append(b.taps[i], tap{
					dx:  dx,
					dy:  dy,
					bin: int(math.Round(across)) + radius,
				})
			}
		}
	}
	return b
}

// Units returns the number of orientations.
func (b *Bank) Units() int { return b.units }

// Radius returns the window radius.
func (b *Bank) Radius() int { return b.radius }

// Angle converts an orientation index to radians clockwise from north.
func Angle(i, units int) float64 {
	return float64(i) * math.Pi / float64(units)
}
