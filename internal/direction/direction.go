// Package direction estimates the dominant ridge-flow orientation of every
// foreground tile.
//
// For each orientation of the Bank, the pixels of a circular window around the
// tile centre are averaged along rows that follow that orientation. When the
// rows run parallel to the ridges every row holds one phase of the ridge wave
// and the row profile keeps the full contrast; any other orientation mixes
// ridges and valleys inside a row and flattens the profile. The response of
// an orientation is the variance of its row profile, and the tile direction is
// the orientation with the strongest response.
//
// A contrast edge running through the window, such as a scar or the boundary
// of the print, also gives a strong row profile along the edge. That profile
// is a step rather than a wave, so an orientation whose profile crosses its
// own mean fewer than minCrossings times is not taken as ridge flow when the
// tile offers a periodic alternative.
package direction

import (
	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/raster"
)

// tieEpsilon is the relative slack under which two responses count as equal.
const tieEpsilon = 1e-9

// minCrossings is the fewest mean crossings of a ridge profile. A window
// covers about three ridge periods, which gives five or more.
const minCrossings = 3

// stepShare is the fraction of a step response a periodic orientation must
// reach for the tile to stay reliable.
const stepShare = 0.1

// Estimate fills Direction, Confidence and Reliable for every foreground block
// of m. Blocks with a confidence below threshold keep their best direction but
// are marked unreliable; blocks without any contrast get NoDirection.
func Estimate(g *raster.Gray, m *blockmap.Map, bank *Bank, threshold float64) {
	responses := make([]float64, bank.units)
	periodic := make([]float64, bank.units)
	sums := make([]float64, 2*bank.radius+1)
	counts := make([]int, 2*bank.radius+1)

	for row := 0; row < m.Rows; row++ {
		for col := 0; col < m.Cols; col++ {
			b := m.At(col, row)
			if !b.Foreground {
				continue
			}
			r := m.Bounds(col, row)
			cx := (r.Min.X + r.Max.X) / 2
			cy := (r.Min.Y + r.Max.Y) / 2

			for i := range responses {
				responses[i] = bank.response(g, cx, cy, i, sums, counts)
				periodic[i] = responses[i]
				if crossings(sums, counts) < minCrossings {
					periodic[i] = 0
				}
			}
			best, confidence := pick(responses)
			trusted := true
			if best != blockmap.NoDirection && periodic[best] == 0 {
				peak := responses[best]
				best, confidence = pick(periodic)
				trusted = best != blockmap.NoDirection && periodic[best] >= stepShare*peak
			}

			b.Confidence = confidence
			if confidence == 0 {
				b.Direction = blockmap.NoDirection
				b.Reliable = false
				continue
			}
			b.Direction = best
			b.Reliable = trusted && confidence >= threshold
		}
	}
}

// response returns the variance of the row profile of orientation i around
// (cx, cy). Window pixels outside the image are skipped.
func (b *Bank) response(g *raster.Gray, cx, cy, i int, sums []float64, counts []int) float64 {
	for k := range sums {
		sums[k] = 0
		counts[k] = 0
	}
	for _, t := range b.taps[i] {
		x, y := cx+t.dx, cy+t.dy
		if !g.In(x, y) {
			continue
		}
		sums[t.bin] += float64(g.At(x, y))
		counts[t.bin]++
	}

	var n, mean, m2 float64
	for k := range sums {
		if counts[k] == 0 {
			continue
		}
		v := sums[k] / float64(counts[k])
		n++
		delta := v - mean
		mean += delta / n
		m2 += delta * (v - mean)
	}
	if n < 2 {
		return 0
	}
	return m2 / n
}

// crossings counts the sign changes of the row profile left in sums and
// counts by response, measured against the profile mean.
func crossings(sums []float64, counts []int) int {
	var mean float64
	var n int
	for k := range sums {
		if counts[k] > 0 {
			mean += sums[k] / float64(counts[k])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean /= float64(n)

	total, sign := 0, 0
	for k := range sums {
		if counts[k] == 0 {
			continue
		}
		d := sums[k]/float64(counts[k]) - mean
		s := 0
		switch {
		case d > 0:
			s = 1
		case d < 0:
			s = -1
		}
		if s == 0 {
			continue
		}
		if sign != 0 && s != sign {
			total++
		}
		sign = s
	}
	return total
}

// pick returns the index of the strongest response, preferring the smallest
// index among near-equal maxima, and the peak-to-average ratio.
func pick(responses []float64) (int, float64) {
	var peak, total float64
	for _, r := range responses {
		total += r
		if r > peak {
			peak = r
		}
	}
	if peak <= 0 {
		return blockmap.NoDirection, 0
	}
	best := 0
	for i, r := range responses {
		if r >= peak-peak*tieEpsilon {
			best = i
			break
		}
	}
	return best, peak / (total / float64(len(responses)))
}
