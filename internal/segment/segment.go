// Package segment separates ridge-bearing foreground tiles from background.
package segment

import (
	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/raster"
	"gonum.org/v1/gonum/stat"
)

// Segment classifies every tile of g by its gray-level variance. Tiles whose
// population variance exceeds threshold are foreground. Edge tiles use only
// the pixels inside the image. A uniform image yields an all-background map.
func Segment(g *raster.Gray, tile int, threshold float64) *blockmap.Map {
	m := blockmap.New(g.Width, g.Height, tile)
	samples := make([]float64, 0, tile*tile)

	for row := 0; row < m.Rows; row++ {
		for col := 0; col < m.Cols; col++ {
			r := m.Bounds(col, row)
			samples = samples[:0]
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					samples = append(samples, float64(g.At(x, y)))
				}
			}

			b := m.At(col, row)
			if len(samples) > 1 {
				_, b.Variance = stat.PopMeanVariance(samples, nil)
			}
			b.Foreground = b.Variance > threshold
		}
	}
	return m
}
