package direction

import (
	"math"
	"testing"

	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wave renders parallel ridges with an 8 pixel period whose gray level depends
// on phase(x, y).
func wave(size int, phase func(x, y int) float64) *raster.Gray {
	g := raster.NewGray(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			g.Set(x, y, uint8(128+100*math.Sin(2*math.Pi*phase(x, y)/8)))
		}
	}
	return g
}

func foreground(g *raster.Gray) *blockmap.Map {
	m := blockmap.New(g.Width, g.Height, 8)
	for i := range m.Blocks {
		m.Blocks[i].Foreground = true
	}
	return m
}

func TestEstimate_Orientations(t *testing.T) {
	bank := NewBank(16, 12)

	tests := []struct {
		name  string
		phase func(x, y int) float64
		want  int
	}{
		{"vertical ridges", func(x, y int) float64 { return float64(x) }, 0},
		{"rising diagonal ridges", func(x, y int) float64 { return float64(x+y) / math.Sqrt2 }, 4},
		{"horizontal ridges", func(x, y int) float64 { return float64(y) }, 8},
		{"falling diagonal ridges", func(x, y int) float64 { return float64(x-y) / math.Sqrt2 }, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := wave(64, tt.phase)
			m := foreground(g)
			Estimate(g, m, bank, 2)

			for row := 1; row < m.Rows-1; row++ {
				for col := 1; col < m.Cols-1; col++ {
					b := m.At(col, row)
					assert.Equal(t, tt.want, b.Direction, "tile (%d,%d)", col, row)
					assert.True(t, b.Reliable, "tile (%d,%d) confidence %.2f", col, row, b.Confidence)
				}
			}
		})
	}
}

func TestEstimate_SkipsBackground(t *testing.T) {
	g := wave(32, func(x, y int) float64 { return float64(y) })
	m := blockmap.New(32, 32, 8)
	m.At(1, 1).Foreground = true

	Estimate(g, m, NewBank(16, 12), 2)

	assert.Equal(t, 8, m.At(1, 1).Direction)
	assert.Equal(t, blockmap.NoDirection, m.At(0, 0).Direction)
	assert.False(t, m.At(0, 0).Reliable)
}

func TestEstimate_FlatTileHasNoDirection(t *testing.T) {
	g := raster.NewGray(32, 32)
	for i := range g.Pix {
		g.Pix[i] = 90
	}
	m := foreground(g)

	Estimate(g, m, NewBank(16, 12), 2)

	for _, b := range m.Blocks {
		assert.Equal(t, blockmap.NoDirection, b.Direction)
		assert.False(t, b.Reliable)
		assert.Zero(t, b.Confidence)
	}
}

func TestEstimate_LowConfidence(t *testing.T) {
	g := wave(32, func(x, y int) float64 { return float64(y) })
	m := foreground(g)

	// an unreachable threshold keeps the direction but flags it unreliable
	Estimate(g, m, NewBank(16, 12), 1000)

	b := m.At(1, 1)
	assert.Equal(t, 8, b.Direction)
	assert.False(t, b.Reliable)
}

func TestEstimate_Deterministic(t *testing.T) {
	g := wave(48, func(x, y int) float64 { return float64(3*x+y) / math.Sqrt(10) })
	bank := NewBank(16, 12)

	first := foreground(g)
	second := foreground(g)
	Estimate(g, first, bank, 2)
	Estimate(g, second, bank, 2)

	assert.Equal(t, first.Blocks, second.Blocks)
}

func TestEstimate_ContrastEdge(t *testing.T) {
	// horizontal ridges on the left, a flat bright band from x=36 on
	g := wave(64, func(x, y int) float64 { return float64(y) })
	for y := 0; y < 64; y++ {
		for x := 36; x < 64; x++ {
			g.Set(x, y, 228)
		}
	}
	m := foreground(g)

	Estimate(g, m, NewBank(16, 12), 2)

	for row := 1; row < m.Rows-1; row++ {
		b := m.At(4, row)
		assert.Equal(t, 8, b.Direction, "tile (4,%d)", row)
		assert.True(t, b.Reliable, "tile (4,%d) confidence %.2f", row, b.Confidence)
	}
}

func TestEstimate_StepOnly(t *testing.T) {
	g := raster.NewGray(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if x >= 16 {
				g.Set(x, y, 200)
			} else {
				g.Set(x, y, 50)
			}
		}
	}
	m := foreground(g)

	Estimate(g, m, NewBank(16, 12), 2)

	for row := 0; row < m.Rows; row++ {
		assert.False(t, m.At(1, row).Reliable)
		assert.False(t, m.At(2, row).Reliable)
	}
}

func TestCrossings(t *testing.T) {
	counts := []int{1, 1, 1, 1, 1, 1, 0, 1}
	assert.Equal(t, 6, crossings([]float64{0, 10, 0, 10, 0, 10, 99, 0}, counts))
	assert.Equal(t, 1, crossings([]float64{0, 0, 0, 10, 10, 10, 99, 10}, counts))
	assert.Equal(t, 0, crossings([]float64{5, 5, 5, 5, 5, 5, 5, 5}, counts))
}

func TestPick_TieBreak(t *testing.T) {
	best, confidence := pick([]float64{1, 3, 3, 2})
	assert.Equal(t, 1, best)
	assert.InDelta(t, 3/(9.0/4), confidence, 1e-12)

	best, confidence = pick([]float64{0, 0, 0})
	assert.Equal(t, blockmap.NoDirection, best)
	assert.Zero(t, confidence)
}

func TestNewBank(t *testing.T) {
	bank := NewBank(16, 12)
	require.Equal(t, 16, bank.Units())
	require.Equal(t, 12, bank.Radius())

	for i := 0; i < bank.Units(); i++ {
		require.Len(t, bank.taps[i], len(bank.taps[0]), "every orientation covers the same window")
		for _, tp := range bank.taps[i] {
			assert.GreaterOrEqual(t, tp.bin, 0)
			assert.LessOrEqual(t, tp.bin, 2*bank.Radius())
		}
	}
}
