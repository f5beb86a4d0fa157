package binarize

import (
	"image"
	"math"
	"testing"

	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// horizontalRidges renders ridges with an 8 pixel period; rows 6 mod 8 are the
// darkest (ridge centre) and rows 2 mod 8 the brightest (valley centre).
func horizontalRidges(size int) *raster.Gray {
	g := raster.NewGray(size, size)
	for y := 0; y < size; y++ {
		v := uint8(128 + 100*math.Sin(2*math.Pi*float64(y)/8))
		for x := 0; x < size; x++ {
			g.Set(x, y, v)
		}
	}
	return g
}

func TestNewKernel(t *testing.T) {
	k := NewKernel(16, 7, 9)

	require.Len(t, k.line, 16)
	for i := 0; i < 16; i++ {
		assert.Len(t, k.line[i], 7)
		assert.Len(t, k.grid[i], 63)
		assert.Contains(t, k.line[i], image.Pt(0, 0))
	}
	// orientation 0 runs north-south, orientation 8 east-west
	assert.Contains(t, k.line[0], image.Pt(0, -3))
	assert.Contains(t, k.line[8], image.Pt(3, 0))
}

func TestBinarize_Directional(t *testing.T) {
	g := horizontalRidges(32)
	m := blockmap.New(32, 32, 8)
	m.Fill(8, 10)

	b := Binarize(g, m, NewKernel(16, 7, 9), 15)

	require.Equal(t, 32, b.Width)
	for x := 8; x < 24; x++ {
		assert.True(t, b.At(x, 14), "ridge centre at (%d,14)", x)
		assert.False(t, b.At(x, 10), "valley centre at (%d,10)", x)
	}
}

func TestBinarize_AdaptiveFallback(t *testing.T) {
	g := horizontalRidges(32)
	m := blockmap.New(32, 32, 8)
	m.Fill(blockmap.NoDirection, 0)

	b := Binarize(g, m, NewKernel(16, 7, 9), 15)

	assert.True(t, b.At(16, 14))
	assert.False(t, b.At(16, 10))
}

func TestBinarize_BackgroundIsValley(t *testing.T) {
	g := horizontalRidges(32)
	m := blockmap.New(32, 32, 8)

	b := Binarize(g, m, NewKernel(16, 7, 9), 15)
	assert.Zero(t, b.Count())
}

func TestBinarize_DoesNotMutateInput(t *testing.T) {
	g := horizontalRidges(16)
	before := append([]uint8(nil), g.Pix...)
	m := blockmap.New(16, 16, 8)
	m.Fill(8, 10)

	Binarize(g, m, NewKernel(16, 7, 9), 15)
	assert.Equal(t, before, g.Pix)
}
