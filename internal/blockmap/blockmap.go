// Package blockmap is the tile grid shared by segmentation, direction
// estimation, binarization and minutia filtering.
package blockmap

import "image"

// NoDirection marks a block without an estimated direction.
const NoDirection = -1

// Block is the per-tile result of segmentation and direction estimation.
type Block struct {
	Foreground bool
	Variance   float64

	// Direction is an orientation index in [0, units) or NoDirection.
	Direction int
	// Confidence is the peak-to-average ratio of the direction responses.
	Confidence float64
	// Reliable is set when Confidence reached the configured threshold.
	Reliable bool
}

// Map covers an image with Cols x Rows tiles of Tile pixels. Edge tiles are
// clipped to the image.
type Map struct {
	Width  int
	Height int
	Tile   int
	Cols   int
	Rows   int
	Blocks []Block
}

// New allocates a background map for a width x height image.
func New(width, height, tile int) *Map {
	cols := (width + tile - 1) / tile
	rows := (height + tile - 1) / tile
	m := &Map{
		Width:  width,
		Height: height,
		Tile:   tile,
		Cols:   cols,
		Rows:   rows,
		Blocks: make([]Block, cols*rows),
	}
	for i := range m.Blocks {
		m.Blocks[i].Direction = NoDirection
	}
	return m
}

// At returns the block at tile (col, row).
func (m *Map) At(col, row int) *Block {
	return &m.Blocks[row*m.Cols+col]
}

// ForPixel returns the block containing pixel (x, y), or nil outside the image.
func (m *Map) ForPixel(x, y int) *Block {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return nil
	}
	return m.At(x/m.Tile, y/m.Tile)
}

// Bounds returns the pixel rectangle of tile (col, row), clipped to the image.
func (m *Map) Bounds(col, row int) image.Rectangle {
	r := image.Rect(col*m.Tile, row*m.Tile, (col+1)*m.Tile, (row+1)*m.Tile)
	return r.Intersect(image.Rect(0, 0, m.Width, m.Height))
}

// Foreground counts foreground tiles.
func (m *Map) Foreground() int {
	n := 0
	for i := range m.Blocks {
		if m.Blocks[i].Foreground {
			n++
		}
	}
	return n
}

// Fill marks every block foreground with the given reliable direction and
// confidence. It is used to build synthetic maps.
func (m *Map) Fill(direction int, confidence float64) {
	for i := range m.Blocks {
		m.Blocks[i] = Block{
			Foreground: true,
			Direction:  direction,
			Confidence: confidence,
			Reliable:   direction != NoDirection,
		}
	}
}
