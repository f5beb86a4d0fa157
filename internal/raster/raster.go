// Package raster holds the working images of the extraction pipeline: an
// 8-bit gray raster and a two-valued ridge raster. Both use a top-left origin
// with X growing rightward and Y growing downward.
package raster

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Gray is a row-major 8-bit grayscale raster. Dark values are ridges.
type Gray struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGray allocates a black raster.
func NewGray(width, height int) *Gray {
	return &Gray{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// In reports whether (x, y) lies inside the raster.
func (g *Gray) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the sample at (x, y). The caller guarantees the point is inside.
func (g *Gray) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Set stores a sample at (x, y).
func (g *Gray) Set(x, y int, v uint8) {
	g.Pix[y*g.Width+x] = v
}

// Image wraps the raster as an *image.Gray sharing no memory with it.
func (g *Gray) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	copy(img.Pix, g.Pix)
	return img
}

// FromImage converts any image to a gray raster using luminance weights.
func FromImage(img image.Image) *Gray {
	if gray, ok := img.(*image.Gray); ok {
		return fromGray(gray)
	}
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	g := NewGray(b.Dx(), b.Dy())
	for y := 0; y < g.Height; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < g.Width; x++ {
			// imaging.Grayscale writes the same value to R, G and B.
			g.Pix[y*g.Width+x] = row[x*4]
		}
	}
	return g
}

func fromGray(img *image.Gray) *Gray {
	b := img.Bounds()
	g := NewGray(b.Dx(), b.Dy())
	for y := 0; y < g.Height; y++ {
		start := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(g.Pix[y*g.Width:(y+1)*g.Width], img.Pix[start:start+g.Width])
	}
	return g
}

// Smooth returns a Gaussian-blurred copy of g. A non-positive radius returns g.
func Smooth(g *Gray, radius float64) *Gray {
	if radius <= 0 {
		return g
	}
	return FromImage(blur.Gaussian(g.Image(), radius))
}

// Binary is a row-major ridge/valley raster; true marks a ridge pixel.
type Binary struct {
	Width  int
	Height int
	Pix    []bool
}

// NewBinary allocates an all-valley raster.
func NewBinary(width, height int) *Binary {
	return &Binary{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// In reports whether (x, y) lies inside the raster.
func (b *Binary) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns whether (x, y) is a ridge pixel. Points outside are valley.
func (b *Binary) At(x, y int) bool {
	if !b.In(x, y) {
		return false
	}
	return b.Pix[y*b.Width+x]
}

// Set marks (x, y) as ridge or valley.
func (b *Binary) Set(x, y int, ridge bool) {
	b.Pix[y*b.Width+x] = ridge
}

// Clone returns a deep copy.
func (b *Binary) Clone() *Binary {
	c := NewBinary(b.Width, b.Height)
	copy(c.Pix, b.Pix)
	return c
}

// Count returns the number of ridge pixels.
func (b *Binary) Count() int {
	n := 0
	for _, p := range b.Pix {
		if p {
			n++
		}
	}
	return n
}

// Image renders ridges black on a white background.
func (b *Binary) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for i, p := range b.Pix {
		if p {
			img.Pix[i] = 0
		} else {
			img.Pix[i] = 255
		}
	}
	return img
}
