package fingerprint

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	// Registered decoders accepted by DecodeImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jtejido/go-wsq"
	_ "github.com/spakin/netpbm"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/high-horse/fingerprint/internal/raster"
)

// ErrInvalidImage reports malformed image input.
var ErrInvalidImage = errors.New("invalid image")

// wsqMagic is the WSQ start of image marker.
const wsqMagic = "\xff\xa0"

func init() {
	image.RegisterFormat("wsq", wsqMagic, wsq.Decode, decodeWSQConfig)
}

// decodeWSQConfig decodes the whole image; WSQ headers are only reachable
// through the full decoder.
func decodeWSQConfig(r io.Reader) (image.Config, error) {
	img, err := wsq.Decode(r)
	if err != nil {
		return image.Config{}, err
	}
	b := img.Bounds()
	return image.Config{ColorModel: img.ColorModel(), Width: b.Dx(), Height: b.Dy()}, nil
}

// Image is a grayscale capture. Pix holds Width*Height samples row by row,
// one byte per sample at Depth 8 and two big-endian bytes at Depth 16. Dark
// samples are ridges.
//
// DPI is the scan resolution. Zero means the resolution is unknown and the
// configured one is assumed.
type Image struct {
	Width  int
	Height int
	Depth  int
	Pix    []byte
	DPI    float64
}

// NewImage validates the geometry and copies pix.
func NewImage(width, height, depth int, pix []byte) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, width, height)
	}
	if depth != 8 && depth != 16 {
		return nil, fmt.Errorf("%w: unsupported depth %d", ErrInvalidImage, depth)
	}
	size := width * height * depth / 8
	if len(pix) < size {
		return nil, fmt.Errorf("%w: buffer holds %d bytes, need %d", ErrInvalidImage, len(pix), size)
	}
	buf := make([]byte, size)
	copy(buf, pix)
	return &Image{Width: width, Height: height, Depth: depth, Pix: buf}, nil
}

// NewFromGray wraps an 8-bit gray image.
func NewFromGray(g *image.Gray) (*Image, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	return fromRaster(raster.FromImage(g))
}

// NewFromImage converts any image to gray by luminance.
func NewFromImage(src image.Image) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty bounds", ErrInvalidImage)
	}
	return fromRaster(raster.FromImage(src))
}

// DecodeImage decodes PNG, JPEG, GIF, BMP, TIFF, WSQ or Netpbm data.
func DecodeImage(data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	out, err := NewFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	return out, nil
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func fromRaster(g *raster.Gray) (*Image, error) {
	return NewImage(g.Width, g.Height, 8, g.Pix)
}

// gray returns the 8-bit working raster, keeping the high byte of 16-bit
// samples.
func (img *Image) gray() *raster.Gray {
	g := raster.NewGray(img.Width, img.Height)
	if img.Depth == 16 {
		for i := range g.Pix {
			g.Pix[i] = img.Pix[2*i]
		}
		return g
	}
	copy(g.Pix, img.Pix)
	return g
}

func (img *Image) validate() error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if img.DPI < 0 {
		return fmt.Errorf("%w: negative dpi %v", ErrInvalidImage, img.DPI)
	}
	_, err := NewImage(img.Width, img.Height, img.Depth, img.Pix)
	return err
}
