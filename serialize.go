package fingerprint

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/high-horse/fingerprint/internal/xyt"
)

// ErrInvalidTemplate reports serialized template data that cannot be decoded
// or that breaks a template invariant.
var ErrInvalidTemplate = errors.New("invalid template")

const templateVersion = 1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}).DecMode(); err != nil {
		panic(err)
	}
}

type templateWire struct {
	Version  int       `cbor:"1,keyasint"`
	Width    int       `cbor:"2,keyasint"`
	Height   int       `cbor:"3,keyasint"`
	DPI      float64   `cbor:"4,keyasint"`
	Minutiae []Minutia `cbor:"5,keyasint"`
}

// Serialize encodes the template as canonical CBOR. Equal templates always
// produce identical bytes.
func (t *Template) Serialize() ([]byte, error) {
	return encMode.Marshal(templateWire{
		Version:  templateVersion,
		Width:    t.Width,
		Height:   t.Height,
		DPI:      t.DPI,
		Minutiae: t.Minutiae,
	})
}

// DeserializeTemplate decodes and validates data produced by Serialize.
func DeserializeTemplate(data []byte) (*Template, error) {
	var w templateWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if w.Version != templateVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidTemplate, w.Version)
	}
	t := &Template{Width: w.Width, Height: w.Height, DPI: w.DPI, Minutiae: w.Minutiae}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the dimensions, the range of every minutia and that no two
// minutiae share a position.
func (t *Template) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidTemplate, t.Width, t.Height)
	}
	if t.DPI < 0 || math.IsNaN(t.DPI) || math.IsInf(t.DPI, 0) {
		return fmt.Errorf("%w: dpi %v", ErrInvalidTemplate, t.DPI)
	}
	seen := make(map[image.Point]struct{}, len(t.Minutiae))
	for i, m := range t.Minutiae {
		switch {
		case m.X < 0 || m.X >= t.Width || m.Y < 0 || m.Y > t.Height:
			return fmt.Errorf("%w: minutia %d at (%d,%d) outside %dx%d", ErrInvalidTemplate, i, m.X, m.Y, t.Width, t.Height)
		case m.Theta < 0 || m.Theta >= 360:
			return fmt.Errorf("%w: minutia %d angle %d", ErrInvalidTemplate, i, m.Theta)
		case m.Type != Ending && m.Type != Bifurcation:
			return fmt.Errorf("%w: minutia %d type %d", ErrInvalidTemplate, i, int(m.Type))
		case !(m.Reliability >= 0 && m.Reliability <= 1):
			return fmt.Errorf("%w: minutia %d reliability %v", ErrInvalidTemplate, i, m.Reliability)
		}
		p := image.Pt(m.X, m.Y)
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: two minutiae at (%d,%d)", ErrInvalidTemplate, m.X, m.Y)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// WriteXYT writes the minutiae as XYT text lines.
func (t *Template) WriteXYT(w io.Writer) error {
	return xyt.Write(w, t.Minutiae)
}

// ReadXYT builds a template of the given dimensions from XYT text. The
// resolution is left unknown.
func ReadXYT(r io.Reader, width, height int) (*Template, error) {
	ms, err := xyt.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	t := &Template{Width: width, Height: height, Minutiae: ms}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
