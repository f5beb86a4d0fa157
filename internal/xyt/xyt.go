// Package xyt converts minutiae between the internal pixel convention and the
// canonical XYT convention, and reads and writes the XYT text format.
//
// Canonical minutiae use a bottom-left origin and an angle in degrees counted
// counter-clockwise from east, pointing out of the feature into the adjoining
// valley.
package xyt

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/high-horse/fingerprint/internal/mathx"
	"github.com/high-horse/fingerprint/internal/minutia"
)

// Minutia is a minutia in canonical form. Theta is in [0, 360).
type Minutia struct {
	X           int          `cbor:"1,keyasint" json:"x"`
	Y           int          `cbor:"2,keyasint" json:"y"`
	Theta       int          `cbor:"3,keyasint" json:"theta"`
	Type        minutia.Type `cbor:"4,keyasint" json:"type"`
	Reliability float64      `cbor:"5,keyasint" json:"reliability"`
}

// ToCanonical converts m detected in an image of the given height, with
// directions in units steps per 180 degrees.
func ToCanonical(m minutia.Minutia, height, units int) Minutia {
	step := 180 / float64(units)
	deg := int(math.Round(float64(m.Direction) * step))
	return Minutia{
		X:           m.X,
		Y:           height - m.Y,
		Theta:       mathx.Mod(270-deg, 360),
		Type:        m.Type,
		Reliability: m.Reliability,
	}
}

// FromCanonical reverses ToCanonical. The direction is recovered to within one
// unit; the position exactly.
func FromCanonical(c Minutia, height, units int) minutia.Minutia {
	step := 180 / float64(units)
	d := int(math.Round(float64(270-c.Theta) / step))
	return minutia.Minutia{
		X:           c.X,
		Y:           height - c.Y,
		Direction:   mathx.Mod(d, 2*units),
		Type:        c.Type,
		Reliability: c.Reliability,
	}
}

// Convert maps a detected list to canonical form, preserving order.
func Convert(ms []minutia.Minutia, height, units int) []Minutia {
	out := make([]Minutia, len(ms))
	for i, m := range ms {
		out[i] = ToCanonical(m, height, units)
	}
	return out
}

// Write emits one "x y theta quality type" line per minutia. Quality is the
// reliability scaled to [0, 100]; type is E or B.
func Write(w io.Writer, ms []Minutia) error {
	bw := bufio.NewWriter(w)
	for _, m := range ms {
		q := int(math.Round(mathx.Clamp(m.Reliability, 0, 1) * 100))
		if _, err := fmt.Fprintf(bw, "%d %d %d %d %s\n", m.X, m.Y, m.Theta, q, letter(m.Type)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses XYT text. Blank lines are skipped; lines with four columns are
// taken as ridge endings.
func Read(r io.Reader) ([]Minutia, error) {
	var out []Minutia
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		m, err := parseLine(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseLine(fields []string) (Minutia, error) {
	if len(fields) != 4 && len(fields) != 5 {
		return Minutia{}, fmt.Errorf("expected 4 or 5 columns, got %d", len(fields))
	}
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return Minutia{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		v[i] = n
	}
	if v[2] < 0 || v[2] >= 360 {
		return Minutia{}, fmt.Errorf("theta %d out of range", v[2])
	}
	if v[3] < 0 || v[3] > 100 {
		return Minutia{}, fmt.Errorf("quality %d out of range", v[3])
	}
	m := Minutia{X: v[0], Y: v[1], Theta: v[2], Reliability: float64(v[3]) / 100}
	if len(fields) == 5 {
		switch strings.ToUpper(fields[4]) {
		case "E":
			m.Type = minutia.Ending
		case "B":
			m.Type = minutia.Bifurcation
		default:
			return Minutia{}, fmt.Errorf("unknown type %q", fields[4])
		}
	}
	return m, nil
}

func letter(t minutia.Type) string {
	if t == minutia.Bifurcation {
		return "B"
	}
	return "E"
}
