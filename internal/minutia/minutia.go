// Package minutia defines the minutia value produced by detection, in the
// internal pixel convention: top-left origin and a direction counted in
// 180/units degree steps clockwise from north, pointing into the feature.
package minutia

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// Type distinguishes ridge endings from bifurcations.
type Type int

const (
	Ending Type = iota
	Bifurcation
)

func (t Type) String() string {
	switch t {
	case Ending:
		return "ending"
	case Bifurcation:
		return "bifurcation"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Minutia is a detected feature. Direction is in [0, 2*units).
type Minutia struct {
	X           int
	Y           int
	Direction   int
	Type        Type
	Reliability float64
}

// Sort orders minutiae by row, then column, then type.
func Sort(ms []Minutia) {
	slices.SortFunc(ms, func(a, b Minutia) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
}
