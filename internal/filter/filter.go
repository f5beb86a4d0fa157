// Package filter prunes detector candidates with an ordered chain of removal
// rules. Rules only drop minutiae; they never add or move one.
package filter

import (
	"github.com/high-horse/fingerprint/config"
	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/minutia"
	"github.com/high-horse/fingerprint/internal/raster"
	"golang.org/x/exp/slices"
)

// Context is the read-only state every rule may consult.
type Context struct {
	Width    int
	Height   int
	Blocks   *blockmap.Map
	Skeleton *raster.Binary
	Units    int
}

// Rule removes minutiae from a list. Apply must not modify its input slice.
type Rule interface {
	Name() string
	Apply(ms []minutia.Minutia, ctx *Context) []minutia.Minutia
}

// Chain applies rules in order.
type Chain struct {
	rules []Rule
}

// NewChain builds the standard rule order: border, low confidence, islands,
// duplicates and, when enabled, ridge-count consistency.
func NewChain(cfg config.Extraction) *Chain {
	rules := []Rule{
		Border{Margin: cfg.BorderMargin},
		LowConfidence{},
		Islands{Length: cfg.IslandLength},
		Duplicates{Radius: cfg.DuplicateRadius},
	}
	if cfg.RidgeCount {
		rules = append(rules, RidgeCount{
			Radius:    cfg.RidgeCountRadius,
			Tolerance: cfg.RidgeCountTolerance,
			Angle:     cfg.RidgeCountAngle,
			Window:    cfg.WindowRadius,
		})
	}
	return &Chain{rules: rules}
}

// Of builds a chain from explicit rules.
func Of(rules ...Rule) *Chain {
	return &Chain{rules: rules}
}

// Rules returns the rules in application order.
func (c *Chain) Rules() []Rule {
	return slices.Clone(c.rules)
}

// Apply runs every rule and returns the survivors ordered by position.
func (c *Chain) Apply(ms []minutia.Minutia, ctx *Context) []minutia.Minutia {
	out := slices.Clone(ms)
	minutia.Sort(out)
	for _, r := range c.rules {
		out = r.Apply(out, ctx)
	}
	return out
}

// keepIf returns the minutiae satisfying keep, preserving order.
func keepIf(ms []minutia.Minutia, keep func(minutia.Minutia) bool) []minutia.Minutia {
	out := make([]minutia.Minutia, 0, len(ms))
	for _, m := range ms {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// byReliability returns the indices of ms from most to least reliable. Ties
// keep the input order, which Chain.Apply makes positional.
func byReliability(ms []minutia.Minutia) []int {
	idx := make([]int, len(ms))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case ms[a].Reliability > ms[b].Reliability:
			return -1
		case ms[a].Reliability < ms[b].Reliability:
			return 1
		}
		return 0
	})
	return idx
}

// greedy keeps minutiae in reliability order while compatible with every
// minutia already kept, and returns the survivors in input order.
func greedy(ms []minutia.Minutia, conflict func(a, b minutia.Minutia) bool) []minutia.Minutia {
	kept := make([]bool, len(ms))
	var accepted []int
	for _, i := range byReliability(ms) {
		ok := true
		for _, j := range accepted {
			if conflict(ms[i], ms[j]) {
				ok = false
				break
			}
		}
		if ok {
			kept[i] = true
			accepted = append(accepted, i)
		}
	}
	out := make([]minutia.Minutia, 0, len(accepted))
	for i, m := range ms {
		if kept[i] {
			out = append(out, m)
		}
	}
	return out
}
