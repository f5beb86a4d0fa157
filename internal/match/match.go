// Package match scores the similarity of two canonical minutia sets.
//
// Every minutia is paired with its nearest neighbours and each pair is
// described by its length and by the angles both minutiae make with it. Those
// descriptors do not change under rotation or translation, so compatible
// descriptors across the two sets each imply one rigid transform. Transforms
// backed by the most other correspondences are verified by pairing minutiae
// one-to-one under them and refined by least squares. The score is the largest
// number of pairs found.
package match

import (
	"math"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/high-horse/fingerprint/config"
	"github.com/high-horse/fingerprint/internal/mathx"
	"github.com/high-horse/fingerprint/internal/xyt"
)

// Set is one side of a comparison. The dimensions only centre the
// coordinates and bound the translation search.
type Set struct {
	Width    int
	Height   int
	Minutiae []xyt.Minutia
}

// Transform maps probe coordinates, relative to the probe image centre, onto
// candidate coordinates relative to the candidate image centre. Rotation is
// in degrees counter-clockwise.
type Transform struct {
	Rotation float64 `cbor:"1,keyasint" json:"rotation"`
	DX       float64 `cbor:"2,keyasint" json:"dx"`
	DY       float64 `cbor:"3,keyasint" json:"dy"`
}

// Pair links a probe minutia to a candidate minutia by index.
type Pair struct {
	Probe     int `cbor:"1,keyasint" json:"probe"`
	Candidate int `cbor:"2,keyasint" json:"candidate"`
}

// Result is the outcome of one comparison. Score is the size of the largest
// consistent correspondence cluster; Pairs lists its members.
type Result struct {
	Score     float64   `cbor:"1,keyasint" json:"score"`
	Pairs     []Pair    `cbor:"2,keyasint" json:"pairs"`
	Transform Transform `cbor:"3,keyasint" json:"transform"`
}

type point struct {
	x, y  float64
	theta float64
}

// Match compares probe against candidate. It is deterministic and holds no
// state. Sets with fewer than two minutiae score zero, a single minutia
// compared with itself included: one point carries no pair descriptor and so
// no transform to verify.
func Match(probe, candidate Set, cfg config.Matching) Result {
	if len(probe.Minutiae) < 2 || len(candidate.Minutiae) < 2 {
		return Result{}
	}
	p := centred(probe)
	c := centred(candidate)
	bound := (diagonal(probe) + diagonal(candidate)) / 2

	pe := edges(p, cfg.Neighbors)
	ce := edges(c, cfg.Neighbors)
	votes := correspondences(p, pe, ce, cfg, bound)
	if len(votes) == 0 {
		return Result{}
	}

	var best Result
	for _, seed := range seeds(votes, cfg) {
		t := seed
		pairs := pairUp(p, c, t, cfg)
		for round := 0; round < cfg.Refinements && len(pairs) >= 2; round++ {
			refined, ok := refine(p, c, pairs)
			if !ok || refined == t {
				break
			}
			next := pairUp(p, c, refined, cfg)
			if len(next) < len(pairs) {
				break
			}
			t, pairs = refined, next
		}
		if len(pairs) > len(best.Pairs) {
			best = Result{Score: float64(len(pairs)), Pairs: pairs, Transform: t}
		}
	}
	return best
}

func centred(s Set) []point {
	cx, cy := float64(s.Width)/2, float64(s.Height)/2
	out := make([]point, len(s.Minutiae))
	for i, m := range s.Minutiae {
		out[i] = point{x: float64(m.X) - cx, y: float64(m.Y) - cy, theta: float64(m.Theta)}
	}
	return out
}

func diagonal(s Set) float64 {
	return math.Hypot(float64(s.Width), float64(s.Height))
}

// apply maps a probe point through t.
func (t Transform) apply(q point) point {
	sin, cos := math.Sincos(t.Rotation * math.Pi / 180)
	return point{
		x:     q.x*cos - q.y*sin + t.DX,
		y:     q.x*sin + q.y*cos + t.DY,
		theta: mathx.NormalizeDegrees(q.theta + t.Rotation),
	}
}

// cell is a bin of the transform accumulator. Rotation bins are
// AngleTolerance wide, translation bins DistanceTolerance wide.
type cell struct {
	r, x, y int
}

// bin accumulates the votes falling into one cell.
type bin struct {
	key      cell
	count    int
	sin, cos float64
	dx, dy   float64
}

// mean is the average transform of the votes in b.
func (b *bin) mean() Transform {
	n := float64(b.count)
	return Transform{
		Rotation: mathx.NormalizeDegrees(math.Atan2(b.sin, b.cos) * 180 / math.Pi),
		DX:       b.dx / n,
		DY:       b.dy / n,
	}
}

// seeds bins the votes by rotation and translation and returns the mean
// transforms of the cells whose neighbourhood holds the most votes, strongest
// first. Ties keep the order in which cells were first voted for.
func seeds(votes []Transform, cfg config.Matching) []Transform {
	rotations := int(math.Ceil(360 / cfg.AngleTolerance))
	index := make(map[cell]*bin)
	var bins []*bin
	for _, v := range votes {
		k := cell{
			r: int(mathx.NormalizeDegrees(v.Rotation)/cfg.AngleTolerance) % rotations,
			x: int(math.Floor(v.DX / cfg.DistanceTolerance)),
			y: int(math.Floor(v.DY / cfg.DistanceTolerance)),
		}
		b, ok := index[k]
		if !ok {
			b = &bin{key: k}
			index[k] = b
			bins = append(bins, b)
		}
		sin, cos := math.Sincos(v.Rotation * math.Pi / 180)
		b.count++
		b.sin += sin
		b.cos += cos
		b.dx += v.DX
		b.dy += v.DY
	}

	type ranked struct {
		index   int
		support int
	}
	h := binaryheap.NewWith(func(a, b interface{}) int {
		x, y := a.(ranked), b.(ranked)
		if x.support != y.support {
			return y.support - x.support
		}
		return x.index - y.index
	})
	for i, b := range bins {
		support := 0
		for dr := -1; dr <= 1; dr++ {
			r := mathx.Mod(b.key.r+dr, rotations)
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					if n, ok := index[cell{r: r, x: b.key.x + dx, y: b.key.y + dy}]; ok {
						support += n.count
					}
				}
			}
		}
		h.Push(ranked{index: i, support: support})
	}

	out := make([]Transform, 0, cfg.Seeds)
	for len(out) < cfg.Seeds {
		v, ok := h.Pop()
		if !ok {
			break
		}
		out = append(out, bins[v.(ranked).index].mean())
	}
	return out
}
