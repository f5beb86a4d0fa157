package match

import (
	"math"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/high-horse/fingerprint/config"
	"github.com/high-horse/fingerprint/internal/mathx"
	"golang.org/x/exp/slices"
)

// edge is a directed pair of minutiae. length, beta1 and beta2 do not depend
// on position or rotation; angle and the midpoint recover the transform.
type edge struct {
	from, to int
	length   float64
	// angle is the direction of the segment from -> to.
	angle float64
	// beta1 and beta2 are the minutia angles relative to the segment.
	beta1, beta2 float64
	midX, midY   float64
}

type neighbour struct {
	index int
	dist  float64
}

// edges links every point with its k nearest neighbours in both directions.
func edges(pts []point, k int) []edge {
	seen := make(map[[2]int]struct{})
	var out []edge
	add := func(i, j int) {
		key := [2]int{i, j}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, newEdge(pts, i, j))
	}

	for i := range pts {
		// farthest on top so it is evicted first
		h := binaryheap.NewWith(func(a, b interface{}) int {
			x, y := a.(neighbour), b.(neighbour)
			switch {
			case x.dist > y.dist:
				return -1
			case x.dist < y.dist:
				return 1
			}
			return y.index - x.index
		})
		for j := range pts {
			if j == i {
				continue
			}
			h.Push(neighbour{index: j, dist: math.Hypot(pts[j].x-pts[i].x, pts[j].y-pts[i].y)})
			if h.Size() > k {
				h.Pop()
			}
		}
		near := make([]int, 0, h.Size())
		for _, v := range h.Values() {
			near = append(near, v.(neighbour).index)
		}
		slices.Sort(near)
		for _, j := range near {
			add(i, j)
			add(j, i)
		}
	}
	return out
}

func newEdge(pts []point, i, j int) edge {
	a, b := pts[i], pts[j]
	angle := mathx.NormalizeDegrees(math.Atan2(b.y-a.y, b.x-a.x) * 180 / math.Pi)
	return edge{
		from:   i,
		to:     j,
		length: math.Hypot(b.x-a.x, b.y-a.y),
		angle:  angle,
		beta1:  mathx.NormalizeDegrees(a.theta - angle),
		beta2:  mathx.NormalizeDegrees(b.theta - angle),
		midX:   (a.x + b.x) / 2,
		midY:   (a.y + b.y) / 2,
	}
}

func compatible(a, b edge, cfg config.Matching) bool {
	return math.Abs(a.length-b.length) <= cfg.DistanceTolerance &&
		mathx.AngleDiff(a.beta1, b.beta1) <= cfg.AngleTolerance &&
		mathx.AngleDiff(a.beta2, b.beta2) <= cfg.AngleTolerance
}

// correspondences returns the transform implied by every compatible pair of
// probe and candidate edges whose translation stays within bound.
func correspondences(probe []point, pe, ce []edge, cfg config.Matching, bound float64) []Transform {
	var out []Transform
	for _, a := range pe {
		for _, b := range ce {
			if !compatible(a, b, cfg) {
				continue
			}
			rot := mathx.NormalizeDegrees(b.angle - a.angle)
			t := Transform{Rotation: rot}
			// align the segment midpoints
			pa, pb := t.apply(probe[a.from]), t.apply(probe[a.to])
			t.DX = b.midX - (pa.x+pb.x)/2
			t.DY = b.midY - (pa.y+pb.y)/2
			if math.Hypot(t.DX, t.DY) > bound {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}
