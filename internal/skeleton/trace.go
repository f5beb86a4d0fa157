package skeleton

import (
	"image"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/high-horse/fingerprint/internal/mathx"
	"github.com/high-horse/fingerprint/internal/raster"
)

// Stop tells why a trace ended.
type Stop int

const (
	// Open means the step budget ran out on a continuing ridge.
	Open Stop = iota
	// DeadEnd means the ridge ended.
	DeadEnd
	// Junction means the ridge reached another bifurcation.
	Junction
)

// clusterRadius is the Chebyshev distance within which junction pixels are
// treated as part of the junction a trace started from.
const clusterRadius = 2

// follow order: orthogonal neighbours first so staircase corners are walked
// pixel by pixel instead of being cut diagonally.
var follow = [8]int{0, 2, 4, 6, 1, 3, 5, 7}

// Path is the outcome of following a ridge.
type Path struct {
	End   image.Point
	Steps int
	Stop  Stop
}

// Branch is one ridge leaving a pixel: its first pixel and the pixels that
// belong to the other ridges around the same origin.
type Branch struct {
	Start   image.Point
	exclude []image.Point
}

// Branches returns one Branch per run of ridge neighbours around p. Within a
// run the orthogonal neighbour is preferred as the starting pixel.
func Branches(b *raster.Binary, p image.Point) []Branch {
	n := Neighbours(b, p.X, p.Y)
	var runs [][]image.Point
	// start scanning just after a valley neighbour so runs are not split
	first := -1
	for i := 0; i < 8; i++ {
		if !n[i] {
			first = i
			break
		}
	}
	if first < 0 {
		return nil
	}
	for k := 1; k <= 8; k++ {
		i := (first + k) % 8
		if !n[i] {
			continue
		}
		pt := p.Add(ring[i])
		if n[(i+7)%8] {
			runs[len(runs)-1] = append(runs[len(runs)-1], pt)
		} else {
			runs = append(runs, []image.Point{pt})
		}
	}

	branches := make([]Branch, len(runs))
	for r, run := range runs {
		start := run[0]
		for _, pt := range run {
			if pt.X == p.X || pt.Y == p.Y {
				start = pt
				break
			}
		}
		var exclude []image.Point
		for o, other := range runs {
			if o != r {
				exclude = append(exclude, other...)
			}
		}
		branches[r] = Branch{Start: start, exclude: exclude}
	}
	return branches
}

// Follow walks the ridge from origin through br for at most maxSteps pixels.
func Follow(b *raster.Binary, origin image.Point, br Branch, maxSteps int) Path {
	visited := make([]image.Point, 0, maxSteps+len(br.exclude)+2)
	visited = append(visited, origin, br.Start)
	visited = append(visited, br.exclude...)
	seen := func(p image.Point) bool {
		for _, v := range visited {
			if v == p {
				return true
			}
		}
		return false
	}

	cur := br.Start
	steps := 1
	for {
		if chebyshev(cur, origin) > clusterRadius && CrossingNumber(b, cur.X, cur.Y) >= 3 {
			return Path{End: cur, Steps: steps, Stop: Junction}
		}
		if steps >= maxSteps {
			return Path{End: cur, Steps: steps, Stop: Open}
		}
		next, ok := image.Point{}, false
		for _, i := range follow {
			cand := cur.Add(ring[i])
			if b.At(cand.X, cand.Y) && !seen(cand) {
				next, ok = cand, true
				break
			}
		}
		if !ok {
			return Path{End: cur, Steps: steps, Stop: DeadEnd}
		}
		visited = append(visited, next)
		cur = next
		steps++
	}
}

// ComponentSize counts the ridge pixels 8-connected to p, stopping once limit
// pixels have been seen.
func ComponentSize(b *raster.Binary, p image.Point, limit int) int {
	if !b.At(p.X, p.Y) {
		return 0
	}
	seen := map[image.Point]struct{}{p: {}}
	stack := arraystack.New()
	stack.Push(p)
	for !stack.Empty() && len(seen) < limit {
		v, _ := stack.Pop()
		cur := v.(image.Point)
		for _, o := range ring {
			n := cur.Add(o)
			if _, ok := seen[n]; ok || !b.At(n.X, n.Y) {
				continue
			}
			seen[n] = struct{}{}
			stack.Push(n)
		}
	}
	return len(seen)
}

func chebyshev(a, b image.Point) int {
	dx := mathx.Abs(a.X - b.X)
	dy := mathx.Abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}
