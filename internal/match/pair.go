package match

import (
	"math"

	"github.com/high-horse/fingerprint/config"
	"github.com/high-horse/fingerprint/internal/mathx"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// pairUp maps every probe point through t and links it to the closest free
// candidate point within the distance and angle tolerances.
func pairUp(probe, candidate []point, t Transform, cfg config.Matching) []Pair {
	type link struct {
		Pair
		dist float64
	}
	var links []link
	for i, q := range probe {
		m := t.apply(q)
		for j, c := range candidate {
			d := math.Hypot(m.x-c.x, m.y-c.y)
			if d > cfg.DistanceTolerance || mathx.AngleDiff(m.theta, c.theta) > cfg.AngleTolerance {
				continue
			}
			links = append(links, link{Pair: Pair{Probe: i, Candidate: j}, dist: d})
		}
	}
	slices.SortStableFunc(links, func(a, b link) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})

	usedP := make([]bool, len(probe))
	usedC := make([]bool, len(candidate))
	var pairs []Pair
	for _, l := range links {
		if usedP[l.Probe] || usedC[l.Candidate] {
			continue
		}
		usedP[l.Probe] = true
		usedC[l.Candidate] = true
		pairs = append(pairs, l.Pair)
	}
	slices.SortFunc(pairs, func(a, b Pair) int { return a.Probe - b.Probe })
	return pairs
}

// refine fits a similarity transform to the pairs by least squares and keeps
// its rotation, recomputing the translation from the centroids so the result
// stays rigid.
func refine(probe, candidate []point, pairs []Pair) (Transform, bool) {
	n := len(pairs)
	A := mat.NewDense(n*2, 4, nil)
	B := mat.NewVecDense(n*2, nil)
	var px, py, cx, cy float64
	for k, pr := range pairs {
		p, c := probe[pr.Probe], candidate[pr.Candidate]
		A.Set(k*2, 0, p.x)
		A.Set(k*2, 1, -p.y)
		A.Set(k*2, 2, 1)
		B.SetVec(k*2, c.x)

		A.Set(k*2+1, 0, p.y)
		A.Set(k*2+1, 1, p.x)
		A.Set(k*2+1, 3, 1)
		B.SetVec(k*2+1, c.y)

		px += p.x
		py += p.y
		cx += c.x
		cy += c.y
	}

	var qr mat.QR
	qr.Factorize(A)
	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return Transform{}, false
	}
	a, b := params.AtVec(0), params.AtVec(1)
	if a == 0 && b == 0 {
		return Transform{}, false
	}

	t := Transform{Rotation: mathx.NormalizeDegrees(math.Atan2(b, a) * 180 / math.Pi)}
	mean := t.apply(point{x: px / float64(n), y: py / float64(n)})
	t.DX = cx/float64(n) - mean.x
	t.DY = cy/float64(n) - mean.y
	return t, true
}
