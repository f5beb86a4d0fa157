package fingerprint

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/high-horse/fingerprint/config"
	"github.com/high-horse/fingerprint/internal/match"
)

// MatchResult is the outcome of one comparison. Score grows with similarity;
// Pairs is the number of corresponding minutiae behind it.
type MatchResult struct {
	Score float64 `json:"score"`
	Pairs int     `json:"pairs"`
}

// Candidate is one ranked result of Identify. Index refers to the candidate
// slice passed in.
type Candidate struct {
	Index int `json:"index"`
	MatchResult
}

// Matcher compares one probe template against candidates.
type Matcher struct {
	cfg     config.Matching
	workers int
	probe   match.Set
	logger  *TransparencyLogger
}

// NewMatcher prepares probe for comparison. A nil cfg selects the defaults
// and unset fields take their default values.
func NewMatcher(cfg *config.Config, logger *TransparencyLogger, probe *Template) (*Matcher, error) {
	if probe == nil {
		return nil, fmt.Errorf("%w: nil probe", ErrInvalidTemplate)
	}
	cfg, err := config.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		cfg:     cfg.Matching,
		workers: cfg.WorkerCount(),
		probe:   toSet(probe),
		logger:  logger,
	}, nil
}

func toSet(t *Template) match.Set {
	return match.Set{Width: t.Width, Height: t.Height, Minutiae: t.Minutiae}
}

// Match scores candidate against the probe. An empty template on either side
// scores zero.
func (m *Matcher) Match(ctx context.Context, candidate *Template) (MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return MatchResult{}, err
	}
	if candidate == nil {
		return MatchResult{}, fmt.Errorf("%w: nil candidate", ErrInvalidTemplate)
	}
	res := match.Match(m.probe, toSet(candidate), m.cfg)
	if err := m.logger.logCBOR(KeyMatch, res); err != nil {
		return MatchResult{}, fmt.Errorf("transparency: %w", err)
	}
	return MatchResult{Score: res.Score, Pairs: len(res.Pairs)}, nil
}

// Identify matches every candidate on a pool of workers and returns the
// results by descending score, ties by index. The first failure, or the
// cancellation of ctx, stops the remaining work.
func (m *Matcher) Identify(ctx context.Context, candidates []*Template) ([]Candidate, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	results := make([]Candidate, len(candidates))
	for i := range candidates {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			res, err := m.Match(gctx, candidates[i])
			if err != nil {
				return err
			}
			results[i] = Candidate{Index: i, MatchResult: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(results, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return a.Index - b.Index
	})
	return results, nil
}
