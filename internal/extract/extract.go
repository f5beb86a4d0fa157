// Package extract chains the extraction stages: smoothing, segmentation,
// direction estimation, binarization, thinning, detection and filtering.
package extract

import (
	"time"

	"github.com/high-horse/fingerprint/config"
	"github.com/high-horse/fingerprint/internal/binarize"
	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/detect"
	"github.com/high-horse/fingerprint/internal/direction"
	"github.com/high-horse/fingerprint/internal/filter"
	"github.com/high-horse/fingerprint/internal/minutia"
	"github.com/high-horse/fingerprint/internal/raster"
	"github.com/high-horse/fingerprint/internal/segment"
	"github.com/high-horse/fingerprint/internal/skeleton"
)

// Stage names a stage boundary reported to an Observer.
type Stage string

const (
	Segmentation Stage = "segmentation"
	DirectionMap Stage = "direction-map"
	Binarized    Stage = "binarized"
	Skeleton     Stage = "skeleton"
	Candidates   Stage = "candidates"
	Minutiae     Stage = "minutiae"
)

// Observer is called after every stage with the time the stage took and its
// output: a *blockmap.Map, a *raster.Binary or a []minutia.Minutia. The data
// is only valid for the duration of the call. A returned error aborts the
// run.
type Observer interface {
	Observe(stage Stage, elapsed time.Duration, data any) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(stage Stage, elapsed time.Duration, data any) error

func (f ObserverFunc) Observe(stage Stage, elapsed time.Duration, data any) error {
	return f(stage, elapsed, data)
}

// Result holds the working state of one run.
type Result struct {
	Blocks     *blockmap.Map
	Binary     *raster.Binary
	Skeleton   *raster.Binary
	Candidates []minutia.Minutia
	Minutiae   []minutia.Minutia
}

// Pipeline holds the precomputed tables of one configuration. It is immutable
// and safe for concurrent use.
type Pipeline struct {
	cfg    config.Extraction
	bank   *direction.Bank
	kernel *binarize.Kernel
	chain  *filter.Chain
}

// New precomputes the direction bank, the binarization kernel and the filter
// chain for cfg.
func New(cfg config.Extraction) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		bank:   direction.NewBank(cfg.DirectionUnits, cfg.WindowRadius),
		kernel: binarize.NewKernel(cfg.DirectionUnits, cfg.LineLength, cfg.GridRows),
		chain:  filter.NewChain(cfg),
	}
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.Extraction {
	return p.cfg
}

// Run extracts minutiae from g. obs may be nil.
func (p *Pipeline) Run(g *raster.Gray, obs Observer) (*Result, error) {
	cfg := p.cfg
	res := &Result{}
	clock := time.Now()
	report := func(stage Stage, data any) error {
		now := time.Now()
		elapsed := now.Sub(clock)
		clock = now
		if obs == nil {
			return nil
		}
		return obs.Observe(stage, elapsed, data)
	}

	g = raster.Smooth(g, cfg.SmoothRadius)
	res.Blocks = segment.Segment(g, cfg.TileSize, cfg.VarianceThreshold)
	if err := report(Segmentation, res.Blocks); err != nil {
		return nil, err
	}

	direction.Estimate(g, res.Blocks, p.bank, cfg.ConfidenceThreshold)
	if err := report(DirectionMap, res.Blocks); err != nil {
		return nil, err
	}

	res.Binary = binarize.Binarize(g, res.Blocks, p.kernel, cfg.AdaptiveWindow)
	if err := report(Binarized, res.Binary); err != nil {
		return nil, err
	}

	res.Skeleton = skeleton.Thin(res.Binary)
	if err := report(Skeleton, res.Skeleton); err != nil {
		return nil, err
	}

	res.Candidates = detect.Detect(res.Skeleton, res.Blocks, cfg.DirectionUnits, cfg.TraceLength)
	if err := report(Candidates, res.Candidates); err != nil {
		return nil, err
	}

	res.Minutiae = p.chain.Apply(res.Candidates, &filter.Context{
		Width:    g.Width,
		Height:   g.Height,
		Blocks:   res.Blocks,
		Skeleton: res.Skeleton,
		Units:    cfg.DirectionUnits,
	})
	if err := report(Minutiae, res.Minutiae); err != nil {
		return nil, err
	}
	return res, nil
}
