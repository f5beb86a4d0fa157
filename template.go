package fingerprint

import (
	"fmt"
	"math"

	"github.com/disintegration/imaging"

	"github.com/high-horse/fingerprint/config"
	"github.com/high-horse/fingerprint/internal/extract"
	"github.com/high-horse/fingerprint/internal/minutia"
	"github.com/high-horse/fingerprint/internal/raster"
	"github.com/high-horse/fingerprint/internal/xyt"
)

// Minutia is a ridge ending or bifurcation in canonical XYT form: X grows
// rightward, Y grows upward from the bottom edge and Theta is in degrees
// counter-clockwise from east, pointing out of the feature.
type Minutia = xyt.Minutia

// MinutiaType tells ridge endings from bifurcations.
type MinutiaType = minutia.Type

const (
	Ending      = minutia.Ending
	Bifurcation = minutia.Bifurcation
)

// Template is the minutiae of one capture together with the dimensions of
// the image they were found in. An empty Template is a valid result for an
// image without usable ridges.
type Template struct {
	Width    int
	Height   int
	DPI      float64
	Minutiae []Minutia
}

// resampleTolerance is the relative DPI difference below which an image is
// processed at its native resolution.
const resampleTolerance = 0.01

// TemplateCreator extracts templates with a fixed configuration.
type TemplateCreator struct {
	cfg      config.Extraction
	pipeline *extract.Pipeline
	logger   *TransparencyLogger
}

// NewTemplateCreator builds the extraction tables for cfg. A nil cfg selects
// the defaults, unset fields take their default values and a nil logger
// disables transparency.
func NewTemplateCreator(cfg *config.Config, logger *TransparencyLogger) (*TemplateCreator, error) {
	cfg, err := config.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return &TemplateCreator{
		cfg:      cfg.Extraction,
		pipeline: extract.New(cfg.Extraction),
		logger:   logger,
	}, nil
}

// Template extracts the minutiae of img. Only malformed input and
// transparency failures are errors.
func (tc *TemplateCreator) Template(img *Image) (*Template, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}
	g := tc.normalize(img)

	units := tc.cfg.DirectionUnits
	res, err := tc.pipeline.Run(g, tc.logger.observer(g.Height, units))
	if err != nil {
		return nil, fmt.Errorf("transparency: %w", err)
	}

	t := &Template{
		Width:    g.Width,
		Height:   g.Height,
		DPI:      tc.cfg.DPI,
		Minutiae: xyt.Convert(res.Minutiae, g.Height, units),
	}
	if tc.logger.accepts(KeyTemplate) {
		data, err := t.Serialize()
		if err != nil {
			return nil, err
		}
		if err := tc.logger.contents.Accept(KeyTemplate, MimeCBOR, data); err != nil {
			return nil, fmt.Errorf("transparency: %w", err)
		}
	}
	return t, nil
}

// normalize returns the working raster of img at the configured resolution.
func (tc *TemplateCreator) normalize(img *Image) *raster.Gray {
	g := img.gray()
	if img.DPI <= 0 || math.Abs(img.DPI-tc.cfg.DPI)/tc.cfg.DPI <= resampleTolerance {
		return g
	}
	scale := tc.cfg.DPI / img.DPI
	w := max(1, int(math.Round(float64(g.Width)*scale)))
	h := max(1, int(math.Round(float64(g.Height)*scale)))
	return raster.FromImage(imaging.Resize(g.Image(), w, h, imaging.Lanczos))
}
