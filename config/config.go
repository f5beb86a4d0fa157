// Package config holds the tunable constants of the extraction and matching
// pipeline together with the settings of the HTTP collaborator.
//
// Defaults live in `default` struct tags and are applied with go-defaults, so a
// TOML file only needs to name the values it overrides. A zero value in the
// file is indistinguishable from an absent one and falls back to the default.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mcuadros/go-defaults"
)

// Config is the root configuration. Each TemplateCreator and Matcher keeps its
// own copy; nothing here is process-wide.
type Config struct {
	// Workers bounds the goroutines used for 1:N identification.
	// Zero selects runtime.NumCPU().
	Workers int `toml:"workers"`

	Extraction Extraction `toml:"extraction"`
	Matching   Matching   `toml:"matching"`
	Server     Server     `toml:"server"`
	Log        Log        `toml:"log"`
}

// Extraction configures segmentation, direction estimation, binarization,
// detection and the quality filter.
type Extraction struct {
	// DPI is the scan resolution templates are normalized to.
	DPI float64 `toml:"dpi" default:"500"`

	// TileSize is the edge of a square block in pixels.
	TileSize int `toml:"tile_size" default:"8"`

	// DirectionUnits is the number of discrete orientations covering 180°.
	// Minutia directions use twice as many units to cover 360°.
	DirectionUnits int `toml:"direction_units" default:"16"`

	// WindowRadius is the radius of the circular neighbourhood correlated
	// against the direction bank around each tile centre.
	WindowRadius int `toml:"window_radius" default:"12"`

	// VarianceThreshold is the gray-level variance above which a tile is
	// considered ridge-bearing foreground.
	VarianceThreshold float64 `toml:"variance_threshold" default:"100"`

	// ConfidenceThreshold is the minimum peak-to-average response ratio for a
	// tile direction to be reliable.
	ConfidenceThreshold float64 `toml:"confidence_threshold" default:"2"`

	// SmoothRadius enables a Gaussian pre-smoothing pass when positive.
	SmoothRadius float64 `toml:"smooth_radius"`

	// LineLength is the number of pixels sampled along the ridge flow when
	// binarizing a pixel, GridRows the number of parallel rows averaged
	// across it.
	LineLength int `toml:"line_length" default:"7"`
	GridRows   int `toml:"grid_rows" default:"9"`

	// AdaptiveWindow is the local-mean window used for foreground tiles
	// without a reliable direction.
	AdaptiveWindow int `toml:"adaptive_window" default:"15"`

	// TraceLength is how far the detector follows a ridge to orient a minutia.
	TraceLength int `toml:"trace_length" default:"8"`

	BorderMargin    int     `toml:"border_margin" default:"8"`
	IslandLength    int     `toml:"island_length" default:"16"`
	DuplicateRadius float64 `toml:"duplicate_radius" default:"6"`

	// RidgeCount enables the pairwise ridge-count consistency rule.
	RidgeCount          bool    `toml:"ridge_count"`
	RidgeCountRadius    float64 `toml:"ridge_count_radius" default:"20"`
	RidgeCountTolerance float64 `toml:"ridge_count_tolerance" default:"2"`
	RidgeCountAngle     int     `toml:"ridge_count_angle" default:"2"`
}

// Matching configures the correspondence search.
type Matching struct {
	// Neighbors is how many nearest minutiae each minutia is paired with when
	// building relative descriptors.
	Neighbors int `toml:"neighbors" default:"8"`

	DistanceTolerance float64 `toml:"distance_tolerance" default:"8"`
	AngleTolerance    float64 `toml:"angle_tolerance" default:"15"`

	// Seeds is the number of best-supported transforms that are verified.
	Seeds int `toml:"seeds" default:"10"`

	// Refinements is the number of least-squares refinement rounds applied to
	// each verified transform.
	Refinements int `toml:"refinements" default:"2"`

	// Threshold is the accept score used by the verification collaborator.
	// The matcher itself never applies it.
	Threshold float64 `toml:"threshold" default:"12"`
}

// Server configures the HTTP collaborator.
type Server struct {
	Addr        string        `toml:"addr" default:":9090"`
	BodyLimit   int           `toml:"body_limit" default:"16777216"`
	ReadTimeout time.Duration `toml:"read_timeout" default:"30s"`
}

// Log configures the rotating log sink of the server.
type Log struct {
	Dir          string        `toml:"dir" default:"logs"`
	MaxAge       time.Duration `toml:"max_age" default:"168h"`
	RotationTime time.Duration `toml:"rotation_time" default:"24h"`
}

// Default returns a configuration holding only the documented defaults.
func Default() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a TOML file, fills unset values from the defaults and validates
// the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	defaults.SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve returns a validated copy of c with unset values filled from the
// defaults. A nil c yields the defaults. c itself is never modified.
func Resolve(c *Config) (*Config, error) {
	if c == nil {
		return Default(), nil
	}
	cfg := *c
	defaults.SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// WorkerCount resolves Workers, substituting the CPU count for zero.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Validate reports every out-of-range value at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	e := c.Extraction
	check(e.DPI > 0, "extraction.dpi must be positive, got %v", e.DPI)
	check(e.TileSize >= 4, "extraction.tile_size must be at least 4, got %d", e.TileSize)
	check(e.DirectionUnits >= 4, "extraction.direction_units must be at least 4, got %d", e.DirectionUnits)
	check(e.WindowRadius >= e.TileSize/2, "extraction.window_radius must cover half a tile, got %d", e.WindowRadius)
	check(e.VarianceThreshold >= 0, "extraction.variance_threshold must not be negative")
	check(e.ConfidenceThreshold >= 1, "extraction.confidence_threshold must be at least 1, got %v", e.ConfidenceThreshold)
	check(e.SmoothRadius >= 0, "extraction.smooth_radius must not be negative")
	check(e.LineLength >= 3 && e.LineLength%2 == 1, "extraction.line_length must be odd and at least 3, got %d", e.LineLength)
	check(e.GridRows >= 3 && e.GridRows%2 == 1, "extraction.grid_rows must be odd and at least 3, got %d", e.GridRows)
	check(e.AdaptiveWindow >= 3, "extraction.adaptive_window must be at least 3, got %d", e.AdaptiveWindow)
	check(e.TraceLength >= 2, "extraction.trace_length must be at least 2, got %d", e.TraceLength)
	check(e.BorderMargin >= 0, "extraction.border_margin must not be negative")
	check(e.IslandLength >= 0, "extraction.island_length must not be negative")
	check(e.DuplicateRadius >= 0, "extraction.duplicate_radius must not be negative")
	check(e.RidgeCountRadius >= 0, "extraction.ridge_count_radius must not be negative")
	check(e.RidgeCountTolerance >= 0, "extraction.ridge_count_tolerance must not be negative")

	m := c.Matching
	check(m.Neighbors >= 1, "matching.neighbors must be at least 1, got %d", m.Neighbors)
	check(m.DistanceTolerance > 0, "matching.distance_tolerance must be positive")
	check(m.AngleTolerance > 0 && m.AngleTolerance < 180, "matching.angle_tolerance must be in (0,180), got %v", m.AngleTolerance)
	check(m.Seeds >= 1, "matching.seeds must be at least 1, got %d", m.Seeds)
	check(m.Refinements >= 0, "matching.refinements must not be negative")

	check(c.Workers >= 0, "workers must not be negative")
	check(c.Server.BodyLimit > 0, "server.body_limit must be positive")

	return errors.Join(errs...)
}
