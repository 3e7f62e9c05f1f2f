// Package pipeline provides the core planning pipeline for Beltline.
//
// This package implements the complete load → solve → render pipeline
// that can be used by CLI, API, and worker components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read and validate the game catalog and the layout plan
//  2. Solve: Run rate solving, flow propagation, routing, and status
//  3. Render: Generate output in various formats (JSON, DOT, SVG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    GamePath: "catalog.json",
//	    PlanPath: "factory.json",
//	    Formats:  []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Load only
//	g, p, err := runner.Load(ctx, opts)
//
//	// Solve with an in-memory plan
//	solved, err := runner.Solve(ctx, p, g, opts)
//
//	// Render a solved plan
//	artifacts, err := runner.Render(ctx, solved, g, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/beltline/beltline/pkg/cache"
	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/plan"
	"github.com/beltline/beltline/pkg/solve"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidRateUnits is the set of supported rate unit overrides. The empty
// string means the game catalog's own unit.
var ValidRateUnits = map[string]bool{
	"":                          true,
	string(game.RatePerSecond): true,
	string(game.RatePerMinute): true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the planning pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Either the path or the in-memory value must be set;
	// the in-memory value wins when both are.
	GamePath string `json:"game_path,omitempty"`
	PlanPath string `json:"plan_path,omitempty"`

	// Solve options
	RateUnit      string `json:"rate_unit,omitempty"` // "second", "minute", or "" for the catalog default
	SkipRouting   bool   `json:"skip_routing,omitempty"`
	OnlyRouteNode string `json:"only_route_node,omitempty"`
	MaxPasses     int    `json:"max_passes,omitempty"`
	Refresh       bool   `json:"refresh,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`

	// Runtime options (not serialized)
	Game   *game.GameDefinition `json:"-"`
	Plan   *plan.Plan           `json:"-"`
	Logger *log.Logger          `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Plan is the solved layout.
	Plan *plan.Plan

	// Game is the loaded catalog the plan was solved against.
	Game *game.GameDefinition

	// GameHash is the content hash of the catalog.
	GameHash string

	// PlanHash is the content hash of the input layout, before solving.
	PlanHash string

	// SolveHash is the content hash of the solved layout.
	SolveHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and solver information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Passes     int
	Converged  bool
	LoadTime   time.Duration
	SolveTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GameHit   bool // Whether the validated catalog came from cache
	SolveHit  bool // Whether the solved layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRateUnit checks that a rate unit override is valid.
func ValidateRateUnit(unit string) error {
	if !ValidRateUnits[unit] {
		return fmt.Errorf("invalid rate_unit: %q (must be one of: second, minute)", unit)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForSolve(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if o.Game == nil && o.GamePath == "" {
		return fmt.Errorf("game or game_path is required")
	}
	if o.Plan == nil && o.PlanPath == "" {
		return fmt.Errorf("plan or plan_path is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForSolve validates solve parameters.
func (o *Options) ValidateForSolve() error {
	if err := ValidateRateUnit(o.RateUnit); err != nil {
		return err
	}
	if o.MaxPasses < 0 {
		return fmt.Errorf("max_passes must be non-negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// SolveOptions translates the pipeline options into solver options.
func (o *Options) SolveOptions() solve.Options {
	return solve.Options{
		Unit:          game.RateUnit(o.RateUnit),
		SkipRouting:   o.SkipRouting,
		OnlyRouteNode: o.OnlyRouteNode,
		MaxPasses:     o.MaxPasses,
	}
}

// SolveKeyOpts returns cache key options for the solve stage.
func (o *Options) SolveKeyOpts() cache.SolveKeyOpts {
	return cache.SolveKeyOpts{
		RateUnit:      o.RateUnit,
		SkipRouting:   o.SkipRouting,
		OnlyRouteNode: o.OnlyRouteNode,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
	}
}
