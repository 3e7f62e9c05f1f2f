package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/beltline/beltline/pkg/cache"
	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/observability"
	"github.com/beltline/beltline/pkg/plan"
	"github.com/beltline/beltline/pkg/solve"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// solveEnvelope is the cached form of a solve result: the solver
// diagnostics plus the solved layout payload.
type solveEnvelope struct {
	Passes    int             `json:"passes"`
	Converged bool            `json:"converged"`
	Plan      json.RawMessage `json:"plan"`
}

// Execute runs the complete load → solve → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	g, gameHash, gameHit, err := r.LoadGameWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	p, planHash, err := r.LoadPlan(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	result.Game = g
	result.GameHash = gameHash
	result.PlanHash = planHash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = len(p.Nodes)
	result.Stats.EdgeCount = len(p.Edges)
	result.CacheInfo.GameHit = gameHit

	r.Logger.Info("loaded inputs",
		"game", g.String(),
		"nodes", len(p.Nodes),
		"edges", len(p.Edges),
		"duration", result.Stats.LoadTime)

	// Stage 2: Solve
	solveStart := time.Now()
	solved, solveRes, solveHit, err := r.SolveWithCacheInfo(ctx, p, g, opts)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	result.Plan = solved
	result.Stats.SolveTime = time.Since(solveStart)
	result.Stats.Passes = solveRes.Passes
	result.Stats.Converged = solveRes.Converged
	result.CacheInfo.SolveHit = solveHit

	r.Logger.Info("solved layout",
		"passes", solveRes.Passes,
		"converged", solveRes.Converged,
		"duration", result.Stats.SolveTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, solveHash, renderHit, err := r.RenderWithCacheInfo(ctx, solved, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.SolveHash = solveHash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadGameWithCacheInfo loads and validates the game catalog with
// caching and returns its content hash and cache hit info.
//
// The cache stores the validated, defaults-applied export keyed by the
// hash of the raw input, so a hit skips file parsing and validation.
func (r *Runner) LoadGameWithCacheInfo(ctx context.Context, opts Options) (*game.GameDefinition, string, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", false, err
	}
	r.applyLogger(&opts)

	if opts.Game != nil {
		data, err := game.Export(opts.Game)
		if err != nil {
			return nil, "", false, err
		}
		return opts.Game, cache.Hash(data), false, nil
	}

	raw, err := readGameFile(opts.GamePath)
	if err != nil {
		return nil, "", false, err
	}
	gameHash := cache.Hash(raw)
	cacheKey := r.Keyer.GameKey(gameHash)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := game.Import(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "game")
				return g, gameHash, true, nil // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, "game")
	}

	g, err := parseGame(opts.GamePath, raw)
	if err != nil {
		return nil, "", false, err
	}

	// Cache the result
	if !opts.Refresh {
		if data, err := game.Export(g); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGame)
			observability.Cache().OnCacheSet(ctx, "game", len(data))
		}
	}

	return g, gameHash, false, nil // Cache miss
}

// LoadGame is a convenience wrapper that calls LoadGameWithCacheInfo and discards the cache hit info.
func (r *Runner) LoadGame(ctx context.Context, opts Options) (*game.GameDefinition, error) {
	g, _, _, err := r.LoadGameWithCacheInfo(ctx, opts)
	return g, err
}

// LoadPlan loads the layout plan and returns its content hash. Plans are
// small and already local, so this stage is not cached.
func (r *Runner) LoadPlan(ctx context.Context, opts Options) (*plan.Plan, string, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", err
	}

	p := opts.Plan
	if p == nil {
		var err error
		p, err = plan.ReadFile(opts.PlanPath)
		if err != nil {
			return nil, "", err
		}
	}
	data, err := plan.Export(p)
	if err != nil {
		return nil, "", err
	}
	return p, cache.Hash(data), nil
}

// Load loads both the catalog and the plan.
func (r *Runner) Load(ctx context.Context, opts Options) (*game.GameDefinition, *plan.Plan, error) {
	g, err := r.LoadGame(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	p, _, err := r.LoadPlan(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return g, p, nil
}

// SolveWithCacheInfo solves a plan with caching and returns cache hit info.
// On a cache miss the plan is solved in place and the same pointer is
// returned; on a hit the cached solved layout is returned as a new plan.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, p *plan.Plan, g *game.GameDefinition, opts Options) (*plan.Plan, solve.Result, bool, error) {
	if err := opts.ValidateForSolve(); err != nil {
		return nil, solve.Result{}, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from both inputs
	planData, err := plan.Export(p)
	if err != nil {
		return nil, solve.Result{}, false, err
	}
	gameData, err := game.Export(g)
	if err != nil {
		return nil, solve.Result{}, false, err
	}
	cacheKey := r.Keyer.SolveKey(cache.Hash(planData), cache.Hash(gameData), opts.SolveKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var env solveEnvelope
			if err := json.Unmarshal(data, &env); err == nil {
				if cached, err := plan.Import(env.Plan); err == nil {
					observability.Cache().OnCacheHit(ctx, "solve")
					return cached, solve.Result{Passes: env.Passes, Converged: env.Converged}, true, nil
				}
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "solve")
	}

	// Solve
	solveStart := time.Now()
	observability.Solver().OnSolveStart(ctx, p.ID, len(p.Nodes))
	res := solve.Recalculate(p, g, opts.SolveOptions())
	observability.Solver().OnSolveComplete(ctx, p.ID, res.Passes, res.Converged, time.Since(solveStart), nil)

	// Cache the result
	if !opts.Refresh {
		if solvedData, err := plan.Export(p); err == nil {
			env := solveEnvelope{Passes: res.Passes, Converged: res.Converged, Plan: solvedData}
			if data, err := json.Marshal(env); err == nil {
				_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLSolve)
				observability.Cache().OnCacheSet(ctx, "solve", len(data))
			}
		}
	}

	return p, res, false, nil // Cache miss
}

// Solve is a convenience wrapper that calls SolveWithCacheInfo and discards the cache hit info.
func (r *Runner) Solve(ctx context.Context, p *plan.Plan, g *game.GameDefinition, opts Options) (*plan.Plan, error) {
	solved, _, _, err := r.SolveWithCacheInfo(ctx, p, g, opts)
	return solved, err
}

// RenderWithCacheInfo generates artifacts with caching and returns the
// solved layout hash and cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, p *plan.Plan, g *game.GameDefinition, opts Options) (map[string][]byte, string, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, "", false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from the solved layout
	planData, err := plan.Export(p)
	if err != nil {
		return nil, "", false, fmt.Errorf("serialize plan for cache key: %w", err)
	}
	solveHash := cache.Hash(planData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(solveHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, solveHash, true, nil // All artifacts from cache
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	// Render all formats
	rendered, err := RenderArtifacts(ctx, p, g, opts.Formats)
	if err != nil {
		return nil, "", false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(solveHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, solveHash, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, p *plan.Plan, g *game.GameDefinition, opts Options) (map[string][]byte, error) {
	artifacts, _, _, err := r.RenderWithCacheInfo(ctx, p, g, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
