// Package cache provides the caching layer for solve results and
// rendered artifacts, with file, Redis, and no-op backends behind one
// interface.
package cache

import (
	"context"
	"time"
)

// TTLs per content class. Game catalogs change rarely, solved layouts
// change with every edit, rendered artifacts are content-addressed and
// can live long.
const (
	TTLGame     = 24 * time.Hour
	TTLSolve    = time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with TTL support.
type Cache interface {
	// Get retrieves a value. The second return reports a hit; a miss is
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// SolveKeyOpts are the solve parameters that change the result and must
// therefore be part of the cache key.
type SolveKeyOpts struct {
	RateUnit      string `json:"rateUnit"`
	SkipRouting   bool   `json:"skipRouting"`
	OnlyRouteNode string `json:"onlyRouteNode,omitempty"`
}

// ArtifactKeyOpts identify one rendered artifact of a solved layout.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// Keyer builds cache keys for the pipeline stages. Implementations must
// be deterministic: the same inputs always produce the same key.
type Keyer interface {
	// GameKey keys a validated game definition by its content hash.
	GameKey(gameHash string) string

	// SolveKey keys a solve result by the layout content hash, the game
	// content hash, and the solve options.
	SolveKey(layoutHash, gameHash string, opts SolveKeyOpts) string

	// ArtifactKey keys a rendered artifact by the solved layout hash.
	ArtifactKey(solveHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a stage prefix plus a SHA-256
// over the identifying parts.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GameKey generates a key for a validated game definition.
func (k *DefaultKeyer) GameKey(gameHash string) string {
	return "game:" + gameHash
}

// SolveKey generates a key for a solve result.
func (k *DefaultKeyer) SolveKey(layoutHash, gameHash string, opts SolveKeyOpts) string {
	return hashKey("solve", layoutHash, gameHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(solveHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", solveHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
