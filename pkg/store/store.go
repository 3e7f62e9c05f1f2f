// Package store persists factory plans. The file backend serves the
// CLI; the Mongo backend serves server deployments where plans are
// shared between instances.
package store

import (
	"context"

	"github.com/beltline/beltline/pkg/plan"
)

// PlanStore is a keyed store of factory plans.
type PlanStore interface {
	// Save writes a plan under its ID, replacing any previous version.
	Save(ctx context.Context, p *plan.Plan) error

	// Load reads a plan by ID. A missing plan returns an error with code
	// PLAN_NOT_FOUND.
	Load(ctx context.Context, id string) (*plan.Plan, error)

	// List returns the IDs of all stored plans.
	List(ctx context.Context) ([]string, error)

	// Delete removes a plan. Deleting a missing plan is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
