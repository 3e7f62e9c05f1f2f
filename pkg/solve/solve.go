package solve

import (
	"context"
	"time"

	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/geom"
	"github.com/beltline/beltline/pkg/observability"
	"github.com/beltline/beltline/pkg/plan"
	"github.com/beltline/beltline/pkg/route"
)

// Recalculate is the full solve entry point: flow propagation, belt
// routing, node overlap detection, and per-edge status classification,
// in that order. It mutates the plan in place except for edges, which
// are swapped for new values only when their derived data changed.
func Recalculate(p *plan.Plan, g *game.GameDefinition, opts Options) Result {
	res := Recalc(p, g, opts)

	if !opts.SkipRouting {
		hooks := observability.Solver()
		hooks.OnRouteStart(context.Background(), p.ID, len(p.Edges))
		start := time.Now()

		route.RouteEdges(p, route.Options{
			GridSize: g.Settings.GridSize,
			OnlyNode: opts.OnlyRouteNode,
		})
		conflicts := geom.NodeConflicts(p.Obstacles())
		for _, n := range p.Nodes {
			n.Conflict = conflicts[n.ID]
		}
		hooks.OnRouteComplete(context.Background(), p.ID, len(conflicts), time.Since(start), nil)
	}

	unit := opts.unit(g)
	for i, e := range p.Edges {
		p.Edges[i] = UpdateEdgeStatus(e, p, g, unit)
	}
	return res
}
