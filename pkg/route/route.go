package route

import (
	"github.com/beltline/beltline/pkg/geom"
	"github.com/beltline/beltline/pkg/plan"
)

// Options scope a routing pass.
type Options struct {
	// GridSize overrides the game's grid size. Zero means use the
	// plan-level default.
	GridSize float64
	// Padding is the obstacle clearance in canvas units. Zero means
	// DefaultPadding.
	Padding float64
	// OnlyNode limits routing to edges touching one node, used after a
	// drag so the rest of the layout keeps its geometry.
	OnlyNode string
}

// RouteEdges recomputes the routed polyline of every edge in the plan
// (or only the edges touching Options.OnlyNode). Edges with a missing
// endpoint are skipped unchanged.
func RouteEdges(p *plan.Plan, opts Options) {
	gridSize := opts.GridSize
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}

	for _, e := range p.Edges {
		if opts.OnlyNode != "" && e.Source != opts.OnlyNode && e.Target != opts.OnlyNode {
			continue
		}
		src := p.Node(e.Source)
		tgt := p.Node(e.Target)
		if src == nil || tgt == nil {
			continue
		}
		srcPort := src.Port(e.SourcePort)
		tgtPort := tgt.Port(e.TargetPort)
		if srcPort == nil || tgtPort == nil {
			continue
		}
		start := src.PortPosition(srcPort)
		end := tgt.PortPosition(tgtPort)
		obstacles := p.Obstacles(e.Source, e.Target)
		e.Data.Points = FindPath(start, end, obstacles, gridSize, padding)
	}
}

// LPath is the router-free fallback shape between two points: out from
// the start, across at the horizontal midpoint, into the end.
func LPath(start, end geom.Point) []geom.Point {
	midX := (start.X + end.X) / 2
	return []geom.Point{
		start,
		{X: midX, Y: start.Y},
		{X: midX, Y: end.Y},
		end,
	}
}
