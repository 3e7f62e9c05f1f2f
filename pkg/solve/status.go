package solve

import (
	"math"

	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/geom"
	"github.com/beltline/beltline/pkg/plan"
	"github.com/beltline/beltline/pkg/route"
)

// Epsilons for status classification and change detection.
const (
	// underloadEps is the slack before undersupply counts as underload.
	underloadEps = 0.1
	// rateEps and geomEps bound what counts as "unchanged" for the
	// same-reference stability guarantee.
	rateEps = 0.001
	geomEps = 0.01
)

// UpdateEdgeStatus classifies one edge from its solved flow and demand
// and computes its collision footprint. Status precedence: mismatch when
// the port items disagree, then underload when demand outruns supply,
// then overload when flow outruns belt capacity, else ok; routing may
// upgrade ok or underload to conflict when the belt footprint crosses an
// unrelated node.
//
// The SAME edge pointer comes back when nothing changed beyond the
// epsilons, so downstream change detection can compare handles instead
// of diffing values. A missing endpoint returns the edge untouched.
func UpdateEdgeStatus(e *plan.Edge, p *plan.Plan, g *game.GameDefinition, unit game.RateUnit) *plan.Edge {
	src := p.Node(e.Source)
	tgt := p.Node(e.Target)
	if src == nil || tgt == nil {
		return e
	}
	srcPort := src.Port(e.SourcePort)
	tgtPort := tgt.Port(e.TargetPort)
	if srcPort == nil || tgtPort == nil {
		return e
	}

	capacity := g.BeltCapacity(e.BeltID, unit)
	flow := e.Data.FlowRate
	demand := e.Data.DemandRate

	item := srcPort.Item
	if item.Any {
		item = tgtPort.Item
	}

	var status plan.EdgeStatus
	switch {
	case !srcPort.Item.Matches(tgtPort.Item):
		status = plan.StatusMismatch
	case demand > flow+underloadEps:
		status = plan.StatusUnderload
	case capacity > 0 && flow > capacity+underloadEps:
		status = plan.StatusOverload
	default:
		status = plan.StatusOK
	}

	points := e.Data.Points
	if len(points) < 2 {
		points = route.LPath(src.PortPosition(srcPort), tgt.PortPosition(tgtPort))
	}

	var rects []geom.Rect
	if status != plan.StatusMismatch {
		lanes := route.LaneCount(flow, capacity)
		width := route.FootprintWidth(lanes)
		rects = geom.ChannelSegments(points, width)
		if status == plan.StatusOK || status == plan.StatusUnderload {
			hits := geom.ChannelConflicts(points, width, p.Obstacles(e.Source, e.Target))
			if len(hits) > 0 {
				status = plan.StatusConflict
			}
		}
	}

	next := plan.EdgeData{
		Capacity:       capacity,
		FlowRate:       flow,
		DemandRate:     demand,
		Status:         status,
		Item:           item,
		Points:         points,
		CollisionRects: rects,
	}
	if edgeDataEq(e.Data, next) {
		return e
	}
	clone := *e
	clone.Data = next
	return &clone
}

// UpdateEdgeBeltTier returns a copy of the edge on the next belt tier in
// catalog order, wrapping at the top. The input edge is not mutated; the
// caller re-solves to refresh capacity and status.
func UpdateEdgeBeltTier(e *plan.Edge, g *game.GameDefinition) *plan.Edge {
	next := g.NextBelt(e.BeltID)
	if next == nil || next.ID == e.BeltID {
		return e
	}
	clone := *e
	clone.BeltID = next.ID
	return &clone
}

func edgeDataEq(a, b plan.EdgeData) bool {
	if a.Status != b.Status || a.Item != b.Item {
		return false
	}
	if !floatEq(a.Capacity, b.Capacity, rateEps) ||
		!floatEq(a.FlowRate, b.FlowRate, rateEps) ||
		!floatEq(a.DemandRate, b.DemandRate, rateEps) {
		return false
	}
	if len(a.Points) != len(b.Points) || len(a.CollisionRects) != len(b.CollisionRects) {
		return false
	}
	for i := range a.Points {
		if !a.Points[i].Eq(b.Points[i], geomEps) {
			return false
		}
	}
	for i := range a.CollisionRects {
		if !a.CollisionRects[i].Eq(b.CollisionRects[i], geomEps) {
			return false
		}
	}
	return true
}

func floatEq(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
