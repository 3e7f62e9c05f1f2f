package solve

import (
	"math"

	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/plan"
)

// Flow engine bounds. The pass cap substitutes for a convergence proof:
// cyclic splitter graphs may oscillate, and the engine stops regardless.
const (
	DefaultMaxPasses = 15
	ConvergenceEps   = 0.001
)

// Options tune one solve pass.
type Options struct {
	// Unit overrides the game's rate unit when valid.
	Unit game.RateUnit
	// SkipRouting leaves edge geometry untouched.
	SkipRouting bool
	// OnlyRouteNode limits routing to edges touching one node.
	OnlyRouteNode string
	// MaxPasses and Epsilon override the engine bounds when positive.
	MaxPasses int
	Epsilon   float64
}

func (o Options) unit(g *game.GameDefinition) game.RateUnit {
	if o.Unit.Valid() {
		return o.Unit
	}
	if g.Settings.RateUnit.Valid() {
		return g.Settings.RateUnit
	}
	return game.RatePerMinute
}

// Result reports how a solve pass ended. Converged false means the
// engine hit the pass cap while rates were still moving; the layout is
// still usable, the numbers are just the last iterate.
type Result struct {
	Passes    int
	Converged bool
}

// Recalc runs the fixed-point flow propagation over the whole plan:
// demand flows backward from sinks to sources, supply flows forward with
// demand-weighted proportional sharing, and blocks scale their outputs
// by the worst input satisfaction. Port scratch fields and block solved
// fields are mutated in place; edge flow and demand are written in a
// final pass. Edges with missing endpoints are skipped, never an error.
func Recalc(p *plan.Plan, g *game.GameDefinition, opts Options) Result {
	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	eps := opts.Epsilon
	if eps <= 0 {
		eps = ConvergenceEps
	}
	unit := opts.unit(g)

	baseActual := solveBlocks(p, g, unit)
	resetPorts(p)

	res := Result{}
	for pass := 1; pass <= maxPasses; pass++ {
		res.Passes = pass
		prev := snapshotRates(p)

		backwardPass(p)
		forwardPass(p)
		updateNodes(p)

		if maxRateDelta(p, prev) <= eps {
			res.Converged = true
			break
		}
	}

	for _, n := range p.Nodes {
		if n.Block != nil {
			n.Block.ActualRate = baseActual[n.ID] * n.Block.Efficiency
		}
	}
	finalizeEdges(p)
	return res
}

// solveBlocks runs the rate solver for every block, writing the solved
// machine count and per-port target rates. Returns each block's
// unstarved primary output rate.
func solveBlocks(p *plan.Plan, g *game.GameDefinition, unit game.RateUnit) map[string]float64 {
	baseActual := make(map[string]float64)
	for _, n := range p.Nodes {
		if n.Type != plan.NodeBlock || n.Block == nil {
			continue
		}
		res, ok := BlockRates(g, n.Block, unit)
		n.Block.MachineCount = res.MachineCount
		n.Block.Efficiency = 1
		baseActual[n.ID] = res.ActualRate
		if !ok {
			continue
		}
		assignPortRates(n.Inputs, res.Inputs)
		assignPortRates(n.Outputs, res.Outputs)
	}
	return baseActual
}

func assignPortRates(ports []*plan.Port, rates []ItemRate) {
	used := make([]bool, len(rates))
	for _, port := range ports {
		for i, ir := range rates {
			if used[i] || port.Item.Any || port.Item.ID != ir.ItemID {
				continue
			}
			port.Rate = ir.Rate
			used[i] = true
			break
		}
	}
}

// resetPorts starts a solve from a clean slate: block outputs begin at
// their target rate, splitter outputs begin empty, and every input is
// unknown until supply reaches it.
func resetPorts(p *plan.Plan) {
	for _, n := range p.Nodes {
		for _, port := range n.Inputs {
			port.CurrentRate = nil
			port.TargetDemand = 0
		}
		for _, port := range n.Outputs {
			port.TargetDemand = 0
			if n.Type == plan.NodeBlock {
				port.SetCurrent(port.Rate)
			} else {
				port.SetCurrent(0)
			}
		}
	}
}

// backwardPass writes targetDemand on every port. Block inputs demand
// their recipe rate; output demand is whatever downstream consumers ask
// for. Splitter demand is divided evenly across inputs, a deliberate
// flat split rather than a supply-weighted one.
func backwardPass(p *plan.Plan) {
	for _, n := range p.Nodes {
		switch n.Type {
		case plan.NodeBlock:
			for _, port := range n.Inputs {
				port.TargetDemand = port.Rate
			}
			for _, port := range n.Outputs {
				port.TargetDemand = downstreamDemand(p, n.ID, port.ID, map[string]bool{})
			}
		default:
			total := 0.0
			for _, port := range n.Outputs {
				port.TargetDemand = downstreamDemand(p, n.ID, port.ID, map[string]bool{})
				total += port.TargetDemand
			}
			if len(n.Inputs) > 0 {
				share := total / float64(len(n.Inputs))
				for _, port := range n.Inputs {
					port.TargetDemand = share
				}
			}
		}
	}
}

// downstreamDemand sums what the consumers reachable from one output
// port ask for. Splitters pass demand through divided by their input
// count; the visited set stops cycles from recursing forever.
func downstreamDemand(p *plan.Plan, nodeID, portID string, visited map[string]bool) float64 {
	total := 0.0
	for _, e := range p.EdgesFromPort(nodeID, portID) {
		tn := p.Node(e.Target)
		if tn == nil {
			continue
		}
		tp := tn.Port(e.TargetPort)
		if tp == nil {
			continue
		}
		if tn.Type == plan.NodeBlock {
			total += tp.Rate
			continue
		}
		if visited[tn.ID] || len(tn.Inputs) == 0 {
			continue
		}
		visited[tn.ID] = true
		out := 0.0
		for _, op := range tn.Outputs {
			out += downstreamDemand(p, tn.ID, op.ID, visited)
		}
		delete(visited, tn.ID)
		total += out / float64(len(tn.Inputs))
	}
	return total
}

// forwardPass distributes each output port's available supply across its
// outgoing edges: a single consumer takes everything, fan-out shares in
// proportion to demand, and zero total demand splits evenly.
func forwardPass(p *plan.Plan) {
	for _, n := range p.Nodes {
		for _, op := range n.Outputs {
			edges := p.EdgesFromPort(n.ID, op.ID)
			if len(edges) == 0 {
				continue
			}
			avail := op.Current()
			demands := make([]float64, len(edges))
			total := 0.0
			for i, e := range edges {
				demands[i] = edgeDemand(p, e)
				total += demands[i]
			}
			for i, e := range edges {
				var flow float64
				switch {
				case len(edges) == 1:
					flow = avail
				case total > 0:
					flow = avail * demands[i] / total
				default:
					flow = avail / float64(len(edges))
				}
				tn := p.Node(e.Target)
				if tn == nil {
					continue
				}
				if tp := tn.Port(e.TargetPort); tp != nil {
					tp.SetCurrent(flow)
				}
			}
		}
	}
}

func edgeDemand(p *plan.Plan, e *plan.Edge) float64 {
	tn := p.Node(e.Target)
	if tn == nil {
		return 0
	}
	tp := tn.Port(e.TargetPort)
	if tp == nil {
		return 0
	}
	return tp.TargetDemand
}

// updateNodes recomputes each node's outputs from its inputs. Blocks
// scale every output by the worst input satisfaction; an unconnected
// input counts as fully satisfied so a half-built layout still previews
// sensibly. Splitters distribute combined inflow by priority.
func updateNodes(p *plan.Plan) {
	for _, n := range p.Nodes {
		switch n.Type {
		case plan.NodeBlock:
			updateBlock(p, n)
		default:
			updateSplitter(n)
		}
	}
}

func updateBlock(p *plan.Plan, n *plan.Node) {
	sat := 1.0
	for _, port := range n.Inputs {
		if p.EdgeIntoPort(n.ID, port.ID) == nil {
			continue
		}
		if port.Rate <= 0 {
			continue
		}
		sat = math.Min(sat, math.Min(1, port.Current()/port.Rate))
	}
	if n.Block != nil {
		n.Block.Efficiency = sat
	}
	for _, port := range n.Outputs {
		port.SetCurrent(port.Rate * sat)
	}
}

func updateSplitter(n *plan.Node) {
	inflow := 0.0
	for _, port := range n.Inputs {
		inflow += port.Current()
	}
	outs := n.Outputs
	total := 0.0
	for _, port := range outs {
		total += port.TargetDemand
	}

	priority := plan.PriorityBalanced
	if n.Splitter != nil {
		priority = n.Splitter.Priority
	}
	switch {
	case priority == plan.PriorityOutLeft && len(outs) == 2,
		priority == plan.PriorityOutRight && len(outs) == 2:
		pi := 0
		if priority == plan.PriorityOutRight {
			pi = 1
		}
		other := 1 - pi
		if total > 0 {
			take := math.Min(inflow, outs[pi].TargetDemand)
			outs[pi].SetCurrent(take)
			outs[other].SetCurrent(inflow - take)
		} else {
			// No downstream demand: the priority side absorbs all inflow.
			outs[pi].SetCurrent(inflow)
			outs[other].SetCurrent(0)
		}
	case priority == plan.PriorityBalanced && total > 0:
		for _, port := range outs {
			port.SetCurrent(inflow * port.TargetDemand / total)
		}
	default:
		if len(outs) > 0 {
			share := inflow / float64(len(outs))
			for _, port := range outs {
				port.SetCurrent(share)
			}
		}
	}

	// Port rates reflect the actual flow so rendering shows true load.
	for _, port := range n.Inputs {
		port.Rate = port.Current()
	}
	for _, port := range outs {
		port.Rate = port.Current()
	}
}

// finalizeEdges writes per-edge flow and demand from the settled port
// rates: each edge carries its demand scaled by the source's saturation
// ratio, so undersupply starves all consumers proportionally.
func finalizeEdges(p *plan.Plan) {
	for _, n := range p.Nodes {
		for _, op := range n.Outputs {
			edges := p.EdgesFromPort(n.ID, op.ID)
			if len(edges) == 0 {
				continue
			}
			avail := op.Current()
			total := 0.0
			demands := make([]float64, len(edges))
			for i, e := range edges {
				demands[i] = edgeDemand(p, e)
				total += demands[i]
			}
			for i, e := range edges {
				var flow float64
				switch {
				case total > 0:
					flow = demands[i] * math.Min(1, avail/total)
				case len(edges) == 1:
					flow = avail
				default:
					flow = avail / float64(len(edges))
				}
				e.Data.DemandRate = demands[i]
				e.Data.FlowRate = flow
			}
		}
	}
}

func snapshotRates(p *plan.Plan) map[*plan.Port]float64 {
	snap := make(map[*plan.Port]float64)
	for _, n := range p.Nodes {
		for _, port := range n.Inputs {
			snap[port] = port.Current()
		}
		for _, port := range n.Outputs {
			snap[port] = port.Current()
		}
	}
	return snap
}

func maxRateDelta(p *plan.Plan, prev map[*plan.Port]float64) float64 {
	delta := 0.0
	for _, n := range p.Nodes {
		for _, port := range n.Inputs {
			delta = math.Max(delta, math.Abs(port.Current()-prev[port]))
		}
		for _, port := range n.Outputs {
			delta = math.Max(delta, math.Abs(port.Current()-prev[port]))
		}
	}
	return delta
}
