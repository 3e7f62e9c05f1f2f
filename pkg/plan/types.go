// Package plan models the mutable factory plan: blocks running recipes,
// splitters and mergers, the ports they expose, and the belt edges wiring
// them together.
//
// The plan graph is the working set of one editing session. User-facing
// edits write only the user-controlled fields (targets, belt tier choice,
// recipe selection, position); every numeric field on an Edge and every
// solved field on a node is derived and owned by the solver in pkg/solve.
package plan

import (
	"encoding/json"
	"fmt"

	"github.com/beltline/beltline/pkg/geom"
)

// =============================================================================
// Item References
// =============================================================================

// ItemRef identifies the item carried by a port or edge. Splitter ports
// start unconstrained and adopt whatever item is connected to them; the
// explicit Any flag makes the mismatch check exhaustive instead of
// comparing against a sentinel string everywhere.
type ItemRef struct {
	Any bool
	ID  string
}

// AnyItem is the unconstrained reference.
var AnyItem = ItemRef{Any: true}

// Specific returns a reference to a concrete item.
func Specific(id string) ItemRef { return ItemRef{ID: id} }

// Matches reports whether two references are compatible: an unconstrained
// reference matches anything.
func (r ItemRef) Matches(o ItemRef) bool {
	return r.Any || o.Any || r.ID == o.ID
}

// String returns the item ID, or "any" for the unconstrained reference.
func (r ItemRef) String() string {
	if r.Any {
		return "any"
	}
	return r.ID
}

// MarshalJSON serializes the wildcard as the literal string "any", which
// keeps the wire format compatible with hand-written layout files.
func (r ItemRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON parses "any" back into the unconstrained reference.
func (r *ItemRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "any" {
		*r = AnyItem
		return nil
	}
	*r = ItemRef{ID: s}
	return nil
}

// =============================================================================
// Ports
// =============================================================================

// PortDirection distinguishes input from output ports.
type PortDirection string

// Port directions.
const (
	PortIn  PortDirection = "input"
	PortOut PortDirection = "output"
)

// Side is the node edge a port sits on.
type Side string

// Port sides.
const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Port is one connection point on a node. Rate is the target/required
// rate; CurrentRate and TargetDemand are scratch fields owned by the flow
// engine during a solve pass (CurrentRate nil means "not yet known" in
// the current pass). External consumers should read flow results off the
// edges, not off these fields.
type Port struct {
	ID           string
	Direction    PortDirection
	Item         ItemRef
	Rate         float64
	CurrentRate  *float64
	TargetDemand float64
	Side         Side
	Offset       float64 // 0..1 vertical position along the node side
}

// Known reports whether the port's solved rate has been set this pass.
func (p *Port) Known() bool { return p.CurrentRate != nil }

// Current returns the solved rate, or 0 while unknown.
func (p *Port) Current() float64 {
	if p.CurrentRate == nil {
		return 0
	}
	return *p.CurrentRate
}

// SetCurrent sets the solved rate.
func (p *Port) SetCurrent(v float64) {
	p.CurrentRate = &v
}

// =============================================================================
// Nodes
// =============================================================================

// NodeType discriminates the node variants.
type NodeType string

// Node types.
const (
	NodeBlock    NodeType = "block"
	NodeSplitter NodeType = "splitter"
	NodeMerger   NodeType = "merger"
)

// CalculationMode selects which user field drives a block's solve:
// target output rate, or a fixed machine count.
type CalculationMode string

// Calculation modes.
const (
	ModeOutput   CalculationMode = "output"
	ModeMachines CalculationMode = "machines"
)

// ModifierType is the kind of machine module installed on a block.
type ModifierType string

// Modifier types.
const (
	ModifierSpeed        ModifierType = "speed"
	ModifierProductivity ModifierType = "productivity"
)

// Modifier is an optional machine module: a speed or productivity bonus
// at levels 1-3. IncludeConsumption carries the game's power-penalty flag
// through persistence; it does not affect rate math.
type Modifier struct {
	Type               ModifierType `json:"type"`
	Level              int          `json:"level"`
	IncludeConsumption bool         `json:"includeConsumption"`
}

// BlockState holds the recipe-running state of a block node. MachineCount,
// ActualRate, and Efficiency are solved outputs; the rest is user input.
type BlockState struct {
	RecipeID           string
	MachineID          string
	Mode               CalculationMode
	TargetRate         float64
	TargetMachineCount float64
	SpeedModifier      float64
	Modifier           *Modifier
	PrimaryOutputID    string

	MachineCount float64
	ActualRate   float64
	Efficiency   float64
}

// SplitterPriority controls how a splitter or merger shares flow.
type SplitterPriority string

// Splitter priorities.
const (
	PriorityBalanced SplitterPriority = "balanced"
	PriorityOutLeft  SplitterPriority = "out-left"
	PriorityOutRight SplitterPriority = "out-right"
	PriorityInLeft   SplitterPriority = "in-left"
	PriorityInRight  SplitterPriority = "in-right"
)

// SplitterState holds the routing state of a splitter or merger node.
type SplitterState struct {
	Priority SplitterPriority
	Filter   ItemRef
}

// Node is one placed element on the canvas. Exactly one of Block and
// Splitter is non-nil, matching Type.
type Node struct {
	ID       string
	Type     NodeType
	Position geom.Point
	Width    float64
	Height   float64
	Inputs   []*Port
	Outputs  []*Port

	Block    *BlockState
	Splitter *SplitterState

	// Conflict is set by the conflict detector when this node's box
	// overlaps another node.
	Conflict bool
}

// Bounds returns the node's footprint rectangle.
func (n *Node) Bounds() geom.Rect {
	return geom.Rect{X: n.Position.X, Y: n.Position.Y, W: n.Width, H: n.Height}
}

// Port finds a port by ID across both directions. Returns nil when absent.
func (n *Node) Port(id string) *Port {
	for _, p := range n.Inputs {
		if p.ID == id {
			return p
		}
	}
	for _, p := range n.Outputs {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PortPosition returns the canvas position of a port, derived from its
// side and fractional offset along the node's height.
func (n *Node) PortPosition(p *Port) geom.Point {
	x := n.Position.X
	if p.Side == SideRight {
		x += n.Width
	}
	return geom.Point{X: x, Y: n.Position.Y + p.Offset*n.Height}
}

// =============================================================================
// Edges
// =============================================================================

// EdgeStatus classifies a connection after a solve pass.
type EdgeStatus string

// Edge statuses, in upgrade order: routing may promote OK or Underload to
// Conflict, nothing downgrades.
const (
	StatusOK        EdgeStatus = "ok"
	StatusUnderload EdgeStatus = "underload"
	StatusOverload  EdgeStatus = "overload"
	StatusMismatch  EdgeStatus = "mismatch"
	StatusConflict  EdgeStatus = "conflict"
)

// EdgeData is the fully derived per-edge state. Every field is owned by
// the solver; the renderer and API read it, nothing else writes it.
type EdgeData struct {
	Capacity       float64
	FlowRate       float64
	DemandRate     float64
	Status         EdgeStatus
	Item           ItemRef
	Points         []geom.Point
	CollisionRects []geom.Rect
}

// Edge is a belt connection between two ports. BeltID is the only
// user-set field.
type Edge struct {
	ID         string
	Source     string
	SourcePort string
	Target     string
	TargetPort string
	BeltID     string
	Data       EdgeData
}

// =============================================================================
// Plan - The Graph Aggregate
// =============================================================================

// Plan is the full node/edge graph of one factory layout.
type Plan struct {
	ID    string
	Nodes []*Node
	Edges []*Edge
}

// Node looks up a node by ID. Returns nil when absent.
func (p *Plan) Node(id string) *Node {
	for _, n := range p.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Edge looks up an edge by ID. Returns nil when absent.
func (p *Plan) Edge(id string) *Edge {
	for _, e := range p.Edges {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// AddNode appends a node after checking ID uniqueness.
func (p *Plan) AddNode(n *Node) error {
	if n.ID == "" {
		return fmt.Errorf("node ID must not be empty")
	}
	if p.Node(n.ID) != nil {
		return fmt.Errorf("duplicate node ID %q", n.ID)
	}
	p.Nodes = append(p.Nodes, n)
	return nil
}

// AddEdge appends an edge after checking endpoints exist and that the
// target port is free: one producer per input slot, while fan-out from a
// single output port to many consumers is allowed.
func (p *Plan) AddEdge(e *Edge) error {
	if e.ID == "" {
		return fmt.Errorf("edge ID must not be empty")
	}
	if p.Edge(e.ID) != nil {
		return fmt.Errorf("duplicate edge ID %q", e.ID)
	}
	src := p.Node(e.Source)
	if src == nil {
		return fmt.Errorf("edge %s: unknown source node %q", e.ID, e.Source)
	}
	if src.Port(e.SourcePort) == nil {
		return fmt.Errorf("edge %s: unknown source port %q", e.ID, e.SourcePort)
	}
	tgt := p.Node(e.Target)
	if tgt == nil {
		return fmt.Errorf("edge %s: unknown target node %q", e.ID, e.Target)
	}
	if tgt.Port(e.TargetPort) == nil {
		return fmt.Errorf("edge %s: unknown target port %q", e.ID, e.TargetPort)
	}
	for _, other := range p.Edges {
		if other.Target == e.Target && other.TargetPort == e.TargetPort {
			return fmt.Errorf("edge %s: target port %s/%s already has a producer",
				e.ID, e.Target, e.TargetPort)
		}
	}
	p.Edges = append(p.Edges, e)
	return nil
}

// RemoveNode deletes a node and cascades removal of its edges.
func (p *Plan) RemoveNode(id string) {
	nodes := p.Nodes[:0]
	for _, n := range p.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	p.Nodes = nodes

	edges := p.Edges[:0]
	for _, e := range p.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	p.Edges = edges
}

// RemoveEdge deletes an edge by ID.
func (p *Plan) RemoveEdge(id string) {
	edges := p.Edges[:0]
	for _, e := range p.Edges {
		if e.ID != id {
			edges = append(edges, e)
		}
	}
	p.Edges = edges
}

// EdgesFromPort returns the edges leaving one output port, preserving
// plan order so proportional splits are deterministic.
func (p *Plan) EdgesFromPort(nodeID, portID string) []*Edge {
	var out []*Edge
	for _, e := range p.Edges {
		if e.Source == nodeID && e.SourcePort == portID {
			out = append(out, e)
		}
	}
	return out
}

// EdgeIntoPort returns the single edge feeding an input port, or nil.
func (p *Plan) EdgeIntoPort(nodeID, portID string) *Edge {
	for _, e := range p.Edges {
		if e.Target == nodeID && e.TargetPort == portID {
			return e
		}
	}
	return nil
}

// Obstacles returns every node footprint as a router/collision obstacle,
// excluding the given node IDs.
func (p *Plan) Obstacles(exclude ...string) []geom.Obstacle {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	obstacles := make([]geom.Obstacle, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		if skip[n.ID] {
			continue
		}
		obstacles = append(obstacles, geom.Obstacle{ID: n.ID, Bounds: n.Bounds()})
	}
	return obstacles
}
