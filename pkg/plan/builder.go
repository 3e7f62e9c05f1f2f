package plan

import (
	"github.com/beltline/beltline/pkg/errors"
	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/geom"
)

// NewBlockNode builds a block node for a recipe, creating one input port
// per recipe input (left side) and one output port per recipe output
// (right side). The block starts in output mode with the given target
// rate and no modifiers; the caller runs a solve pass to fill in the
// derived fields.
func NewBlockNode(g *game.GameDefinition, recipeID string, pos geom.Point, targetRate float64) (*Node, error) {
	r := g.Recipe(recipeID)
	if r == nil {
		return nil, errors.New(errors.ErrCodeRecipeNotFound, "unknown recipe %q", recipeID)
	}
	n := &Node{
		ID:       NewNodeID(),
		Type:     NodeBlock,
		Position: pos,
		Block: &BlockState{
			RecipeID:      recipeID,
			MachineID:     r.MachineID,
			Mode:          ModeOutput,
			TargetRate:    targetRate,
			SpeedModifier: 1,
		},
	}
	for _, in := range r.Inputs {
		n.Inputs = append(n.Inputs, &Port{
			ID:        NewPortID(),
			Direction: PortIn,
			Item:      Specific(in.ItemID),
			Side:      SideLeft,
		})
	}
	for _, out := range r.Outputs {
		n.Outputs = append(n.Outputs, &Port{
			ID:        NewPortID(),
			Direction: PortOut,
			Item:      Specific(out.ItemID),
			Side:      SideRight,
		})
	}
	ApplySize(n)
	return n, nil
}

// NewSplitterNode builds a splitter (1 in, 2 out) or merger (2 in, 1 out)
// with unconstrained ports and balanced priority.
func NewSplitterNode(typ NodeType, pos geom.Point) *Node {
	n := &Node{
		ID:       NewNodeID(),
		Type:     typ,
		Position: pos,
		Splitter: &SplitterState{Priority: PriorityBalanced, Filter: AnyItem},
	}
	inputs, outputs := 1, 2
	if typ == NodeMerger {
		inputs, outputs = 2, 1
	}
	for i := 0; i < inputs; i++ {
		n.Inputs = append(n.Inputs, &Port{
			ID: NewPortID(), Direction: PortIn, Item: AnyItem, Side: SideLeft,
		})
	}
	for i := 0; i < outputs; i++ {
		n.Outputs = append(n.Outputs, &Port{
			ID: NewPortID(), Direction: PortOut, Item: AnyItem, Side: SideRight,
		})
	}
	ApplySize(n)
	return n
}

// Connect creates an edge between two ports on the lowest belt tier and
// adds it to the plan. The target port adopts the source port's item when
// it is unconstrained, and vice versa, so splitter chains propagate the
// item of whatever is connected.
func Connect(p *Plan, g *game.GameDefinition, sourceID, sourcePort, targetID, targetPort string) (*Edge, error) {
	beltID := ""
	if b := g.NextBelt(""); b != nil {
		beltID = b.ID
	}
	e := &Edge{
		ID:         NewEdgeID(),
		Source:     sourceID,
		SourcePort: sourcePort,
		Target:     targetID,
		TargetPort: targetPort,
		BeltID:     beltID,
	}
	if err := p.AddEdge(e); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "connect")
	}

	src := p.Node(sourceID).Port(sourcePort)
	tgt := p.Node(targetID).Port(targetPort)
	if src.Item.Any && !tgt.Item.Any {
		src.Item = tgt.Item
	}
	if tgt.Item.Any && !src.Item.Any {
		tgt.Item = src.Item
	}
	return e, nil
}
