package plan

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/beltline/beltline/pkg/errors"
	"github.com/beltline/beltline/pkg/geom"
)

// =============================================================================
// Layout Payload - Canonical Serialization Format
// =============================================================================

// Payload is the wire format for a plan: what gets written to disk, sent
// over the API, and stored in Mongo. Solved fields travel with the
// payload so a consumer can render a stored plan without re-solving, but
// they are overwritten by the next solve pass after load.
type Payload struct {
	ID    string        `json:"id,omitempty" bson:"_id,omitempty"`
	Nodes []NodePayload `json:"nodes" bson:"nodes"`
	Edges []EdgePayload `json:"edges" bson:"edges"`
}

// NodePayload is one serialized node.
type NodePayload struct {
	ID       string        `json:"id" bson:"id"`
	Position geom.Point    `json:"position" bson:"position"`
	Data     NodeData      `json:"data" bson:"data"`
	Inputs   []PortPayload `json:"inputs,omitempty" bson:"inputs,omitempty"`
	Outputs  []PortPayload `json:"outputs,omitempty" bson:"outputs,omitempty"`
}

// NodeData carries the variant-specific node fields.
type NodeData struct {
	Type NodeType `json:"type" bson:"type"`

	// Block fields
	RecipeID           string          `json:"recipeId,omitempty" bson:"recipe_id,omitempty"`
	MachineID          string          `json:"machineId,omitempty" bson:"machine_id,omitempty"`
	Mode               CalculationMode `json:"calculationMode,omitempty" bson:"calculation_mode,omitempty"`
	TargetRate         float64         `json:"targetRate,omitempty" bson:"target_rate,omitempty"`
	TargetMachineCount float64         `json:"targetMachineCount,omitempty" bson:"target_machine_count,omitempty"`
	SpeedModifier      float64         `json:"speedModifier,omitempty" bson:"speed_modifier,omitempty"`
	Modifier           *Modifier       `json:"modifier,omitempty" bson:"modifier,omitempty"`
	PrimaryOutputID    string          `json:"primaryOutputId,omitempty" bson:"primary_output_id,omitempty"`
	MachineCount       float64         `json:"machineCount,omitempty" bson:"machine_count,omitempty"`
	ActualRate         float64         `json:"actualRate,omitempty" bson:"actual_rate,omitempty"`

	// Splitter/merger fields
	Priority SplitterPriority `json:"priority,omitempty" bson:"priority,omitempty"`
	Filter   *ItemRef         `json:"filterItemId,omitempty" bson:"filter_item_id,omitempty"`
}

// PortPayload is one serialized port. Scratch solve fields are not
// persisted; Rate is, because splitter port rates are meaningful between
// solves.
type PortPayload struct {
	ID        string        `json:"id" bson:"id"`
	Direction PortDirection `json:"direction" bson:"direction"`
	Item      ItemRef       `json:"itemId" bson:"item_id"`
	Rate      float64       `json:"rate" bson:"rate"`
	Side      Side          `json:"side,omitempty" bson:"side,omitempty"`
	Offset    float64       `json:"offset,omitempty" bson:"offset,omitempty"`
}

// EdgePayload is one serialized connection.
type EdgePayload struct {
	ID         string       `json:"id" bson:"id"`
	Source     string       `json:"source" bson:"source"`
	SourcePort string       `json:"sourcePort" bson:"source_port"`
	Target     string       `json:"target" bson:"target"`
	TargetPort string       `json:"targetPort" bson:"target_port"`
	BeltID     string       `json:"beltId" bson:"belt_id"`
	FlowRate   float64      `json:"flowRate,omitempty" bson:"flow_rate,omitempty"`
	DemandRate float64      `json:"demandRate,omitempty" bson:"demand_rate,omitempty"`
	Status     EdgeStatus   `json:"status,omitempty" bson:"status,omitempty"`
	Points     []geom.Point `json:"points,omitempty" bson:"points,omitempty"`
}

// =============================================================================
// Plan ↔ Payload Conversion
// =============================================================================

// ToPayload converts a plan to its serialization format.
func ToPayload(p *Plan) Payload {
	out := Payload{
		ID:    p.ID,
		Nodes: make([]NodePayload, len(p.Nodes)),
		Edges: make([]EdgePayload, len(p.Edges)),
	}
	for i, n := range p.Nodes {
		np := NodePayload{
			ID:       n.ID,
			Position: n.Position,
			Data:     NodeData{Type: n.Type},
			Inputs:   portsToPayload(n.Inputs),
			Outputs:  portsToPayload(n.Outputs),
		}
		if n.Block != nil {
			b := n.Block
			np.Data.RecipeID = b.RecipeID
			np.Data.MachineID = b.MachineID
			np.Data.Mode = b.Mode
			np.Data.TargetRate = b.TargetRate
			np.Data.TargetMachineCount = b.TargetMachineCount
			np.Data.SpeedModifier = b.SpeedModifier
			np.Data.Modifier = b.Modifier
			np.Data.PrimaryOutputID = b.PrimaryOutputID
			np.Data.MachineCount = b.MachineCount
			np.Data.ActualRate = b.ActualRate
		}
		if n.Splitter != nil {
			np.Data.Priority = n.Splitter.Priority
			if f := n.Splitter.Filter; !f.Any && f.ID != "" {
				np.Data.Filter = &f
			}
		}
		out.Nodes[i] = np
	}
	for i, e := range p.Edges {
		out.Edges[i] = EdgePayload{
			ID:         e.ID,
			Source:     e.Source,
			SourcePort: e.SourcePort,
			Target:     e.Target,
			TargetPort: e.TargetPort,
			BeltID:     e.BeltID,
			FlowRate:   e.Data.FlowRate,
			DemandRate: e.Data.DemandRate,
			Status:     e.Data.Status,
			Points:     e.Data.Points,
		}
	}
	return out
}

func portsToPayload(ports []*Port) []PortPayload {
	if len(ports) == 0 {
		return nil
	}
	out := make([]PortPayload, len(ports))
	for i, p := range ports {
		out[i] = PortPayload{
			ID:        p.ID,
			Direction: p.Direction,
			Item:      p.Item,
			Rate:      p.Rate,
			Side:      p.Side,
			Offset:    p.Offset,
		}
	}
	return out
}

// FromPayload converts a payload back to a plan, re-validating the graph
// invariants (unique IDs, existing endpoints, one producer per input
// port). Structural violations come back as INVALID_LAYOUT errors.
func FromPayload(pl Payload) (*Plan, error) {
	p := &Plan{ID: pl.ID}
	for _, np := range pl.Nodes {
		n, err := nodeFromPayload(np)
		if err != nil {
			return nil, err
		}
		if err := p.AddNode(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "node %s", np.ID)
		}
	}
	for _, ep := range pl.Edges {
		e := &Edge{
			ID:         ep.ID,
			Source:     ep.Source,
			SourcePort: ep.SourcePort,
			Target:     ep.Target,
			TargetPort: ep.TargetPort,
			BeltID:     ep.BeltID,
			Data: EdgeData{
				FlowRate:   ep.FlowRate,
				DemandRate: ep.DemandRate,
				Status:     ep.Status,
				Points:     ep.Points,
			},
		}
		if err := p.AddEdge(e); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "edge %s", ep.ID)
		}
	}
	return p, nil
}

func nodeFromPayload(np NodePayload) (*Node, error) {
	n := &Node{
		ID:       np.ID,
		Type:     np.Data.Type,
		Position: np.Position,
		Inputs:   portsFromPayload(np.Inputs),
		Outputs:  portsFromPayload(np.Outputs),
	}
	switch np.Data.Type {
	case NodeBlock:
		n.Block = &BlockState{
			RecipeID:           np.Data.RecipeID,
			MachineID:          np.Data.MachineID,
			Mode:               np.Data.Mode,
			TargetRate:         np.Data.TargetRate,
			TargetMachineCount: np.Data.TargetMachineCount,
			SpeedModifier:      np.Data.SpeedModifier,
			Modifier:           np.Data.Modifier,
			PrimaryOutputID:    np.Data.PrimaryOutputID,
			MachineCount:       np.Data.MachineCount,
			ActualRate:         np.Data.ActualRate,
		}
	case NodeSplitter, NodeMerger:
		s := &SplitterState{Priority: np.Data.Priority, Filter: AnyItem}
		if np.Data.Filter != nil {
			s.Filter = *np.Data.Filter
		}
		n.Splitter = s
	default:
		return nil, errors.New(errors.ErrCodeInvalidLayout,
			"node %s has unknown type %q", np.ID, np.Data.Type)
	}
	ApplySize(n)
	return n, nil
}

func portsFromPayload(ports []PortPayload) []*Port {
	out := make([]*Port, len(ports))
	for i, pp := range ports {
		out[i] = &Port{
			ID:        pp.ID,
			Direction: pp.Direction,
			Item:      pp.Item,
			Rate:      pp.Rate,
			Side:      pp.Side,
			Offset:    pp.Offset,
		}
	}
	return out
}

// =============================================================================
// JSON I/O
// =============================================================================

// Read decodes a plan from JSON. Malformed JSON or structurally invalid
// shapes (wrong field types, dangling references, double-fed input ports)
// return an error; nothing here panics or throws past the boundary.
func Read(r io.Reader) (*Plan, error) {
	var pl Payload
	if err := json.NewDecoder(r).Decode(&pl); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "decode layout")
	}
	return FromPayload(pl)
}

// Import decodes a plan from JSON bytes.
func Import(data []byte) (*Plan, error) {
	return Read(bytes.NewReader(data))
}

// ReadFile reads a plan from a JSON file.
func ReadFile(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Write encodes a plan as indented JSON to w.
func Write(p *Plan, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToPayload(p)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
	}
	return nil
}

// Export encodes a plan as indented JSON bytes.
func Export(p *Plan) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(p, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes a plan to a JSON file with 0644 permissions.
func WriteFile(p *Plan, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create %s", path)
	}
	defer f.Close()
	return Write(p, f)
}
