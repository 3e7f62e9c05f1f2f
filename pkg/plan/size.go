package plan

// Pixel constants for node footprints. The router and the conflict
// detector both consume the sizes computed here, so renderers must not
// derive their own.
const (
	BlockWidth      = 180.0
	BlockBaseHeight = 90.0
	BlockHeaderH    = 46.0 // title + machine row
	PortSpacing     = 26.0
	MachineRowH     = 18.0 // extra row shown in machine-count mode

	SplitterWidth  = 48.0
	SplitterHeight = 48.0
)

// NodeSize returns the pixel dimensions a node needs for its port count
// and calculation mode. Pure function of the node's inputs; callers store
// the result on the node so geometry consumers agree on one footprint.
func NodeSize(n *Node) (w, h float64) {
	switch n.Type {
	case NodeSplitter, NodeMerger:
		return SplitterWidth, SplitterHeight
	default:
		ports := len(n.Inputs)
		if len(n.Outputs) > ports {
			ports = len(n.Outputs)
		}
		h = BlockHeaderH + PortSpacing*float64(ports)
		if n.Block != nil && n.Block.Mode == ModeMachines {
			h += MachineRowH
		}
		if h < BlockBaseHeight {
			h = BlockBaseHeight
		}
		return BlockWidth, h
	}
}

// ApplySize computes and stores the node's dimensions, then distributes
// port offsets evenly along each side below the header.
func ApplySize(n *Node) {
	n.Width, n.Height = NodeSize(n)
	spreadPorts(n, n.Inputs)
	spreadPorts(n, n.Outputs)
}

func spreadPorts(n *Node, ports []*Port) {
	if len(ports) == 0 {
		return
	}
	// Ports occupy the band below the header, centered per slot.
	top := BlockHeaderH
	if n.Type != NodeBlock {
		top = 0
	}
	band := n.Height - top
	step := band / float64(len(ports))
	for i, p := range ports {
		p.Offset = (top + step*(float64(i)+0.5)) / n.Height
	}
}
