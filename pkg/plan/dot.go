package plan

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/beltline/beltline/pkg/game"
)

// statusColors maps edge status to a DOT stroke color.
var statusColors = map[EdgeStatus]string{
	StatusOK:        "#2e7d32",
	StatusUnderload: "#f9a825",
	StatusOverload:  "#ef6c00",
	StatusMismatch:  "#c62828",
	StatusConflict:  "#6a1b9a",
}

// ToDOT converts a plan to Graphviz DOT format. Block labels show the
// recipe name and solved machine count; edges are colored by status and
// labeled with their solved flow.
func ToDOT(p *Plan, g *game.GameDefinition) string {
	var buf bytes.Buffer
	buf.WriteString("digraph beltline {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for _, n := range p.Nodes {
		label := nodeLabel(n, g)
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if n.Type != NodeBlock {
			attrs = append(attrs, "shape=diamond", "fillcolor=lightgrey")
		}
		if n.Conflict {
			attrs = append(attrs, "color=\"#c62828\"", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range p.Edges {
		color := statusColors[e.Data.Status]
		if color == "" {
			color = "#555555"
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q, color=%q];\n",
			e.Source, e.Target,
			fmt.Sprintf("%s %.1f", e.Data.Item, e.Data.FlowRate), color)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n *Node, g *game.GameDefinition) string {
	switch n.Type {
	case NodeSplitter:
		return "splitter"
	case NodeMerger:
		return "merger"
	}
	name := n.Block.RecipeID
	if r := g.Recipe(n.Block.RecipeID); r != nil {
		name = r.Name
	}
	return fmt.Sprintf("%s\n%.2f machines", name, n.Block.MachineCount)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
