package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/observability"
	"github.com/beltline/beltline/pkg/plan"
)

// RenderArtifacts renders a solved plan into each requested format.
//
// The JSON format is the solved layout itself, DOT is the Graphviz
// source for the flow graph, and SVG is the Graphviz-rendered picture.
func RenderArtifacts(ctx context.Context, p *plan.Plan, g *game.GameDefinition, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))

	for _, format := range formats {
		start := time.Now()
		observability.Solver().OnRenderStart(ctx, format)
		data, err := renderFormat(ctx, p, g, format)
		observability.Solver().OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func renderFormat(ctx context.Context, p *plan.Plan, g *game.GameDefinition, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return plan.Export(p)
	case FormatDOT:
		return []byte(plan.ToDOT(p, g)), nil
	case FormatSVG:
		return plan.RenderSVG(ctx, plan.ToDOT(p, g))
	default:
		return nil, fmt.Errorf("invalid format: %q", format)
	}
}
