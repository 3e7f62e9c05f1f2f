package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beltline/beltline/pkg/geom"
	"github.com/beltline/beltline/pkg/pipeline"
	"github.com/beltline/beltline/pkg/route"
)

// routeCommand creates the route command for debugging single-edge routing.
func (c *CLI) routeCommand() *cobra.Command {
	var (
		flags  solveFlags
		edgeID string
	)

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Route one edge and print its polyline",
		Long: `Route one edge and print its polyline.

The command solves the layout, routes the requested edge around every
other node's footprint, and prints the resulting waypoints together with
any obstacles the belt channel still crosses.

Examples:
  beltline route -g game.json -l factory.json --edge e1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd, &flags, edgeID)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&edgeID, "edge", "", "edge ID to route")
	_ = cmd.MarkFlagRequired("edge")

	return cmd
}

func (c *CLI) runRoute(cmd *cobra.Command, flags *solveFlags, edgeID string) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	flags.noRoute = false
	result, err := runner.Execute(cmd.Context(), flags.options(c, []string{pipeline.FormatJSON}))
	if err != nil {
		return err
	}
	p := result.Plan

	e := p.Edge(edgeID)
	if e == nil {
		return fmt.Errorf("edge %q not found in layout", edgeID)
	}
	if len(e.Data.Points) == 0 {
		return fmt.Errorf("edge %q has no route; check that both endpoints exist", edgeID)
	}

	lanes := route.LaneCount(e.Data.FlowRate, e.Data.Capacity)

	printInfo("Edge %s: %s %s %s", e.ID, e.Source, iconArrow, e.Target)
	printKeyValue("item", e.Data.Item.String())
	printKeyValue("status", string(e.Data.Status))
	printKeyValue("flow", fmt.Sprintf("%.1f / %.1f capacity", e.Data.FlowRate, e.Data.Capacity))
	printKeyValue("lanes", fmt.Sprintf("%d", lanes))

	printNewlineSection("Waypoints")
	for _, pt := range e.Data.Points {
		printDetail("(%.0f, %.0f)", pt.X, pt.Y)
	}

	width := route.FootprintWidth(lanes)
	conflicts := geom.ChannelConflicts(e.Data.Points, width, p.Obstacles(e.Source, e.Target))
	if len(conflicts) == 0 {
		printSuccess("Channel is clear")
		return nil
	}
	printNewlineSection("Conflicts")
	for _, o := range conflicts {
		printWarning("crosses %s at (%.0f, %.0f)", o.ID, o.Bounds.X, o.Bounds.Y)
	}
	return nil
}

// printNewlineSection prints a blank line followed by a section title.
func printNewlineSection(title string) {
	fmt.Println()
	fmt.Println(StyleTitle.Render(title))
}
