package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/beltline/beltline/pkg/pipeline"
	"github.com/beltline/beltline/pkg/plan"
)

// solveFlags holds the command-line flags shared by solve-family commands.
type solveFlags struct {
	game      string // game catalog path
	layout    string // layout path
	output    string // output file path (stdout if empty)
	rateUnit  string // rate unit override
	maxPasses int    // flow engine pass cap override
	noRoute   bool   // skip belt routing
	noCache   bool   // disable caching
	refresh   bool   // bypass cache reads
	jsonOut   bool   // print solved layout JSON instead of the table
}

func (f *solveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.game, "game", "g", "", "game catalog file (JSON or YAML)")
	cmd.Flags().StringVarP(&f.layout, "layout", "l", "", "layout file (JSON)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&f.rateUnit, "rate-unit", "", "rate unit override: second, minute")
	cmd.Flags().IntVar(&f.maxPasses, "max-passes", 0, "flow engine pass cap (0 = default)")
	cmd.Flags().BoolVar(&f.noRoute, "no-route", false, "skip belt routing")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached results")
	_ = cmd.MarkFlagRequired("game")
	_ = cmd.MarkFlagRequired("layout")
}

// options builds pipeline options from the flags and the config file.
func (f *solveFlags) options(c *CLI, formats []string) pipeline.Options {
	rateUnit := f.rateUnit
	if rateUnit == "" {
		rateUnit = c.Config.RateUnit
	}
	return pipeline.Options{
		GamePath:    f.game,
		PlanPath:    f.layout,
		RateUnit:    rateUnit,
		SkipRouting: f.noRoute,
		MaxPasses:   f.maxPasses,
		Refresh:     f.refresh,
		Formats:     formats,
		Logger:      c.Logger,
	}
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	flags := &solveFlags{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve item flows across a layout",
		Long: `Solve item flows across a layout.

The solver computes machine counts and per-edge flow rates, routes the
belts between blocks, and classifies every connection as ok, underloaded,
overloaded, mismatched, or conflicting.

Results are cached locally for faster subsequent runs.

Examples:
  beltline solve -g game.json -l factory.json
  beltline solve -g game.json -l factory.json --json -o solved.json
  beltline solve -g game.json -l factory.json --no-route --rate-unit second`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd.Context(), flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "print the solved layout as JSON")

	return cmd
}

// runSolve executes the pipeline and presents the result.
func (c *CLI) runSolve(ctx context.Context, flags *solveFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Solving layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, flags.options(c, []string{pipeline.FormatJSON}))
	if err != nil {
		spinner.StopWithError("Solve failed")
		return err
	}
	spinner.Stop()

	if flags.jsonOut || flags.output != "" {
		return writeOutput(result.Artifacts[pipeline.FormatJSON], flags.output)
	}

	printEdgeTable(result.Plan, string(result.Game.Settings.RateUnit))
	printSolveStats(result)
	return nil
}

// printEdgeTable renders the per-edge flow table.
func printEdgeTable(p *plan.Plan, unit string) {
	if len(p.Edges) == 0 {
		printInfo("Layout has no connections")
		return
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(p.Edges))
	for _, e := range p.Edges {
		rows = append(rows, []string{
			e.ID,
			e.Data.Item.String(),
			fmt.Sprintf("%.1f", e.Data.FlowRate),
			fmt.Sprintf("%.1f", e.Data.DemandRate),
			fmt.Sprintf("%.1f", e.Data.Capacity),
			string(e.Data.Status),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Edge", "Item", "Flow/"+unit, "Demand", "Capacity", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 5 && row < len(p.Edges) {
				return statusStyle(p.Edges[row].Data.Status)
			}
			return lipgloss.NewStyle()
		})

	fmt.Println(t.Render())
}

// printSolveStats prints the one-line summary under the table.
func printSolveStats(result *pipeline.Result) {
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.SolveHit)
	if !result.Stats.Converged {
		printWarning("Flow engine hit the pass cap after %d passes; rates are approximate", result.Stats.Passes)
	}
}
