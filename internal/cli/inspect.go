package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/beltline/beltline/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	flags := &solveFlags{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Browse a solved layout interactively",
		Long: `Browse a solved layout interactively.

Solves the layout and opens a terminal browser over its connections.
The detail pane follows the cursor and shows demand, lane count, and
routed waypoints for the selected edge.

Examples:
  beltline inspect -g game.json -l factory.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, flags *solveFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(cmd.Context(), "Solving layout...")
	spinner.Start()

	result, err := runner.Execute(cmd.Context(), flags.options(c, []string{pipeline.FormatJSON}))
	if err != nil {
		spinner.StopWithError("Solve failed")
		return err
	}
	spinner.Stop()

	model := NewEdgeListModel(result.Plan, result.Game)
	program := tea.NewProgram(model, tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("inspector: %w", err)
	}
	return nil
}
