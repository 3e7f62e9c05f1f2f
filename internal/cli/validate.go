package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/pipeline"
	"github.com/beltline/beltline/pkg/plan"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		gamePath   string
		layoutPath string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a game catalog or layout for problems",
		Long: `Check a game catalog or layout for problems.

Schema violations (wrong types, missing fields, unknown categories) are
errors. Referential issues (a recipe naming an unknown item or machine)
are advisory: they are listed but the solver tolerates them.

Exits with status 1 when any error-level issue is found.

Examples:
  beltline validate -g game.json
  beltline validate -g game.yaml -l factory.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd, gamePath, layoutPath)
		},
	}

	cmd.Flags().StringVarP(&gamePath, "game", "g", "", "game catalog file (JSON or YAML)")
	cmd.Flags().StringVarP(&layoutPath, "layout", "l", "", "layout file (JSON)")
	_ = cmd.MarkFlagRequired("game")

	return cmd
}

func (c *CLI) runValidate(cmd *cobra.Command, gamePath, layoutPath string) error {
	runner, err := c.newRunner(true)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, err := runner.LoadGame(cmd.Context(), pipeline.Options{
		GamePath: gamePath,
		Plan:     &plan.Plan{},
		Logger:   c.Logger,
	})
	if err != nil {
		printError("Catalog is invalid")
		printDetail("%v", err)
		return fmt.Errorf("validate %s: %w", gamePath, err)
	}
	printSuccess("Catalog schema is valid: %s", g.String())

	issues := game.CheckConsistency(g)
	errorCount := 0
	for _, issue := range issues {
		if issue.Type == game.IssueError {
			errorCount++
			printError("%s (%s)", issue.Message, issue.EntityID)
		} else {
			printWarning("%s (%s)", issue.Message, issue.EntityID)
		}
	}
	if len(issues) == 0 {
		printSuccess("Catalog references are consistent")
	}

	if layoutPath != "" {
		p, err := plan.ReadFile(layoutPath)
		if err != nil {
			printError("Layout is invalid")
			printDetail("%v", err)
			return fmt.Errorf("validate %s: %w", layoutPath, err)
		}
		printSuccess("Layout is valid: %d nodes, %d edges", len(p.Nodes), len(p.Edges))
	}

	if errorCount > 0 {
		return fmt.Errorf("%d consistency error(s)", errorCount)
	}
	return nil
}
