package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beltline/beltline/pkg/plan"
)

// plansCommand creates the plans management command.
func (c *CLI) plansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage stored layouts",
		Long: `Manage stored layouts.

Layouts are stored under their plan ID in the local data directory, or
in MongoDB when store.mongo_uri is set in the config file.`,
	}

	cmd.AddCommand(c.plansListCommand())
	cmd.AddCommand(c.plansShowCommand())
	cmd.AddCommand(c.plansSaveCommand())
	cmd.AddCommand(c.plansDeleteCommand())

	return cmd
}

func (c *CLI) plansListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored layout IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.newStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			ids, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				printInfo("No stored layouts")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func (c *CLI) plansShowCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored layout as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.newStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			p, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := plan.Export(p)
			if err != nil {
				return err
			}
			return writeOutput(data, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func (c *CLI) plansSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <layout.json>",
		Short: "Store a layout file under its plan ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.ReadFile(args[0])
			if err != nil {
				return err
			}

			st, err := c.newStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			if err := st.Save(cmd.Context(), p); err != nil {
				return err
			}
			printSuccess("Saved layout %s (%d nodes, %d edges)", p.ID, len(p.Nodes), len(p.Edges))
			return nil
		},
	}
}

func (c *CLI) plansDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a stored layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.newStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted layout %s", args[0])
			return nil
		},
	}
}
