package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beltline/beltline/internal/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

Exposes the solver over HTTP:
  POST /api/solve     solve a layout against a catalog
  POST /api/validate  check a catalog or layout for problems
  GET  /api/live      websocket channel for interactive editors
  GET  /api/health    build and liveness info

The server shares the CLI's cache backend, so repeated solves of the
same layout are served from cache. Shut down with Ctrl-C.

Examples:
  beltline serve
  beltline serve --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8080\")")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr string) error {
	if addr == "" {
		addr = c.Config.Server.Addr
	}

	runner, err := c.newRunner(false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := api.NewServer(runner, c.Logger)
	c.Logger.Info("starting server", "addr", addr)
	return srv.ListenAndServe(cmd.Context(), addr)
}
