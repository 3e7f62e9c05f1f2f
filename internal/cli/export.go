package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		flags   solveFlags
		formats string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Solve a layout and export it as JSON, DOT, or SVG",
		Long: `Solve a layout and export it as JSON, DOT, or SVG.

The layout is solved first, so exported artifacts always carry the
computed flow rates and edge statuses. Multiple formats can be exported
in one run with a comma-separated list.

With -o the artifact is written to that file. For multiple formats -o
names the base path and the format is appended as the extension.

Examples:
  beltline export -g game.json -l factory.json --format dot
  beltline export -g game.json -l factory.json --format json,svg -o factory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, &flags, formats)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&formats, "format", "json", "output formats: json, dot, svg (comma-separated)")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, flags *solveFlags, formatList string) error {
	formats := parseFormats(formatList)

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(cmd.Context(), "Exporting layout...")
	spinner.Start()

	result, err := runner.Execute(cmd.Context(), flags.options(c, formats))
	if err != nil {
		spinner.StopWithError("Export failed")
		return err
	}
	spinner.Stop()

	if flags.output == "" {
		if len(formats) > 1 {
			return fmt.Errorf("multiple formats need -o; stdout can carry only one")
		}
		_, err := os.Stdout.Write(result.Artifacts[formats[0]])
		return err
	}

	for _, format := range formats {
		path := exportPath(flags.output, format, len(formats) > 1)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
	return nil
}

// exportPath resolves the output file name for one format. With several
// formats the base path gets the format as its extension.
func exportPath(base, format string, multi bool) string {
	if !multi {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + format
}
