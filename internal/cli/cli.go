// Package cli implements the beltline command-line interface.
//
// This package provides commands for solving factory layouts against a
// game catalog, routing belts, validating data files, exporting graphs,
// serving the HTTP API, and managing the local cache. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - solve: Run the flow solver over a layout and print edge statuses
//   - validate: Check a game catalog or layout for schema and consistency problems
//   - route: Route one edge and print its polyline
//   - export: Render a solved layout as JSON, DOT, or SVG
//   - inspect: Browse a solved layout interactively
//   - serve: Run the HTTP API server
//   - plans: Manage stored plans
//   - cache: Manage the solve cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/beltline/beltline/internal/config"
	"github.com/beltline/beltline/pkg/buildinfo"
	"github.com/beltline/beltline/pkg/cache"
	"github.com/beltline/beltline/pkg/pipeline"
	"github.com/beltline/beltline/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "beltline"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config
}

// New creates a new CLI instance with a default logger and the config
// file loaded from its XDG location. A broken config file downgrades to
// defaults with a warning rather than blocking every command.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: config.Default(),
	}
	if path, err := config.Path(appName); err == nil {
		cfg, err := config.Load(path)
		if err != nil {
			c.Logger.Warn("ignoring config file", "err", err)
		} else {
			c.Config = cfg
		}
	}
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "beltline",
		Short:        "Beltline plans factory layouts",
		Long:         `Beltline is a factory-planning tool: it solves item flow rates across a layout of production blocks, routes the belts between them, and flags starved, overloaded, or conflicting connections.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.routeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.plansCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The cache backend
// follows the config file unless noCache forces it off.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheBackendNone:
		return cache.NewNullCache(), nil
	case config.CacheBackendRedis:
		return cache.NewRedisCache(c.Config.Cache.RedisAddr,
			c.Config.Cache.RedisPassword, c.Config.Cache.RedisDB)
	default:
		dir := c.Config.Cache.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	}
}

// newStore creates the plan store configured in the config file: Mongo
// when a URI is set, otherwise the local file store.
func (c *CLI) newStore(cmd *cobra.Command) (store.PlanStore, error) {
	if uri := c.Config.Store.MongoURI; uri != "" {
		return store.NewMongoStore(cmd.Context(), uri, c.Config.Store.MongoDatabase)
	}
	dir := c.Config.Store.Dir
	if dir == "" {
		var err error
		dir, err = dataDir()
		if err != nil {
			return nil, err
		}
	}
	return store.NewFileStore(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/beltline/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the plan store directory (~/.local/share/beltline/plans/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "plans"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "plans"), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	return strings.Split(s, ",")
}

// writeOutput writes data to path, or stdout when path is empty.
func writeOutput(data []byte, path string) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}
