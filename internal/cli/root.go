// Package cli provides the Cobra command structure for trackmcp.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root trackmcp command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "trackmcp",
		Short: "Catalog, render and serve Model Context Protocol tools",
		Long: `trackmcp runs the Track MCP catalog of Model Context Protocol servers.

It serves the catalog website and JSON API, exposes the catalog to MCP
clients over stdio, renders GitHub READMEs into clean documents, and keeps
repository metadata, the sitemap and search engine notifications current.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetFlagErrorFunc(flagError)

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	// Add subcommands.
	rootCmd.AddCommand(newServeCommand(info))
	rootCmd.AddCommand(newMCPCommand(info))
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newCategoriesCommand())
	rootCmd.AddCommand(newStatsCommand())
	rootCmd.AddCommand(newSubmitCommand())
	rootCmd.AddCommand(newModerateCommand())
	rootCmd.AddCommand(newRefreshCommand())
	rootCmd.AddCommand(newSitemapCommand())
	rootCmd.AddCommand(newIndexNowCommand())
	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	// Apply styled help formatting.
	helpFormatter := NewHelpFormatter(color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}
