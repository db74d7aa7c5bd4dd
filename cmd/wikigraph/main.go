package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanbu/wikigraph/cmd/wikigraph/commands"
	"github.com/kanbu/wikigraph/config"
	"github.com/kanbu/wikigraph/logger"
)

var rootCmd = &cobra.Command{
	Use:   "wikigraph",
	Short: "wikigraph - knowledge graph visualization engine for Kanbu wikis",
	Long: `wikigraph - knowledge graph visualization engine for Kanbu wikis.

wikigraph fetches a wiki's knowledge graph snapshot, filters it, finds
shortest paths and clusters, and serves interactive views over WebSocket.

Available commands:
  serve    - Start the visualization WebSocket server
  view     - Filter a snapshot and print a summary
  path     - Find the shortest path between two nodes
  config   - Manage wikigraph configuration
  version  - Show version information

Examples:
  wikigraph serve --group my-wiki            # Serve live views for a wiki
  wikigraph serve --snapshot export.json     # Serve from an exported file
  wikigraph view --snapshot export.json kind=page orphans=hide
  wikigraph path getting-started deployment --snapshot export.json
  wikigraph config show                      # Show current configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize global logger before any command runs
		if cmd.Name() == "show" {
			return nil
		}

		verbosity, _ := cmd.Flags().GetCount("verbose")

		jsonOutput := false
		if cfg, err := config.Load(); err == nil {
			jsonOutput = cfg.Log.JSON
		}

		if err := logger.InitializeWithVerbosity(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ViewCmd)
	rootCmd.AddCommand(commands.PathCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
