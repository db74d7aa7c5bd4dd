package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kanbu/wikigraph/errors"
	"github.com/kanbu/wikigraph/graph/filter"
	"github.com/kanbu/wikigraph/graph/traverse"
)

// PathCmd finds the shortest path between two nodes
var PathCmd = &cobra.Command{
	Use:   "path <start> <end>",
	Short: "Find the shortest path between two nodes",
	Long: `Compute the shortest connection path between two nodes over a filtered
snapshot. Traversal ignores edge direction; path length is hop count.

Examples:
  wikigraph path getting-started deployment --snapshot export.json
  wikigraph path alice KANBU-42 --group my-wiki --filter "kind=person,task"`,
	Args: cobra.ExactArgs(2),
	RunE: runPath,
}

var (
	pathSnapshot string
	pathGroupID  string
	pathFilter   string
)

func init() {
	PathCmd.Flags().StringVar(&pathSnapshot, "snapshot", "", "Load the graph from an exported snapshot file")
	PathCmd.Flags().StringVar(&pathGroupID, "group", "", "Fetch the graph for a wiki group id")
	PathCmd.Flags().StringVar(&pathFilter, "filter", "", "Filter expression applied before traversal")
}

func runPath(cmd *cobra.Command, args []string) error {
	start, end := args[0], args[1]

	snap, err := loadSnapshot(cmd.Context(), pathSnapshot, pathGroupID)
	if err != nil {
		return err
	}

	cfg, err := filter.ParseQuery(pathFilter)
	if err != nil {
		return errors.Wrap(err, "invalid filter expression")
	}

	res := filter.Apply(snap, cfg)
	path := traverse.ShortestPath(res.Nodes, res.Edges, start, end)

	if !path.Found {
		pterm.Info.Printf("No path between %s and %s\n", start, end)
		return nil
	}

	pterm.Success.Printf("Path found: %d hops\n", path.Length())
	pterm.Println()

	labels := make(map[string]string, len(res.Nodes))
	for _, n := range res.Nodes {
		labels[n.ID] = n.Label
	}

	parts := make([]string, 0, len(path.NodeIDs))
	for _, id := range path.NodeIDs {
		parts = append(parts, labels[id])
	}
	pterm.Printf("  %s\n", strings.Join(parts, " -> "))
	pterm.Println()

	for _, hop := range path.Hops {
		pterm.Printf("  %s --[%s]-- %s\n", hop.From, hop.Kind, hop.To)
	}

	return nil
}
