// Package filter implements the sequential node filtering pipeline that turns
// a full snapshot into the visible subgraph: kind inclusion, time window,
// orphan exclusion, depth-from-focus, and a connectivity-ranked node cap.
// Every step is total; pathological configurations degrade to an empty result
// rather than erroring.
package filter

import (
	"sort"
	"time"

	"github.com/kanbu/wikigraph/graph"
	"github.com/kanbu/wikigraph/graph/traverse"
)

// DepthUnlimited disables the depth-from-focus step. Depth values at or above
// it mean "show everything reachable", matching the far end of the UI slider.
const DepthUnlimited = 6

// Config is the complete, explicit filter state for one pipeline call.
// It is transient UI state with the lifetime of the open view.
type Config struct {
	// Kinds is the set of node categories to keep. An empty set yields an
	// empty result, not "all kinds".
	Kinds []graph.NodeKind `json:"kinds"`

	// Since/Until bound the time window, inclusive. A nil bound is unbounded
	// on that side. Nodes without a timestamp always pass.
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`

	// HideOrphans drops nodes untouched by any edge of the unfiltered graph.
	HideOrphans bool `json:"hide_orphans,omitempty"`

	// Focus and Depth activate depth-limited reachability filtering when
	// Focus is set and Depth is below DepthUnlimited.
	Focus string `json:"focus,omitempty"`
	Depth int    `json:"depth,omitempty"`

	// MaxNodes caps the visible node count by keeping the best-connected
	// nodes. Zero or negative disables the cap.
	MaxNodes int `json:"max_nodes,omitempty"`
}

// DefaultConfig returns the filter state a freshly opened view starts with:
// all kinds visible, no time bounds, orphans shown, no focus, no cap.
func DefaultConfig() Config {
	return Config{
		Kinds: graph.AllNodeKinds(),
		Depth: DepthUnlimited,
	}
}

// depthActive reports whether the depth-from-focus step should run.
func (c Config) depthActive() bool {
	return c.Focus != "" && c.Depth >= 0 && c.Depth < DepthUnlimited
}

// Result is the visible subgraph plus the informational signals a caller
// may surface to the user. No field is ever an error condition.
type Result struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`

	// Degrees is the connection count per visible node over the visible edges.
	Degrees map[string]int `json:"degrees"`

	// Depths maps visible node ids to hop distance from the focus node.
	// Empty whenever the depth step was inactive or the focus was not
	// present in the surviving set.
	Depths map[string]int `json:"depths,omitempty"`

	// KindCounts are per-kind totals over the UNfiltered node set, for
	// display badges that show what a kind toggle would reveal.
	KindCounts map[graph.NodeKind]int `json:"kind_counts"`

	// TotalBeforeCap and Truncated report node-cap engagement:
	// "cap engaged, len(Nodes) of TotalBeforeCap nodes shown".
	TotalBeforeCap int  `json:"total_before_cap"`
	Truncated      bool `json:"truncated"`
}

// Apply runs the filter pipeline over a snapshot. Steps apply in fixed order,
// each narrowing the node set of the previous one; edges are derived at the
// end, surviving only when both endpoints survive every node step.
func Apply(snap *graph.Snapshot, cfg Config) Result {
	result := Result{
		Nodes:      []graph.Node{},
		Edges:      []graph.Edge{},
		Degrees:    map[string]int{},
		KindCounts: map[graph.NodeKind]int{},
	}
	if snap == nil {
		return result
	}

	// Badge counts always reflect the unfiltered snapshot
	for _, n := range snap.Nodes {
		result.KindCounts[n.Kind]++
	}

	// Step 1: kind inclusion. Empty set means empty result.
	kept := filterKinds(snap.Nodes, cfg.Kinds)

	// Step 2: time window
	kept = filterWindow(kept, cfg.Since, cfg.Until)

	// Step 3: orphan exclusion. "Orphan" is a structural property of the
	// whole graph, so connectivity is judged against the UNfiltered edge
	// set: a person kept alone by a kind toggle still counts as connected
	// when some hidden page links to them.
	if cfg.HideOrphans {
		kept = filterOrphans(kept, snap.Edges)
	}

	// Step 4: depth from focus over the survivors and their induced edges.
	// A focus that did not survive steps 1-3 disables the step for this call.
	if cfg.depthActive() {
		if containsID(kept, cfg.Focus) {
			induced := inducedEdges(kept, snap.Edges)
			depths := traverse.DepthMap(kept, induced, cfg.Focus, cfg.Depth)
			next := kept[:0:0]
			for _, n := range kept {
				if _, ok := depths[n.ID]; ok {
					next = append(next, n)
				}
			}
			kept = next
			result.Depths = depths
		}
	}

	// Step 5: node cap by connection count over the current survivors,
	// stable so ties break by original ordering.
	result.TotalBeforeCap = len(kept)
	if cfg.MaxNodes > 0 && len(kept) > cfg.MaxNodes {
		ranking := graph.Degrees(kept, inducedEdges(kept, snap.Edges))
		capped := make([]graph.Node, len(kept))
		copy(capped, kept)
		sort.SliceStable(capped, func(i, j int) bool {
			return ranking[capped[i].ID] > ranking[capped[j].ID]
		})
		kept = capped[:cfg.MaxNodes]
		result.Truncated = true
	}

	result.Nodes = kept
	result.Edges = inducedEdges(kept, snap.Edges)
	result.Degrees = graph.Degrees(result.Nodes, result.Edges)

	// Depth annotations only make sense for nodes that stayed visible
	if result.Depths != nil {
		for id := range result.Depths {
			if !containsID(result.Nodes, id) {
				delete(result.Depths, id)
			}
		}
	}

	return result
}

// Snapshot converts a filter result back into a snapshot so downstream calls
// (re-filtering, export) can treat the visible subgraph as their input graph.
func (r Result) Snapshot() *graph.Snapshot {
	snap := &graph.Snapshot{
		Nodes: r.Nodes,
		Edges: r.Edges,
	}
	snap.Meta.Stats = graph.Stats{TotalNodes: len(r.Nodes), TotalEdges: len(r.Edges)}
	return snap
}

func filterKinds(nodes []graph.Node, kinds []graph.NodeKind) []graph.Node {
	allowed := make(map[graph.NodeKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	kept := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if allowed[n.Kind] {
			kept = append(kept, n)
		}
	}
	return kept
}

func filterWindow(nodes []graph.Node, since, until *time.Time) []graph.Node {
	if since == nil && until == nil {
		return nodes
	}

	kept := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		// Nodes without a timestamp are always kept
		if n.Updated == nil {
			kept = append(kept, n)
			continue
		}
		if since != nil && n.Updated.Before(*since) {
			continue
		}
		if until != nil && n.Updated.After(*until) {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}

func filterOrphans(nodes []graph.Node, allEdges []graph.Edge) []graph.Node {
	touched := make(map[string]bool, len(allEdges)*2)
	for _, e := range allEdges {
		touched[e.Source] = true
		touched[e.Target] = true
	}

	kept := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if touched[n.ID] {
			kept = append(kept, n)
		}
	}
	return kept
}

// inducedEdges keeps edges whose endpoints are both in nodes.
func inducedEdges(nodes []graph.Node, edges []graph.Edge) []graph.Edge {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	kept := make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		if present[e.Source] && present[e.Target] {
			kept = append(kept, e)
		}
	}
	return kept
}

func containsID(nodes []graph.Node, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}
