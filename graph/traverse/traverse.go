// Package traverse implements breadth-first search over a filtered subgraph:
// shortest paths with full reconstruction and depth labeling from a focus
// node. Both operations view edges as undirected and are total over their
// inputs; inconsistent start/end/focus ids degrade to empty results.
package traverse

import (
	"github.com/kanbu/wikigraph/graph"
)

// Hop is one step of a reconstructed path, carrying the relation kind of the
// edge that was crossed.
type Hop struct {
	From string         `json:"from"`
	To   string         `json:"to"`
	Kind graph.EdgeKind `json:"kind"`
}

// PathResult is the outcome of a shortest-path search. Found is false when no
// path exists, when start equals end, or when either endpoint is absent from
// the supplied node set; "no path found" is informational, never an error.
type PathResult struct {
	Found   bool     `json:"found"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	NodeIDs []string `json:"node_ids,omitempty"`
	Hops    []Hop    `json:"hops,omitempty"`
}

// Length returns the path length in edges.
func (r PathResult) Length() int {
	return len(r.Hops)
}

type neighbor struct {
	id   string
	kind graph.EdgeKind
}

// adjacency builds an undirected adjacency list restricted to the supplied
// node set. Neighbor order follows edge list order, which makes every BFS
// below deterministic for a stable input ordering.
func adjacency(nodes []graph.Node, edges []graph.Edge) map[string][]neighbor {
	adj := make(map[string][]neighbor, len(nodes))
	for _, n := range nodes {
		adj[n.ID] = nil
	}
	for _, e := range edges {
		if _, ok := adj[e.Source]; !ok {
			continue
		}
		if _, ok := adj[e.Target]; !ok {
			continue
		}
		adj[e.Source] = append(adj[e.Source], neighbor{id: e.Target, kind: e.Kind})
		adj[e.Target] = append(adj[e.Target], neighbor{id: e.Source, kind: e.Kind})
	}
	return adj
}

// ShortestPath finds a shortest path between start and end by edge count,
// unweighted; a link edge and a mention edge cost the same. When multiple
// shortest paths exist the first one discovered in adjacency order wins.
func ShortestPath(nodes []graph.Node, edges []graph.Edge, start, end string) PathResult {
	result := PathResult{Start: start, End: end}

	if start == end {
		return result
	}

	adj := adjacency(nodes, edges)
	if _, ok := adj[start]; !ok {
		return result
	}
	if _, ok := adj[end]; !ok {
		return result
	}

	type cameFrom struct {
		prev string
		kind graph.EdgeKind
	}
	parent := make(map[string]cameFrom, len(adj))
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == end {
			break
		}

		for _, nb := range adj[current] {
			if visited[nb.id] {
				continue
			}
			visited[nb.id] = true
			parent[nb.id] = cameFrom{prev: current, kind: nb.kind}
			queue = append(queue, nb.id)
		}
	}

	if !visited[end] {
		return result
	}

	// Walk back from end to start, then reverse
	var hops []Hop
	ids := []string{end}
	for current := end; current != start; {
		from := parent[current]
		hops = append(hops, Hop{From: from.prev, To: current, Kind: from.kind})
		ids = append(ids, from.prev)
		current = from.prev
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}

	result.Found = true
	result.NodeIDs = ids
	result.Hops = hops
	return result
}

// DepthMap labels every node reachable from focus within limit hops with its
// hop distance, 0..limit inclusive. Nodes beyond limit or unreachable are
// absent from the mapping; a focus missing from the node set yields an empty
// map. limit below zero yields an empty map as well.
func DepthMap(nodes []graph.Node, edges []graph.Edge, focus string, limit int) map[string]int {
	depths := make(map[string]int)
	if limit < 0 {
		return depths
	}

	adj := adjacency(nodes, edges)
	if _, ok := adj[focus]; !ok {
		return depths
	}

	depths[focus] = 0
	queue := []string{focus}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if depths[current] == limit {
			continue
		}

		for _, nb := range adj[current] {
			if _, seen := depths[nb.id]; seen {
				continue
			}
			depths[nb.id] = depths[current] + 1
			queue = append(queue, nb.id)
		}
	}

	return depths
}
