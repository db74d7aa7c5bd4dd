// Package cluster groups the visible subgraph into connected components for
// visual grouping. This is a deliberately simple substitute for true
// modularity-based community detection: two nodes share a cluster id exactly
// when a path of visible edges connects them, viewed undirected.
package cluster

import (
	"github.com/kanbu/wikigraph/graph"
)

// Assign labels every node with a cluster id. Ids are dense, zero-based
// integers handed out in the order components are discovered while iterating
// nodes, so identical input reproduces identical assignments. Singleton
// nodes form single-member clusters.
func Assign(nodes []graph.Node, edges []graph.Edge) map[string]int {
	assign := make(map[string]int, len(nodes))

	adj := make(map[string][]string, len(nodes))
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
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	next := 0
	for _, n := range nodes {
		if _, done := assign[n.ID]; done {
			continue
		}

		// Flood the component reachable from n
		assign[n.ID] = next
		queue := []string{n.ID}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, nb := range adj[current] {
				if _, done := assign[nb]; done {
					continue
				}
				assign[nb] = next
				queue = append(queue, nb)
			}
		}
		next++
	}

	return assign
}

// Members inverts an assignment into per-cluster member lists, ordered by
// cluster id. Member order within a cluster follows the node order used to
// produce the assignment when callers pass the same node list.
func Members(nodes []graph.Node, assign map[string]int) [][]string {
	count := 0
	for _, id := range assign {
		if id+1 > count {
			count = id + 1
		}
	}

	members := make([][]string, count)
	for _, n := range nodes {
		id, ok := assign[n.ID]
		if !ok {
			continue
		}
		members[id] = append(members[id], n.ID)
	}
	return members
}
